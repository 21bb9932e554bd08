package retention_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/retention"
)

type mockProcessingLogStore struct {
	cutoffs []time.Time
	deleted int64
	err     error
}

func (m *mockProcessingLogStore) Create(_ context.Context, _ *model.ProcessingLogEntry) error {
	return nil
}

func (m *mockProcessingLogStore) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.cutoffs = append(m.cutoffs, cutoff)
	return m.deleted, m.err
}

var _ = Describe("Sweeper", func() {
	var (
		ctx  context.Context
		logs *mockProcessingLogStore
		now  time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		logs = &mockProcessingLogStore{deleted: 5}
		now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	})

	It("deletes entries older than the retention window", func() {
		s := retention.NewSweeper(logs, 72*time.Hour, "@daily")
		s.SetClock(func() time.Time { return now })

		deleted, err := s.Sweep(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(deleted).To(Equal(int64(5)))
		Expect(logs.cutoffs).To(Equal([]time.Time{now.Add(-72 * time.Hour)}))
	})

	It("wraps store errors", func() {
		logs.err = errors.New("db down")
		_, err := retention.NewSweeper(logs, time.Hour, "@daily").Sweep(ctx)
		Expect(err).To(MatchError(ContainSubstring("db down")))
	})

	It("rejects an invalid schedule", func() {
		s := retention.NewSweeper(logs, time.Hour, "not a schedule")
		Expect(s.Start(ctx)).NotTo(Succeed())
	})

	It("starts and stops with a valid schedule", func() {
		s := retention.NewSweeper(logs, time.Hour, "@every 1h")
		Expect(s.Start(ctx)).To(Succeed())
		s.Stop()
	})
})
