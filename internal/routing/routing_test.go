package routing_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/routing"
)

type mockTargetStore struct {
	targets []model.NotificationTarget
	err     error
}

func (m *mockTargetStore) ListActiveByRepo(_ context.Context, _ string) ([]model.NotificationTarget, error) {
	return m.targets, m.err
}

func (m *mockTargetStore) GetByID(_ context.Context, id int64) (*model.NotificationTarget, error) {
	for i := range m.targets {
		if m.targets[i].ID == id {
			return &m.targets[i], nil
		}
	}
	return nil, nil
}

type toggleKey struct {
	targetID int64
	kind     model.EventKind
}

type mockToggleStore struct {
	settings map[toggleKey]model.ToggleSetting
	errFor   map[int64]error
}

func (m *mockToggleStore) Get(_ context.Context, targetID int64, kind model.EventKind) (model.ToggleSetting, error) {
	if err := m.errFor[targetID]; err != nil {
		return model.ToggleUnset, err
	}
	return m.settings[toggleKey{targetID, kind}], nil
}

type recordingLog struct {
	entries []model.ProcessingLogEntry
}

func (r *recordingLog) Record(_ context.Context, entry model.ProcessingLogEntry) {
	r.entries = append(r.entries, entry)
}

func ids(targets []model.NotificationTarget) []int64 {
	out := make([]int64, 0, len(targets))
	for _, t := range targets {
		out = append(out, t.ID)
	}
	return out
}

var _ = Describe("Router", func() {
	var (
		ctx      context.Context
		targets  *mockTargetStore
		toggles  *mockToggleStore
		recorder *recordingLog
		router   *routing.Router
		src      model.Source
	)

	BeforeEach(func() {
		ctx = context.Background()
		targets = &mockTargetStore{targets: []model.NotificationTarget{
			{ID: 1, RepoKey: "github:acme/web", Platform: model.PlatformDiscord, ChannelID: "c0", IsActive: true},
			{ID: 2, RepoKey: "github:acme/web", Platform: model.PlatformDiscord, ChannelID: "c1", IsActive: true, Tags: []string{"backend"}},
			{ID: 3, RepoKey: "github:acme/web", Platform: model.PlatformSlack, ChannelID: "c2", IsActive: true, Tags: []string{"infra"}},
		}}
		toggles = &mockToggleStore{settings: map[toggleKey]model.ToggleSetting{}}
		recorder = &recordingLog{}
		router = routing.New(targets, toggles, recorder)
		src = model.Source{Provider: model.ProviderGitHub, RepoKey: "github:acme/web", RepoName: "acme/web"}
	})

	Describe("label-aware routing for opened pull requests", func() {
		It("sends to untagged and matching targets when a notify label is present", func() {
			ev := model.PullRequestOpened{Source: src, Entity: model.Entity{Number: 42}, Labels: []string{"notify:backend"}}
			routed, err := router.Route(ctx, ev, "d-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(routed)).To(Equal([]int64{1, 2}))
		})

		It("sends only to untagged targets without notify labels", func() {
			ev := model.PullRequestOpened{Source: src, Entity: model.Entity{Number: 42}, Labels: []string{"bug"}}
			routed, err := router.Route(ctx, ev, "d-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(routed)).To(Equal([]int64{1}))
		})

		It("does not mutate the stored target list", func() {
			before := append([]model.NotificationTarget(nil), targets.targets...)
			_, err := router.Route(ctx, model.PullRequestOpened{Source: src}, "d-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(targets.targets).To(Equal(before))
		})
	})

	It("routes other kinds to every active target", func() {
		targets.targets = append(targets.targets, model.NotificationTarget{ID: 4, IsActive: false})
		ev := model.PullRequestClosed{Source: src, Entity: model.Entity{Number: 42}, Merged: true}
		routed, err := router.Route(ctx, ev, "d-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(ids(routed)).To(Equal([]int64{1, 2, 3}))
	})

	Describe("event toggles", func() {
		It("treats a missing toggle as enabled", func() {
			routed, err := router.Route(ctx, model.PullRequestOpened{Source: src}, "d-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(routed)).To(ContainElement(int64(1)))
			Expect(recorder.entries).To(BeEmpty())
		})

		It("skips and records disabled targets", func() {
			toggles.settings[toggleKey{1, model.EventPullRequestOpened}] = model.ToggleDisabled
			routed, err := router.Route(ctx, model.PullRequestOpened{Source: src}, "d-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(routed).To(BeEmpty())

			Expect(recorder.entries).To(HaveLen(1))
			entry := recorder.entries[0]
			Expect(*entry.TargetID).To(Equal(int64(1)))
			Expect(entry.Status).To(Equal(model.LogStatusSkipped))
			Expect(entry.EventType).To(Equal(model.EventPullRequestOpened))
			Expect(entry.DeliveryID).To(Equal("d-1"))
			Expect(entry.Summary).To(ContainSubstring("disabled"))
		})

		It("keeps explicitly enabled targets", func() {
			toggles.settings[toggleKey{1, model.EventPullRequestOpened}] = model.ToggleEnabled
			routed, err := router.Route(ctx, model.PullRequestOpened{Source: src}, "d-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(routed)).To(Equal([]int64{1}))
		})

		It("excludes a target whose toggle cannot be read", func() {
			toggles.errFor = map[int64]error{2: errors.New("db down")}
			routed, err := router.Route(ctx, model.IssueOpened{Source: src}, "d-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(routed)).To(Equal([]int64{1, 3}))
			Expect(recorder.entries).To(HaveLen(1))
			Expect(recorder.entries[0].Status).To(Equal(model.LogStatusFailed))
			Expect(*recorder.entries[0].ErrorMessage).To(Equal("db down"))
		})
	})

	It("returns store errors", func() {
		targets.err = errors.New("boom")
		_, err := router.Route(ctx, model.IssueOpened{Source: src}, "d-1")
		Expect(err).To(MatchError(ContainSubstring("boom")))
	})
})

var _ = Describe("RequestedTags", func() {
	It("strips the prefix and ignores other labels", func() {
		tags := routing.RequestedTags([]string{"notify:backend", "bug", "notify:", "notify:infra"})
		Expect(tags).To(HaveLen(2))
		Expect(tags).To(HaveKey("backend"))
		Expect(tags).To(HaveKey("infra"))
	})
})
