package metrics_test

import (
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Aldiwildan77/repo-pulse-sub000/internal/metrics"
)

var _ = Describe("Metrics", func() {
	It("counts deliveries and notifications by label", func() {
		m := metrics.New()
		m.DeliveryAdmitted("github", metrics.OutcomeAccepted)
		m.DeliveryAdmitted("github", metrics.OutcomeAccepted)
		m.DeliveryAdmitted("gitlab", metrics.OutcomeDuplicate)
		m.NotificationRecorded("discord", "pr_opened", "sent")

		count, err := testutil.GatherAndCount(m.Registry(), "repopulse_webhook_deliveries_total")
		Expect(err).NotTo(HaveOccurred())
		Expect(count).To(Equal(2))
	})

	It("serves the queue depth gauge", func() {
		m := metrics.New()
		depth := 3
		m.RegisterQueueDepth(func() int { return depth })
		m.DeliveryProcessed("github", 20*time.Millisecond)

		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
		Expect(rec.Code).To(Equal(200))
		Expect(rec.Body.String()).To(ContainSubstring("repopulse_queue_depth 3"))
		Expect(rec.Body.String()).To(ContainSubstring("repopulse_delivery_processing_seconds_count{provider=\"github\"} 1"))
	})

	It("ignores calls on a nil receiver", func() {
		var m *metrics.Metrics
		Expect(func() {
			m.DeliveryAdmitted("github", metrics.OutcomeAccepted)
			m.NotificationRecorded("slack", "comment", "failed")
			m.DeliveryProcessed("github", time.Second)
			m.RegisterQueueDepth(func() int { return 0 })
		}).NotTo(Panic())
	})
})
