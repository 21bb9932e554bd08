package service_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Aldiwildan77/repo-pulse-sub000/core/config"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/admission"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/gate"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/metrics"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/queue"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/service"
)

const githubSecret = "s3cret"

func signedGitHubHeaders(body []byte, deliveryID string) http.Header {
	mac := hmac.New(sha256.New, []byte(githubSecret))
	mac.Write(body)

	h := http.Header{}
	h.Set("X-Hub-Signature-256", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	h.Set("X-GitHub-Event", "pull_request")
	if deliveryID != "" {
		h.Set("X-GitHub-Delivery", deliveryID)
	}
	return h
}

var _ = Describe("NewProviderTable", func() {
	It("registers only providers with a secret", func() {
		table := service.NewProviderTable(config.WebhookSecrets{GitHub: "a", Bitbucket: "b"})
		Expect(table).To(HaveKey(model.ProviderGitHub))
		Expect(table).To(HaveKey(model.ProviderBitbucket))
		Expect(table).NotTo(HaveKey(model.ProviderGitLab))
		Expect(table[model.ProviderGitHub].Secret).To(Equal("a"))
	})
})

var _ = Describe("IngestService", func() {
	var (
		ctx      context.Context
		limiter  *mockRateLimiter
		dedup    *mockDeduplicator
		producer *mockProducer
		svc      service.IngestService
		body     []byte
	)

	BeforeEach(func() {
		ctx = context.Background()
		limiter = &mockRateLimiter{}
		dedup = newMockDeduplicator()
		producer = &mockProducer{}
		svc = service.NewIngestService(
			service.NewProviderTable(config.WebhookSecrets{GitHub: githubSecret}),
			limiter, dedup, producer, metrics.New(),
		)
		body = []byte(`{"action":"opened","number":42}`)
	})

	params := func(provider string, headers http.Header) service.IngestParams {
		return service.IngestParams{Provider: provider, Headers: headers, Body: body}
	}

	It("accepts and enqueues a signed delivery", func() {
		result, err := svc.Ingest(ctx, params("github", signedGitHubHeaders(body, "abc")))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Duplicate).To(BeFalse())
		Expect(result.Delivery).To(Equal(model.DeliveryKey{Provider: model.ProviderGitHub, DeliveryID: "abc"}))

		Expect(producer.tasks).To(HaveLen(1))
		Expect(producer.tasks[0].Body).To(Equal(body))
		Expect(producer.tasks[0].Headers.Get("X-GitHub-Event")).To(Equal("pull_request"))
	})

	It("admits a GitLab push hook under a body-derived delivery id", func() {
		svc = service.NewIngestService(
			service.NewProviderTable(config.WebhookSecrets{GitLab: "gl-token"}),
			limiter, dedup, producer, metrics.New(),
		)
		push := []byte(`{"object_kind":"push","ref":"refs/heads/main","checkout_sha":"da1560886d"}`)
		h := http.Header{}
		h.Set("X-Gitlab-Token", "gl-token")
		h.Set("X-Gitlab-Event", "Push Hook")

		result, err := svc.Ingest(ctx, service.IngestParams{Provider: "gitlab", Headers: h, Body: push})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Duplicate).To(BeFalse())
		Expect(result.Delivery.Provider).To(Equal(model.ProviderGitLab))
		Expect(result.Delivery.DeliveryID).To(HaveLen(64))
		Expect(producer.tasks).To(HaveLen(1))

		again, err := svc.Ingest(ctx, service.IngestParams{Provider: "gitlab", Headers: h, Body: push})
		Expect(err).NotTo(HaveOccurred())
		Expect(again.Duplicate).To(BeTrue())
		Expect(again.Delivery).To(Equal(result.Delivery))
	})

	It("acknowledges a repeated delivery as a duplicate without enqueueing again", func() {
		_, err := svc.Ingest(ctx, params("github", signedGitHubHeaders(body, "abc")))
		Expect(err).NotTo(HaveOccurred())

		result, err := svc.Ingest(ctx, params("github", signedGitHubHeaders(body, "abc")))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Duplicate).To(BeTrue())
		Expect(producer.tasks).To(HaveLen(1))
	})

	It("rejects unknown and unconfigured providers", func() {
		_, err := svc.Ingest(ctx, params("gitea", http.Header{}))
		Expect(err).To(MatchError(service.ErrUnknownProvider))

		_, err = svc.Ingest(ctx, params("gitlab", http.Header{}))
		Expect(err).To(MatchError(service.ErrUnknownProvider))
	})

	It("rejects a tampered body before touching admission state", func() {
		headers := signedGitHubHeaders(body, "abc")
		body = []byte(`{"action":"opened","number":43}`)

		_, err := svc.Ingest(ctx, params("github", headers))
		Expect(err).To(MatchError(gate.ErrInvalidSignature))
		Expect(limiter.calls).To(BeZero())
		Expect(dedup.claimed).To(BeEmpty())
	})

	It("rejects a missing signature", func() {
		headers := signedGitHubHeaders(body, "abc")
		headers.Del("X-Hub-Signature-256")
		_, err := svc.Ingest(ctx, params("github", headers))
		Expect(err).To(MatchError(gate.ErrMissingSignature))
	})

	It("rate limits before checking the delivery id", func() {
		limiter.err = admission.ErrRateLimited
		_, err := svc.Ingest(ctx, params("github", signedGitHubHeaders(body, "")))
		Expect(err).To(MatchError(admission.ErrRateLimited))
	})

	It("reports a missing delivery id", func() {
		_, err := svc.Ingest(ctx, params("github", signedGitHubHeaders(body, "")))
		Expect(err).To(MatchError(gate.ErrMissingDeliveryID))
	})

	It("reports an unavailable dedup store", func() {
		dedup.err = errBoom
		_, err := svc.Ingest(ctx, params("github", signedGitHubHeaders(body, "abc")))
		Expect(err).To(MatchError(service.ErrAdmissionUnavailable))
	})

	It("releases the dedup key when the queue is full", func() {
		producer.err = queue.ErrQueueFull
		_, err := svc.Ingest(ctx, params("github", signedGitHubHeaders(body, "abc")))
		Expect(err).To(MatchError(service.ErrProcessingUnavailable))
		Expect(dedup.released).To(ConsistOf(model.DeliveryKey{Provider: model.ProviderGitHub, DeliveryID: "abc"}))

		producer.err = nil
		result, err := svc.Ingest(ctx, params("github", signedGitHubHeaders(body, "abc")))
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Duplicate).To(BeFalse())
	})
})
