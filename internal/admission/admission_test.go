package admission_test

import (
	"context"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/redis/go-redis/v9"

	"github.com/Aldiwildan77/repo-pulse-sub000/internal/admission"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
)

var _ = Describe("Admission", func() {
	var (
		ctx    context.Context
		mr     *miniredis.Miniredis
		client *redis.Client
	)

	BeforeEach(func() {
		ctx = context.Background()
		mr = miniredis.RunT(GinkgoT())
		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		DeferCleanup(client.Close)
	})

	Describe("Deduplicator", func() {
		var dedup admission.Deduplicator
		key := model.DeliveryKey{Provider: model.ProviderGitHub, DeliveryID: "d-1"}

		BeforeEach(func() {
			dedup = admission.NewRedisDeduplicator(client, "test", 24*time.Hour)
		})

		It("claims a new delivery once", func() {
			first, err := dedup.Claim(ctx, key)
			Expect(err).NotTo(HaveOccurred())
			Expect(first).To(BeTrue())

			second, err := dedup.Claim(ctx, key)
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(BeFalse())
		})

		It("keys deliveries by provider", func() {
			_, err := dedup.Claim(ctx, key)
			Expect(err).NotTo(HaveOccurred())

			other := model.DeliveryKey{Provider: model.ProviderGitLab, DeliveryID: "d-1"}
			ok, err := dedup.Claim(ctx, other)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})

		It("sets the ttl on the key", func() {
			_, err := dedup.Claim(ctx, key)
			Expect(err).NotTo(HaveOccurred())
			Expect(mr.TTL("test:delivery:github:d-1")).To(Equal(24 * time.Hour))
		})

		It("admits the delivery again after the ttl", func() {
			_, err := dedup.Claim(ctx, key)
			Expect(err).NotTo(HaveOccurred())

			mr.FastForward(25 * time.Hour)

			ok, err := dedup.Claim(ctx, key)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})

		It("admits the delivery again after release", func() {
			_, err := dedup.Claim(ctx, key)
			Expect(err).NotTo(HaveOccurred())
			Expect(dedup.Release(ctx, key)).To(Succeed())

			ok, err := dedup.Claim(ctx, key)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})

		It("surfaces store errors", func() {
			mr.Close()
			_, err := dedup.Claim(ctx, key)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("RateLimiter", func() {
		It("allows up to the limit within a window", func() {
			limiter := admission.NewRedisRateLimiter(client, "test", 3, time.Hour)
			for i := 0; i < 3; i++ {
				Expect(limiter.Allow(ctx, model.ProviderGitHub)).To(Succeed())
			}
			Expect(limiter.Allow(ctx, model.ProviderGitHub)).To(MatchError(admission.ErrRateLimited))
		})

		It("counts providers independently", func() {
			limiter := admission.NewRedisRateLimiter(client, "test", 1, time.Hour)
			Expect(limiter.Allow(ctx, model.ProviderGitHub)).To(Succeed())
			Expect(limiter.Allow(ctx, model.ProviderGitLab)).To(Succeed())
			Expect(limiter.Allow(ctx, model.ProviderGitHub)).To(MatchError(admission.ErrRateLimited))
		})

		It("expires the window counter", func() {
			limiter := admission.NewRedisRateLimiter(client, "test", 5, time.Minute)
			Expect(limiter.Allow(ctx, model.ProviderBitbucket)).To(Succeed())

			keys := mr.Keys()
			Expect(keys).To(HaveLen(1))
			Expect(keys[0]).To(HavePrefix("test:ratelimit:bitbucket:"))
			Expect(mr.TTL(keys[0])).To(BeNumerically(">", 0))
			Expect(mr.TTL(keys[0])).To(BeNumerically("<=", time.Minute))
		})
	})
})
