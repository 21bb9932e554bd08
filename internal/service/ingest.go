package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Aldiwildan77/repo-pulse-sub000/common/logger"
	"github.com/Aldiwildan77/repo-pulse-sub000/core/config"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/admission"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/gate"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/metrics"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/queue"
)

var (
	ErrUnknownProvider       = errors.New("unknown provider")
	ErrAdmissionUnavailable  = errors.New("admission store unavailable")
	ErrProcessingUnavailable = errors.New("processing queue unavailable")
)

// ProviderBinding pairs a provider's gate with its webhook secret.
type ProviderBinding struct {
	Gate   gate.Gate
	Secret string
}

// ProviderTable is the lookup table consulted at the admission boundary.
type ProviderTable map[model.Provider]ProviderBinding

// NewProviderTable registers every provider that has a secret configured.
func NewProviderTable(secrets config.WebhookSecrets) ProviderTable {
	configured := map[model.Provider]string{
		model.ProviderGitHub:    secrets.GitHub,
		model.ProviderGitLab:    secrets.GitLab,
		model.ProviderBitbucket: secrets.Bitbucket,
	}

	table := make(ProviderTable, len(configured))
	for provider, secret := range configured {
		if secret == "" {
			continue
		}
		g, ok := gate.New(provider)
		if !ok {
			continue
		}
		table[provider] = ProviderBinding{Gate: g, Secret: secret}
	}
	return table
}

type IngestParams struct {
	Provider string
	Headers  http.Header
	Body     []byte
	TraceID  *string
}

type IngestResult struct {
	Delivery  model.DeliveryKey
	Duplicate bool
}

type IngestService interface {
	Ingest(ctx context.Context, params IngestParams) (*IngestResult, error)
}

type ingestService struct {
	providers ProviderTable
	limiter   admission.RateLimiter
	dedup     admission.Deduplicator
	queue     queue.Producer
	metrics   *metrics.Metrics
}

func NewIngestService(providers ProviderTable, limiter admission.RateLimiter, dedup admission.Deduplicator, q queue.Producer, m *metrics.Metrics) IngestService {
	return &ingestService{
		providers: providers,
		limiter:   limiter,
		dedup:     dedup,
		queue:     q,
		metrics:   m,
	}
}

// Ingest runs the admission gates in order: provider lookup, signature, rate
// limit, delivery id, dedup, enqueue. Nothing downstream of the enqueue can
// fail the request.
func (s *ingestService) Ingest(ctx context.Context, params IngestParams) (*IngestResult, error) {
	provider := model.Provider(params.Provider)
	binding, ok := s.providers[provider]
	if !ok {
		s.metrics.DeliveryAdmitted("unknown", metrics.OutcomeUnknownProvider)
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, params.Provider)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Provider:  logger.Ptr(provider.String()),
		Component: "repopulse.ingest",
	})

	if err := binding.Gate.Verify(binding.Secret, params.Body, params.Headers); err != nil {
		s.metrics.DeliveryAdmitted(provider.String(), metrics.OutcomeUnauthorized)
		slog.WarnContext(ctx, "webhook signature rejected", "error", err)
		return nil, err
	}

	if err := s.limiter.Allow(ctx, provider); err != nil {
		if errors.Is(err, admission.ErrRateLimited) {
			s.metrics.DeliveryAdmitted(provider.String(), metrics.OutcomeRateLimited)
			slog.WarnContext(ctx, "webhook rate limited")
			return nil, err
		}
		s.metrics.DeliveryAdmitted(provider.String(), metrics.OutcomeError)
		slog.ErrorContext(ctx, "rate limiter unavailable", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrAdmissionUnavailable, err)
	}

	deliveryID, err := binding.Gate.DeliveryID(params.Headers, params.Body)
	if err != nil {
		s.metrics.DeliveryAdmitted(provider.String(), metrics.OutcomeBadRequest)
		slog.WarnContext(ctx, "webhook without delivery id", "error", err)
		return nil, err
	}

	key := model.DeliveryKey{Provider: provider, DeliveryID: deliveryID}
	ctx = logger.WithLogFields(ctx, logger.LogFields{DeliveryID: logger.Ptr(deliveryID)})

	claimed, err := s.dedup.Claim(ctx, key)
	if err != nil {
		s.metrics.DeliveryAdmitted(provider.String(), metrics.OutcomeError)
		slog.ErrorContext(ctx, "dedup store unavailable", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrAdmissionUnavailable, err)
	}
	if !claimed {
		s.metrics.DeliveryAdmitted(provider.String(), metrics.OutcomeDuplicate)
		slog.InfoContext(ctx, "duplicate delivery acknowledged")
		return &IngestResult{Delivery: key, Duplicate: true}, nil
	}

	task := queue.Task{
		Delivery:   key,
		Headers:    params.Headers.Clone(),
		Body:       params.Body,
		TraceID:    params.TraceID,
		EnqueuedAt: time.Now(),
	}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		// Let the provider's retry be admitted again.
		if releaseErr := s.dedup.Release(ctx, key); releaseErr != nil {
			slog.ErrorContext(ctx, "failed to release dedup key", "error", releaseErr)
		}
		s.metrics.DeliveryAdmitted(provider.String(), metrics.OutcomeQueueFull)
		slog.WarnContext(ctx, "delivery not enqueued", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrProcessingUnavailable, err)
	}

	s.metrics.DeliveryAdmitted(provider.String(), metrics.OutcomeAccepted)
	slog.InfoContext(ctx, "delivery accepted")
	return &IngestResult{Delivery: key}, nil
}
