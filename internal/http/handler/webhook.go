package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aldiwildan77/repo-pulse-sub000/internal/admission"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/gate"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/service"
)

// maxWebhookBody caps inbound payloads; GitHub documents 25 MB.
const maxWebhookBody = 25 << 20

type WebhookHandler struct {
	ingest      service.IngestService
	traceHeader string
}

func NewWebhookHandler(ingest service.IngestService, traceHeader string) *WebhookHandler {
	return &WebhookHandler{ingest: ingest, traceHeader: traceHeader}
}

// Handle admits a delivery and acknowledges it before any processing happens.
// The body is passed on byte for byte; signatures are computed over it.
func (h *WebhookHandler) Handle(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	result, err := h.ingest.Ingest(ctx, service.IngestParams{
		Provider: c.Param("provider"),
		Headers:  c.Request.Header,
		Body:     body,
		TraceID:  h.traceID(c),
	})
	if err != nil {
		status, message := webhookErrorStatus(err)
		if status >= http.StatusInternalServerError {
			slog.ErrorContext(ctx, "webhook admission failed", "error", err)
		}
		c.JSON(status, gin.H{"error": message})
		return
	}

	if result.Duplicate {
		c.JSON(http.StatusOK, gin.H{"status": "already processed", "delivery_id": result.Delivery.DeliveryID})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "delivery_id": result.Delivery.DeliveryID})
}

func webhookErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrUnknownProvider):
		return http.StatusNotFound, "unknown provider"
	case errors.Is(err, gate.ErrMissingSignature),
		errors.Is(err, gate.ErrInvalidSignature),
		errors.Is(err, gate.ErrMissingBody):
		return http.StatusUnauthorized, "invalid signature"
	case errors.Is(err, admission.ErrRateLimited):
		return http.StatusTooManyRequests, "rate limited"
	case errors.Is(err, gate.ErrMissingDeliveryID):
		return http.StatusBadRequest, "missing delivery id"
	case errors.Is(err, service.ErrProcessingUnavailable), errors.Is(err, service.ErrAdmissionUnavailable):
		return http.StatusServiceUnavailable, "temporarily unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// traceID prefers an explicit trace header, then the request span.
func (h *WebhookHandler) traceID(c *gin.Context) *string {
	if h.traceHeader != "" {
		if v := c.GetHeader(h.traceHeader); v != "" {
			return &v
		}
	}
	sc := trace.SpanContextFromContext(c.Request.Context())
	if !sc.HasTraceID() {
		return nil
	}
	id := sc.TraceID().String()
	return &id
}
