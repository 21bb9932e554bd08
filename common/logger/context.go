package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within a context.
// The delivery pipeline enriches the context once per stage so that every log line emitted
// while handling a delivery carries the provider, delivery id and, once known, the target.
type LogFields struct {
	Provider   *string // Source-control provider (github, gitlab, bitbucket)
	DeliveryID *string // Provider-scoped delivery id
	EventKind  *string // Canonical event kind (pr_opened, comment, ...)
	RepoKey    *string // Source repository key
	TargetID   *int64  // Notification target being dispatched to
	Platform   *string // Chat platform of the target
	Component  string  // Component name (e.g. "repopulse.worker")
}

// WithLogFields enriches context with structured log fields.
// Multiple calls merge fields, with newer non-nil/non-empty values taking precedence.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.Provider != nil {
		result.Provider = next.Provider
	}
	if next.DeliveryID != nil {
		result.DeliveryID = next.DeliveryID
	}
	if next.EventKind != nil {
		result.EventKind = next.EventKind
	}
	if next.RepoKey != nil {
		result.RepoKey = next.RepoKey
	}
	if next.TargetID != nil {
		result.TargetID = next.TargetID
	}
	if next.Platform != nil {
		result.Platform = next.Platform
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value.
// Useful for setting LogFields inline: logger.WithLogFields(ctx, logger.LogFields{TargetID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}
