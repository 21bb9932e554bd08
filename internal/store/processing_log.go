package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/Aldiwildan77/repo-pulse-sub000/core/db/sqlc"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
)

type processingLogStore struct {
	queries *sqlc.Queries
}

func newProcessingLogStore(queries *sqlc.Queries) ProcessingLogStore {
	return &processingLogStore{queries: queries}
}

func (s *processingLogStore) Create(ctx context.Context, entry *model.ProcessingLogEntry) error {
	return s.queries.CreateProcessingLog(ctx, sqlc.CreateProcessingLogParams{
		ID:           entry.ID,
		TargetID:     entry.TargetID,
		Platform:     platformPtr(entry.Platform),
		Provider:     string(entry.Provider),
		RepoKey:      entry.RepoKey,
		DeliveryID:   entry.DeliveryID,
		EventType:    string(entry.EventType),
		Status:       string(entry.Status),
		Summary:      entry.Summary,
		ErrorMessage: entry.ErrorMessage,
	})
}

func (s *processingLogStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.queries.DeleteProcessingLogsBefore(ctx, pgtype.Timestamptz{Time: cutoff, Valid: true})
}

func platformPtr(p *model.Platform) *string {
	if p == nil {
		return nil
	}
	v := string(*p)
	return &v
}
