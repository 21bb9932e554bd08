package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/Aldiwildan77/repo-pulse-sub000/core/db/sqlc"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
)

type targetStore struct {
	queries *sqlc.Queries
}

func newTargetStore(queries *sqlc.Queries) TargetStore {
	return &targetStore{queries: queries}
}

func (s *targetStore) ListActiveByRepo(ctx context.Context, repoKey string) ([]model.NotificationTarget, error) {
	rows, err := s.queries.ListActiveTargetsByRepo(ctx, repoKey)
	if err != nil {
		return nil, err
	}
	result := make([]model.NotificationTarget, 0, len(rows))
	for _, row := range rows {
		result = append(result, toTargetModel(row))
	}
	return result, nil
}

func (s *targetStore) GetByID(ctx context.Context, id int64) (*model.NotificationTarget, error) {
	row, err := s.queries.GetTarget(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	target := toTargetModel(row)
	return &target, nil
}

func toTargetModel(row sqlc.NotificationTarget) model.NotificationTarget {
	return model.NotificationTarget{
		ID:        row.ID,
		RepoKey:   row.RepoKey,
		Platform:  model.Platform(row.Platform),
		ChannelID: row.ChannelID,
		IsActive:  row.IsActive,
		Tags:      row.Tags,
		CreatedAt: row.CreatedAt.Time,
	}
}

type toggleStore struct {
	queries *sqlc.Queries
}

func newToggleStore(queries *sqlc.Queries) ToggleStore {
	return &toggleStore{queries: queries}
}

func (s *toggleStore) Get(ctx context.Context, targetID int64, eventType model.EventKind) (model.ToggleSetting, error) {
	enabled, err := s.queries.GetEventToggle(ctx, sqlc.GetEventToggleParams{
		TargetID:  targetID,
		EventType: string(eventType),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ToggleUnset, nil
		}
		return model.ToggleUnset, err
	}
	return model.ToggleFromBool(enabled), nil
}
