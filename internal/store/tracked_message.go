package store

import (
	"context"

	"github.com/Aldiwildan77/repo-pulse-sub000/core/db/sqlc"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
)

type trackedMessageStore struct {
	queries *sqlc.Queries
}

func newTrackedMessageStore(queries *sqlc.Queries) TrackedMessageStore {
	return &trackedMessageStore{queries: queries}
}

func (s *trackedMessageStore) Create(ctx context.Context, msg *model.TrackedMessage) (*model.TrackedMessage, error) {
	row, err := s.queries.CreateTrackedMessage(ctx, sqlc.CreateTrackedMessageParams{
		ID:        msg.ID,
		Provider:  string(msg.Provider),
		RepoKey:   msg.RepoKey,
		EntityID:  msg.EntityID,
		TargetID:  msg.TargetID,
		Platform:  string(msg.Platform),
		ChannelID: msg.ChannelID,
		MessageID: msg.MessageID,
		Status:    string(msg.Status),
	})
	if err != nil {
		return nil, err
	}
	created := toTrackedMessageModel(row)
	return &created, nil
}

func (s *trackedMessageStore) ListByEntity(ctx context.Context, repoKey, entityID string) ([]model.TrackedMessage, error) {
	rows, err := s.queries.ListTrackedMessagesByEntity(ctx, sqlc.ListTrackedMessagesByEntityParams{
		RepoKey:  repoKey,
		EntityID: entityID,
	})
	if err != nil {
		return nil, err
	}
	result := make([]model.TrackedMessage, 0, len(rows))
	for _, row := range rows {
		result = append(result, toTrackedMessageModel(row))
	}
	return result, nil
}

func (s *trackedMessageStore) UpdateStatus(ctx context.Context, id int64, status model.MessageStatus) error {
	return s.queries.UpdateTrackedMessageStatus(ctx, sqlc.UpdateTrackedMessageStatusParams{
		ID:     id,
		Status: string(status),
	})
}

func toTrackedMessageModel(row sqlc.TrackedMessage) model.TrackedMessage {
	return model.TrackedMessage{
		ID:        row.ID,
		Provider:  model.Provider(row.Provider),
		RepoKey:   row.RepoKey,
		EntityID:  row.EntityID,
		TargetID:  row.TargetID,
		Platform:  model.Platform(row.Platform),
		ChannelID: row.ChannelID,
		MessageID: row.MessageID,
		Status:    model.MessageStatus(row.Status),
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}
