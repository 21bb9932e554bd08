package store

import (
	"context"
	"errors"
	"time"

	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// TargetStore reads notification targets. Targets are configured elsewhere.
type TargetStore interface {
	ListActiveByRepo(ctx context.Context, repoKey string) ([]model.NotificationTarget, error)
	GetByID(ctx context.Context, id int64) (*model.NotificationTarget, error)
}

// ToggleStore reads per-target event enablement. A missing row is model.ToggleUnset.
type ToggleStore interface {
	Get(ctx context.Context, targetID int64, eventType model.EventKind) (model.ToggleSetting, error)
}

type TrackedMessageStore interface {
	Create(ctx context.Context, msg *model.TrackedMessage) (*model.TrackedMessage, error)
	ListByEntity(ctx context.Context, repoKey, entityID string) ([]model.TrackedMessage, error)
	UpdateStatus(ctx context.Context, id int64, status model.MessageStatus) error
}

// ProcessingLogStore is append-only apart from retention.
type ProcessingLogStore interface {
	Create(ctx context.Context, entry *model.ProcessingLogEntry) error
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type InstallationStore interface {
	Upsert(ctx context.Context, inst *model.Installation) (*model.Installation, error)
	GetByExternalID(ctx context.Context, provider model.Provider, externalID string) (*model.Installation, error)
	UpdateRepos(ctx context.Context, provider model.Provider, externalID string, repoKeys []string) (*model.Installation, error)
	Delete(ctx context.Context, provider model.Provider, externalID string) error
}

// UserLinkStore resolves source-control usernames to chat platform users.
// Usernames match case-insensitively.
type UserLinkStore interface {
	ListByUsernames(ctx context.Context, provider model.Provider, platform model.Platform, usernames []string) ([]model.UserLink, error)
}
