package service

import (
	"context"

	"github.com/Aldiwildan77/repo-pulse-sub000/core/db"
	"github.com/Aldiwildan77/repo-pulse-sub000/core/db/sqlc"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/store"
)

// StoreProvider exposes the stores the pipeline reads and writes.
// *store.Stores satisfies it.
type StoreProvider interface {
	Targets() store.TargetStore
	Toggles() store.ToggleStore
	TrackedMessages() store.TrackedMessageStore
	ProcessingLogs() store.ProcessingLogStore
	Installations() store.InstallationStore
	UserLinks() store.UserLinkStore
}

// TxRunner runs functions within a transaction and provides stores bound to that transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(stores StoreProvider) error) error
}

type dbTxRunner struct {
	db *db.DB
}

// NewTxRunner builds a TxRunner backed by the core DB.
func NewTxRunner(db *db.DB) TxRunner {
	return &dbTxRunner{db: db}
}

func (r *dbTxRunner) WithTx(ctx context.Context, fn func(stores StoreProvider) error) error {
	return r.db.WithTx(ctx, func(q *sqlc.Queries) error {
		return fn(store.NewStores(q))
	})
}
