package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Aldiwildan77/repo-pulse-sub000/common/id"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/store"
)

// InstallationService keeps the record of provider app installations and
// the repositories they grant.
type InstallationService struct {
	txRunner TxRunner
}

func NewInstallationService(txRunner TxRunner) *InstallationService {
	return &InstallationService{txRunner: txRunner}
}

func (s *InstallationService) Handle(ctx context.Context, ev model.Event) error {
	switch e := ev.(type) {
	case model.InstallationCreated:
		return s.created(ctx, e)
	case model.InstallationDeleted:
		return s.deleted(ctx, e)
	case model.InstallationReposChanged:
		return s.reposChanged(ctx, e)
	}
	return fmt.Errorf("%s is not an installation event", ev.Kind())
}

func (s *InstallationService) created(ctx context.Context, e model.InstallationCreated) error {
	return s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		inst, err := sp.Installations().Upsert(ctx, &model.Installation{
			ID:         id.New(),
			Provider:   e.Provider,
			ExternalID: e.InstallationID,
			Account:    e.Account,
			RepoKeys:   dedupeStrings(e.Repositories),
		})
		if err != nil {
			return fmt.Errorf("upserting installation: %w", err)
		}
		slog.InfoContext(ctx, "installation recorded",
			"installation_id", inst.ExternalID,
			"account", inst.Account,
			"repos", len(inst.RepoKeys))
		return nil
	})
}

func (s *InstallationService) deleted(ctx context.Context, e model.InstallationDeleted) error {
	return s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		err := sp.Installations().Delete(ctx, e.Provider, e.InstallationID)
		if errors.Is(err, store.ErrNotFound) {
			slog.WarnContext(ctx, "deleted installation was not recorded", "installation_id", e.InstallationID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("deleting installation: %w", err)
		}
		slog.InfoContext(ctx, "installation removed", "installation_id", e.InstallationID)
		return nil
	})
}

func (s *InstallationService) reposChanged(ctx context.Context, e model.InstallationReposChanged) error {
	return s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		existing, err := sp.Installations().GetByExternalID(ctx, e.Provider, e.InstallationID)
		if errors.Is(err, store.ErrNotFound) {
			// Installed before this service saw it; start from the added set.
			_, err = sp.Installations().Upsert(ctx, &model.Installation{
				ID:         id.New(),
				Provider:   e.Provider,
				ExternalID: e.InstallationID,
				Account:    e.Sender,
				RepoKeys:   applyRepoChanges(nil, e.Added, e.Removed),
			})
			if err != nil {
				return fmt.Errorf("creating installation: %w", err)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("loading installation: %w", err)
		}

		repos := applyRepoChanges(existing.RepoKeys, e.Added, e.Removed)
		if _, err := sp.Installations().UpdateRepos(ctx, e.Provider, e.InstallationID, repos); err != nil {
			return fmt.Errorf("updating installation repos: %w", err)
		}
		slog.InfoContext(ctx, "installation repositories updated",
			"installation_id", e.InstallationID,
			"added", len(e.Added),
			"removed", len(e.Removed),
			"total", len(repos))
		return nil
	})
}

// applyRepoChanges keeps the existing order, appends new keys and drops removed ones.
func applyRepoChanges(current, added, removed []string) []string {
	drop := make(map[string]struct{}, len(removed))
	for _, r := range removed {
		drop[r] = struct{}{}
	}

	var out []string
	for _, r := range append(append([]string{}, current...), added...) {
		if _, gone := drop[r]; gone {
			continue
		}
		out = append(out, r)
	}
	return dedupeStrings(out)
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
