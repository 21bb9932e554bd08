package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/Aldiwildan77/repo-pulse-sub000/core/db/sqlc"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
)

type installationStore struct {
	queries *sqlc.Queries
}

func newInstallationStore(queries *sqlc.Queries) InstallationStore {
	return &installationStore{queries: queries}
}

func (s *installationStore) Upsert(ctx context.Context, inst *model.Installation) (*model.Installation, error) {
	row, err := s.queries.UpsertInstallation(ctx, sqlc.UpsertInstallationParams{
		ID:         inst.ID,
		Provider:   string(inst.Provider),
		ExternalID: inst.ExternalID,
		Account:    inst.Account,
		RepoKeys:   nonNil(inst.RepoKeys),
	})
	if err != nil {
		return nil, err
	}
	result := toInstallationModel(row)
	return &result, nil
}

func (s *installationStore) GetByExternalID(ctx context.Context, provider model.Provider, externalID string) (*model.Installation, error) {
	row, err := s.queries.GetInstallation(ctx, sqlc.GetInstallationParams{
		Provider:   string(provider),
		ExternalID: externalID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	result := toInstallationModel(row)
	return &result, nil
}

func (s *installationStore) UpdateRepos(ctx context.Context, provider model.Provider, externalID string, repoKeys []string) (*model.Installation, error) {
	row, err := s.queries.UpdateInstallationRepos(ctx, sqlc.UpdateInstallationReposParams{
		Provider:   string(provider),
		ExternalID: externalID,
		RepoKeys:   nonNil(repoKeys),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	result := toInstallationModel(row)
	return &result, nil
}

func (s *installationStore) Delete(ctx context.Context, provider model.Provider, externalID string) error {
	n, err := s.queries.DeleteInstallation(ctx, sqlc.DeleteInstallationParams{
		Provider:   string(provider),
		ExternalID: externalID,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func toInstallationModel(row sqlc.Installation) model.Installation {
	return model.Installation{
		ID:         row.ID,
		Provider:   model.Provider(row.Provider),
		ExternalID: row.ExternalID,
		Account:    row.Account,
		RepoKeys:   row.RepoKeys,
		CreatedAt:  row.CreatedAt.Time,
		UpdatedAt:  row.UpdatedAt.Time,
	}
}

// nonNil keeps NOT NULL array columns from receiving SQL NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
