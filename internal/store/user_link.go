package store

import (
	"context"
	"strings"

	"github.com/Aldiwildan77/repo-pulse-sub000/core/db/sqlc"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
)

type userLinkStore struct {
	queries *sqlc.Queries
}

func newUserLinkStore(queries *sqlc.Queries) UserLinkStore {
	return &userLinkStore{queries: queries}
}

func (s *userLinkStore) ListByUsernames(ctx context.Context, provider model.Provider, platform model.Platform, usernames []string) ([]model.UserLink, error) {
	if len(usernames) == 0 {
		return nil, nil
	}
	lowered := make([]string, len(usernames))
	for i, u := range usernames {
		lowered[i] = strings.ToLower(u)
	}

	rows, err := s.queries.ListUserLinksByUsernames(ctx, sqlc.ListUserLinksByUsernamesParams{
		Provider:  string(provider),
		Platform:  string(platform),
		Usernames: lowered,
	})
	if err != nil {
		return nil, err
	}

	links := make([]model.UserLink, 0, len(rows))
	for _, row := range rows {
		links = append(links, model.UserLink{
			Provider:       model.Provider(row.Provider),
			Username:       row.Username,
			Platform:       model.Platform(row.Platform),
			PlatformUserID: row.PlatformUserID,
		})
	}
	return links, nil
}
