package store

import (
	"github.com/Aldiwildan77/repo-pulse-sub000/core/db/sqlc"
)

type Stores struct {
	queries *sqlc.Queries
}

func NewStores(queries *sqlc.Queries) *Stores {
	return &Stores{queries: queries}
}

func (s *Stores) Targets() TargetStore {
	return newTargetStore(s.queries)
}

func (s *Stores) Toggles() ToggleStore {
	return newToggleStore(s.queries)
}

func (s *Stores) TrackedMessages() TrackedMessageStore {
	return newTrackedMessageStore(s.queries)
}

func (s *Stores) ProcessingLogs() ProcessingLogStore {
	return newProcessingLogStore(s.queries)
}

func (s *Stores) Installations() InstallationStore {
	return newInstallationStore(s.queries)
}

func (s *Stores) UserLinks() UserLinkStore {
	return newUserLinkStore(s.queries)
}
