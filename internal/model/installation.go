package model

import "time"

// Installation is a provider app installation and the repositories it grants.
type Installation struct {
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Provider   Provider  `json:"provider"`
	ExternalID string    `json:"external_id"`
	Account    string    `json:"account"`
	RepoKeys   []string  `json:"repo_keys"`
	ID         int64     `json:"id"`
}

// UserLink maps a source-control username to a chat platform user.
type UserLink struct {
	Provider       Provider `json:"provider"`
	Username       string   `json:"username"`
	Platform       Platform `json:"platform"`
	PlatformUserID string   `json:"platform_user_id"`
}
