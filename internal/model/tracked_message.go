package model

import "time"

type MessageStatus string

const (
	MessageStatusOpen   MessageStatus = "open"
	MessageStatusMerged MessageStatus = "merged"
	MessageStatusClosed MessageStatus = "closed"
)

// TrackedMessage links a sent opening notification to the entity it announced.
// TargetID is nil only for rows written before the target id was recorded.
type TrackedMessage struct {
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	TargetID  *int64        `json:"target_id,omitempty"`
	Provider  Provider      `json:"provider"`
	RepoKey   string        `json:"repo_key"`
	EntityID  string        `json:"entity_id"`
	Platform  Platform      `json:"platform"`
	ChannelID string        `json:"channel_id"`
	MessageID string        `json:"message_id"`
	Status    MessageStatus `json:"status"`
	ID        int64         `json:"id"`
}
