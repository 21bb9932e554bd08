package model

import "time"

type LogStatus string

const (
	LogStatusSent    LogStatus = "sent"
	LogStatusFailed  LogStatus = "failed"
	LogStatusSkipped LogStatus = "skipped"
)

type ProcessingLogEntry struct {
	CreatedAt    time.Time `json:"created_at"`
	TargetID     *int64    `json:"target_id,omitempty"`
	Platform     *Platform `json:"platform,omitempty"`
	ErrorMessage *string   `json:"error_message,omitempty"`
	Provider     Provider  `json:"provider"`
	RepoKey      string    `json:"repo_key"`
	DeliveryID   string    `json:"delivery_id"`
	EventType    EventKind `json:"event_type"`
	Status       LogStatus `json:"status"`
	Summary      string    `json:"summary"`
	ID           int64     `json:"id"`
}
