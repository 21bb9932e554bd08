package model

import "time"

// NotificationTarget is a configured chat destination for one repository.
// An empty tag set marks a default target.
type NotificationTarget struct {
	CreatedAt time.Time `json:"created_at"`
	RepoKey   string    `json:"repo_key"`
	Platform  Platform  `json:"platform"`
	ChannelID string    `json:"channel_id"`
	Tags      []string  `json:"tags"`
	ID        int64     `json:"id"`
	IsActive  bool      `json:"is_active"`
}

func (t NotificationTarget) Untagged() bool {
	return len(t.Tags) == 0
}

// HasAnyTag reports whether at least one of the target's tags is in requested.
func (t NotificationTarget) HasAnyTag(requested map[string]struct{}) bool {
	for _, tag := range t.Tags {
		if _, ok := requested[tag]; ok {
			return true
		}
	}
	return false
}

// ToggleSetting is the stored per-target enablement of one event type.
// A missing row is ToggleUnset, which counts as enabled.
type ToggleSetting int8

const (
	ToggleUnset ToggleSetting = iota
	ToggleEnabled
	ToggleDisabled
)

func (t ToggleSetting) Enabled() bool {
	return t != ToggleDisabled
}

func (t ToggleSetting) String() string {
	switch t {
	case ToggleEnabled:
		return "enabled"
	case ToggleDisabled:
		return "disabled"
	default:
		return "unset"
	}
}

// ToggleFromBool converts a stored boolean column into a setting.
func ToggleFromBool(enabled bool) ToggleSetting {
	if enabled {
		return ToggleEnabled
	}
	return ToggleDisabled
}
