package model

import "strings"

type Provider string

const (
	ProviderGitHub    Provider = "github"
	ProviderGitLab    Provider = "gitlab"
	ProviderBitbucket Provider = "bitbucket"
)

func (p Provider) String() string {
	return string(p)
}

type Platform string

const (
	PlatformDiscord Platform = "discord"
	PlatformSlack   Platform = "slack"
)

func (p Platform) String() string {
	return string(p)
}

// RepoKey builds the repository key targets are configured against, e.g. "github:acme/web".
func RepoKey(provider Provider, fullName string) string {
	return string(provider) + ":" + strings.TrimSpace(fullName)
}

// DeliveryKey identifies one inbound webhook delivery. It is the idempotency key.
type DeliveryKey struct {
	Provider   Provider
	DeliveryID string
}

func (k DeliveryKey) String() string {
	return string(k.Provider) + ":" + k.DeliveryID
}
