package push

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
)

var (
	ErrPlatformNotRegistered = errors.New("platform not registered")
	ErrDiscoveryUnsupported  = errors.New("discovery not supported")
	ErrScopeRequired         = errors.New("scope id required")
)

// Reaction is a logical status marker. Each platform maps it to its own
// emoji vocabulary.
type Reaction string

const (
	ReactionMerged           Reaction = "merged"
	ReactionClosed           Reaction = "closed"
	ReactionApproved         Reaction = "approved"
	ReactionChangesRequested Reaction = "changes_requested"
	ReactionCommented        Reaction = "commented"
)

// Subject identifies the pull request or issue a notification is about.
type Subject struct {
	Provider model.Provider
	RepoName string
	RepoURL  string
	Number   int64
	Title    string
	URL      string
}

func (s Subject) Heading() string {
	if s.Number == 0 {
		return s.Title
	}
	return fmt.Sprintf("#%d %s", s.Number, s.Title)
}

type OpeningPayload struct {
	Subject
	Author      string
	Description string
	Labels      []string
	IsIssue     bool
	Draft       bool
}

type MentionPayload struct {
	Subject
	Author        string
	Body          string
	OnPullRequest bool
}

type LabelPayload struct {
	Subject
	Label  string
	Action model.LabelAction
	Actor  string
}

type IssueStatusPayload struct {
	Subject
	Status string
	Actor  string
}

type ReviewPayload struct {
	Subject
	Reviewer string
	State    model.ReviewState
	Body     string
}

// Pusher delivers notifications to one chat platform.
type Pusher interface {
	Platform() model.Platform
	SendOpeningNotification(ctx context.Context, channelID string, p OpeningPayload) (string, error)
	SendMentionNotification(ctx context.Context, platformUserID string, p MentionPayload) error
	SendLabelNotification(ctx context.Context, channelID string, p LabelPayload) error
	SendIssueStatusNotification(ctx context.Context, channelID string, p IssueStatusPayload) error
	SendReviewNotification(ctx context.Context, channelID string, p ReviewPayload) error
	AddReaction(ctx context.Context, channelID, messageID string, r Reaction) error
	RemoveInteractiveControls(ctx context.Context, channelID, messageID string) error
}

type Guild struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Channel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Discoverer lists configurable destinations. It is used when setting up
// targets, not while dispatching.
type Discoverer interface {
	ListGuilds(ctx context.Context) ([]Guild, error)
	ListChannels(ctx context.Context, scopeID string) ([]Channel, error)
}

// Registry holds one Pusher per platform. It is populated at startup and
// read-only afterwards.
type Registry struct {
	pushers map[model.Platform]Pusher
}

func NewRegistry(pushers ...Pusher) *Registry {
	r := &Registry{pushers: make(map[model.Platform]Pusher, len(pushers))}
	for _, p := range pushers {
		r.pushers[p.Platform()] = p
	}
	return r
}

func (r *Registry) Get(platform model.Platform) (Pusher, error) {
	p, ok := r.pushers[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPlatformNotRegistered, platform)
	}
	return p, nil
}

func (r *Registry) Discoverer(platform model.Platform) (Discoverer, error) {
	p, err := r.Get(platform)
	if err != nil {
		return nil, err
	}
	d, ok := p.(Discoverer)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDiscoveryUnsupported, platform)
	}
	return d, nil
}

func (r *Registry) Platforms() []model.Platform {
	platforms := make([]model.Platform, 0, len(r.pushers))
	for p := range r.pushers {
		platforms = append(platforms, p)
	}
	sort.Slice(platforms, func(i, j int) bool { return platforms[i] < platforms[j] })
	return platforms
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len([]rune(s)) <= max {
		return s
	}
	return string([]rune(s)[:max-1]) + "…"
}

func entityNoun(isIssue bool) string {
	if isIssue {
		return "issue"
	}
	return "pull request"
}

func reviewVerb(state model.ReviewState) string {
	switch state {
	case model.ReviewApproved:
		return "approved"
	case model.ReviewChangesRequested:
		return "requested changes on"
	default:
		return "commented on"
	}
}
