package model

import "strconv"

// EventKind is the canonical event kind. It doubles as the event type used by
// toggles and the processing log.
type EventKind string

const (
	EventPullRequestOpened        EventKind = "pr_opened"
	EventPullRequestClosed        EventKind = "pr_closed"
	EventPullRequestLabelChanged  EventKind = "pr_label_changed"
	EventPullRequestReview        EventKind = "pr_review"
	EventIssueOpened              EventKind = "issue_opened"
	EventIssueClosed              EventKind = "issue_closed"
	EventComment                  EventKind = "comment"
	EventInstallationCreated      EventKind = "installation_created"
	EventInstallationDeleted      EventKind = "installation_deleted"
	EventInstallationReposChanged EventKind = "installation_repos_changed"
	EventIgnored                  EventKind = "ignored"
)

func (k EventKind) String() string {
	return string(k)
}

type LabelAction string

const (
	LabelAdded   LabelAction = "labeled"
	LabelRemoved LabelAction = "unlabeled"
)

type ReviewState string

const (
	ReviewApproved         ReviewState = "approved"
	ReviewChangesRequested ReviewState = "changes_requested"
	ReviewCommented        ReviewState = "commented"
)

// Event is a normalized source-control happening. The set of implementations
// is closed: only types in this package satisfy it.
type Event interface {
	Kind() EventKind
	Origin() Source
	isEvent()
}

// Source describes where an event came from.
type Source struct {
	Provider Provider
	RepoKey  string
	RepoName string
	RepoURL  string
	Sender   string
}

func (s Source) Origin() Source { return s }

// Entity is the pull request or issue an event refers to.
type Entity struct {
	Number int64
	Title  string
	URL    string
}

// EntityID is the provider-scoped id stored on tracked messages.
func (e Entity) EntityID() string {
	return strconv.FormatInt(e.Number, 10)
}

type PullRequestOpened struct {
	Source
	Entity
	Author      string
	Description string
	Labels      []string
	Draft       bool
}

type PullRequestClosed struct {
	Source
	Entity
	Merged   bool
	ClosedBy string
}

type PullRequestLabelChanged struct {
	Source
	Entity
	Label  string
	Action LabelAction
}

type PullRequestReviewed struct {
	Source
	Entity
	Reviewer string
	State    ReviewState
	Body     string
}

type IssueOpened struct {
	Source
	Entity
	Author      string
	Description string
	Labels      []string
}

type IssueClosed struct {
	Source
	Entity
	ClosedBy string
}

// Comment carries the mentioned usernames. A comment without mentions is
// normalized to Ignored instead.
type Comment struct {
	Source
	Entity
	Author        string
	Body          string
	Mentions      []string
	OnPullRequest bool
}

type InstallationCreated struct {
	Source
	InstallationID string
	Account        string
	Repositories   []string
}

type InstallationDeleted struct {
	Source
	InstallationID string
	Account        string
}

type InstallationReposChanged struct {
	Source
	InstallationID string
	Added          []string
	Removed        []string
}

type Ignored struct {
	Source
	Reason string
}

func (PullRequestOpened) Kind() EventKind        { return EventPullRequestOpened }
func (PullRequestClosed) Kind() EventKind        { return EventPullRequestClosed }
func (PullRequestLabelChanged) Kind() EventKind  { return EventPullRequestLabelChanged }
func (PullRequestReviewed) Kind() EventKind      { return EventPullRequestReview }
func (IssueOpened) Kind() EventKind              { return EventIssueOpened }
func (IssueClosed) Kind() EventKind              { return EventIssueClosed }
func (Comment) Kind() EventKind                  { return EventComment }
func (InstallationCreated) Kind() EventKind      { return EventInstallationCreated }
func (InstallationDeleted) Kind() EventKind      { return EventInstallationDeleted }
func (InstallationReposChanged) Kind() EventKind { return EventInstallationReposChanged }
func (Ignored) Kind() EventKind                  { return EventIgnored }

func (PullRequestOpened) isEvent()        {}
func (PullRequestClosed) isEvent()        {}
func (PullRequestLabelChanged) isEvent()  {}
func (PullRequestReviewed) isEvent()      {}
func (IssueOpened) isEvent()              {}
func (IssueClosed) isEvent()              {}
func (Comment) isEvent()                  {}
func (InstallationCreated) isEvent()      {}
func (InstallationDeleted) isEvent()      {}
func (InstallationReposChanged) isEvent() {}
func (Ignored) isEvent()                  {}
