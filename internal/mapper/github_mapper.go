package mapper

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/go-github/v68/github"

	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
)

// GitHub logins: alphanumerics and single hyphens, at most 39 characters.
var githubMentionPattern = regexp.MustCompile(`(?:^|[^\w@/])@([A-Za-z0-9](?:[A-Za-z0-9-]{0,38}))`)

var githubHandledEvents = map[string]struct{}{
	"pull_request":                {},
	"pull_request_review":         {},
	"pull_request_review_comment": {},
	"issues":                      {},
	"issue_comment":               {},
	"installation":                {},
	"installation_repositories":   {},
}

type GitHubEventMapper struct{}

func NewGitHubEventMapper() *GitHubEventMapper {
	return &GitHubEventMapper{}
}

func (m *GitHubEventMapper) Map(headers http.Header, body []byte) (model.Event, error) {
	eventType := headers.Get(github.EventTypeHeader)
	if _, ok := githubHandledEvents[eventType]; !ok {
		return ignored(model.Source{Provider: model.ProviderGitHub}, "unsupported github event %q", eventType), nil
	}

	payload, err := github.ParseWebHook(eventType, body)
	if err != nil {
		return nil, fmt.Errorf("parsing github %s payload: %w", eventType, err)
	}

	switch e := payload.(type) {
	case *github.PullRequestEvent:
		return m.mapPullRequest(e), nil
	case *github.PullRequestReviewEvent:
		return m.mapReview(e), nil
	case *github.PullRequestReviewCommentEvent:
		return m.mapReviewComment(e), nil
	case *github.IssuesEvent:
		return m.mapIssue(e), nil
	case *github.IssueCommentEvent:
		return m.mapIssueComment(e), nil
	case *github.InstallationEvent:
		return m.mapInstallation(e), nil
	case *github.InstallationRepositoriesEvent:
		return m.mapInstallationRepos(e), nil
	}

	return ignored(model.Source{Provider: model.ProviderGitHub}, "unhandled github payload %T", payload), nil
}

func githubSource(repo *github.Repository, sender *github.User) model.Source {
	return model.Source{
		Provider: model.ProviderGitHub,
		RepoKey:  model.RepoKey(model.ProviderGitHub, repo.GetFullName()),
		RepoName: repo.GetFullName(),
		RepoURL:  repo.GetHTMLURL(),
		Sender:   sender.GetLogin(),
	}
}

func githubPullRequestEntity(pr *github.PullRequest) model.Entity {
	return model.Entity{
		Number: int64(pr.GetNumber()),
		Title:  pr.GetTitle(),
		URL:    pr.GetHTMLURL(),
	}
}

func githubIssueEntity(issue *github.Issue) model.Entity {
	return model.Entity{
		Number: int64(issue.GetNumber()),
		Title:  issue.GetTitle(),
		URL:    issue.GetHTMLURL(),
	}
}

func githubLabelNames(labels []*github.Label) []string {
	names := make([]string, 0, len(labels))
	for _, l := range labels {
		if name := l.GetName(); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func (m *GitHubEventMapper) mapPullRequest(e *github.PullRequestEvent) model.Event {
	src := githubSource(e.GetRepo(), e.GetSender())
	pr := e.GetPullRequest()

	switch e.GetAction() {
	case "opened":
		return model.PullRequestOpened{
			Source:      src,
			Entity:      githubPullRequestEntity(pr),
			Author:      pr.GetUser().GetLogin(),
			Description: pr.GetBody(),
			Labels:      githubLabelNames(pr.Labels),
			Draft:       pr.GetDraft(),
		}
	case "closed":
		return model.PullRequestClosed{
			Source:   src,
			Entity:   githubPullRequestEntity(pr),
			Merged:   pr.GetMerged(),
			ClosedBy: e.GetSender().GetLogin(),
		}
	case "labeled", "unlabeled":
		action := model.LabelAdded
		if e.GetAction() == "unlabeled" {
			action = model.LabelRemoved
		}
		return model.PullRequestLabelChanged{
			Source: src,
			Entity: githubPullRequestEntity(pr),
			Label:  e.GetLabel().GetName(),
			Action: action,
		}
	}

	return ignored(src, "pull_request action %q", e.GetAction())
}

func (m *GitHubEventMapper) mapReview(e *github.PullRequestReviewEvent) model.Event {
	src := githubSource(e.GetRepo(), e.GetSender())
	if e.GetAction() != "submitted" {
		return ignored(src, "pull_request_review action %q", e.GetAction())
	}

	review := e.GetReview()
	var state model.ReviewState
	switch strings.ToLower(review.GetState()) {
	case "approved":
		state = model.ReviewApproved
	case "changes_requested":
		state = model.ReviewChangesRequested
	case "commented":
		state = model.ReviewCommented
	default:
		return ignored(src, "pull_request_review state %q", review.GetState())
	}

	return model.PullRequestReviewed{
		Source:   src,
		Entity:   githubPullRequestEntity(e.GetPullRequest()),
		Reviewer: review.GetUser().GetLogin(),
		State:    state,
		Body:     review.GetBody(),
	}
}

func (m *GitHubEventMapper) mapReviewComment(e *github.PullRequestReviewCommentEvent) model.Event {
	src := githubSource(e.GetRepo(), e.GetSender())
	if e.GetAction() != "created" {
		return ignored(src, "pull_request_review_comment action %q", e.GetAction())
	}

	comment := e.GetComment()
	return githubComment(src, githubPullRequestEntity(e.GetPullRequest()), comment.GetUser().GetLogin(), comment.GetBody(), true)
}

func (m *GitHubEventMapper) mapIssue(e *github.IssuesEvent) model.Event {
	src := githubSource(e.GetRepo(), e.GetSender())
	issue := e.GetIssue()

	switch e.GetAction() {
	case "opened":
		return model.IssueOpened{
			Source:      src,
			Entity:      githubIssueEntity(issue),
			Author:      issue.GetUser().GetLogin(),
			Description: issue.GetBody(),
			Labels:      githubLabelNames(issue.Labels),
		}
	case "closed":
		return model.IssueClosed{
			Source:   src,
			Entity:   githubIssueEntity(issue),
			ClosedBy: e.GetSender().GetLogin(),
		}
	}

	return ignored(src, "issues action %q", e.GetAction())
}

func (m *GitHubEventMapper) mapIssueComment(e *github.IssueCommentEvent) model.Event {
	src := githubSource(e.GetRepo(), e.GetSender())
	if e.GetAction() != "created" {
		return ignored(src, "issue_comment action %q", e.GetAction())
	}

	issue := e.GetIssue()
	onPullRequest := issue != nil && issue.IsPullRequest()
	comment := e.GetComment()
	return githubComment(src, githubIssueEntity(issue), comment.GetUser().GetLogin(), comment.GetBody(), onPullRequest)
}

func githubComment(src model.Source, entity model.Entity, author, body string, onPullRequest bool) model.Event {
	mentions := extractMentions(githubMentionPattern, body, "-")
	if len(mentions) == 0 {
		return ignored(src, "comment without mentions")
	}
	return model.Comment{
		Source:        src,
		Entity:        entity,
		Author:        author,
		Body:          body,
		Mentions:      mentions,
		OnPullRequest: onPullRequest,
	}
}

func (m *GitHubEventMapper) mapInstallation(e *github.InstallationEvent) model.Event {
	inst := e.GetInstallation()
	src := model.Source{Provider: model.ProviderGitHub, Sender: e.GetSender().GetLogin()}
	installationID := strconv.FormatInt(inst.GetID(), 10)

	switch e.GetAction() {
	case "created":
		return model.InstallationCreated{
			Source:         src,
			InstallationID: installationID,
			Account:        inst.GetAccount().GetLogin(),
			Repositories:   githubRepoKeys(e.Repositories),
		}
	case "deleted":
		return model.InstallationDeleted{
			Source:         src,
			InstallationID: installationID,
			Account:        inst.GetAccount().GetLogin(),
		}
	}

	return ignored(src, "installation action %q", e.GetAction())
}

func (m *GitHubEventMapper) mapInstallationRepos(e *github.InstallationRepositoriesEvent) model.Event {
	src := model.Source{Provider: model.ProviderGitHub, Sender: e.GetSender().GetLogin()}
	added := githubRepoKeys(e.RepositoriesAdded)
	removed := githubRepoKeys(e.RepositoriesRemoved)
	if len(added) == 0 && len(removed) == 0 {
		return ignored(src, "installation_repositories without changes")
	}

	return model.InstallationReposChanged{
		Source:         src,
		InstallationID: strconv.FormatInt(e.GetInstallation().GetID(), 10),
		Added:          added,
		Removed:        removed,
	}
}

func githubRepoKeys(repos []*github.Repository) []string {
	keys := make([]string, 0, len(repos))
	for _, r := range repos {
		if name := r.GetFullName(); name != "" {
			keys = append(keys, model.RepoKey(model.ProviderGitHub, name))
		}
	}
	return keys
}
