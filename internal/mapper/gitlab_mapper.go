package mapper

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
)

// GitLab usernames allow letters, digits, underscores, dots and hyphens.
var gitlabMentionPattern = regexp.MustCompile(`(?:^|[^\w@/])@([A-Za-z0-9_][A-Za-z0-9_.\-]*)`)

const gitlabEventHeader = "X-Gitlab-Event"

type GitLabEventMapper struct{}

func NewGitLabEventMapper() *GitLabEventMapper {
	return &GitLabEventMapper{}
}

type gitlabUser struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

type gitlabProject struct {
	PathWithNamespace string `json:"path_with_namespace"`
	WebURL            string `json:"web_url"`
}

type gitlabLabel struct {
	Title string `json:"title"`
}

type gitlabNoteable struct {
	IID   int64  `json:"iid"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

type gitlabPayload struct {
	ObjectKind       string        `json:"object_kind"`
	User             gitlabUser    `json:"user"`
	Project          gitlabProject `json:"project"`
	Labels           []gitlabLabel `json:"labels"`
	ObjectAttributes struct {
		IID          int64  `json:"iid"`
		Title        string `json:"title"`
		Description  string `json:"description"`
		Note         string `json:"note"`
		NoteableType string `json:"noteable_type"`
		URL          string `json:"url"`
		Action       string `json:"action"`
		State        string `json:"state"`
		Draft        bool   `json:"draft"`
	} `json:"object_attributes"`
	Changes struct {
		Labels *struct {
			Previous []gitlabLabel `json:"previous"`
			Current  []gitlabLabel `json:"current"`
		} `json:"labels"`
	} `json:"changes"`
	MergeRequest *gitlabNoteable `json:"merge_request"`
	Issue        *gitlabNoteable `json:"issue"`
}

func (m *GitLabEventMapper) Map(headers http.Header, body []byte) (model.Event, error) {
	var p gitlabPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("parsing gitlab payload: %w", err)
	}

	src := model.Source{
		Provider: model.ProviderGitLab,
		RepoKey:  model.RepoKey(model.ProviderGitLab, p.Project.PathWithNamespace),
		RepoName: p.Project.PathWithNamespace,
		RepoURL:  p.Project.WebURL,
		Sender:   p.User.Username,
	}

	switch gitlab.EventType(headers.Get(gitlabEventHeader)) {
	case gitlab.EventTypeMergeRequest:
		return m.mapMergeRequest(src, &p), nil
	case gitlab.EventTypeIssue:
		return m.mapIssue(src, &p), nil
	case gitlab.EventTypeNote:
		return m.mapNote(src, &p), nil
	}

	return ignored(src, "unsupported gitlab event %q", headers.Get(gitlabEventHeader)), nil
}

func (m *GitLabEventMapper) entity(p *gitlabPayload) model.Entity {
	return model.Entity{
		Number: p.ObjectAttributes.IID,
		Title:  p.ObjectAttributes.Title,
		URL:    p.ObjectAttributes.URL,
	}
}

func (m *GitLabEventMapper) mapMergeRequest(src model.Source, p *gitlabPayload) model.Event {
	attrs := p.ObjectAttributes

	switch attrs.Action {
	case "open":
		return model.PullRequestOpened{
			Source:      src,
			Entity:      m.entity(p),
			Author:      p.User.Username,
			Description: attrs.Description,
			Labels:      gitlabLabelTitles(p.Labels),
			Draft:       attrs.Draft,
		}
	case "merge", "close":
		return model.PullRequestClosed{
			Source:   src,
			Entity:   m.entity(p),
			Merged:   attrs.Action == "merge",
			ClosedBy: p.User.Username,
		}
	case "approved":
		return model.PullRequestReviewed{
			Source:   src,
			Entity:   m.entity(p),
			Reviewer: p.User.Username,
			State:    model.ReviewApproved,
		}
	case "update":
		if p.Changes.Labels == nil {
			return ignored(src, "merge_request update without label changes")
		}
		label, action, ok := diffLabels(
			gitlabLabelTitles(p.Changes.Labels.Previous),
			gitlabLabelTitles(p.Changes.Labels.Current),
		)
		if !ok {
			return ignored(src, "merge_request label set unchanged")
		}
		return model.PullRequestLabelChanged{
			Source: src,
			Entity: m.entity(p),
			Label:  label,
			Action: action,
		}
	}

	return ignored(src, "merge_request action %q", attrs.Action)
}

func (m *GitLabEventMapper) mapIssue(src model.Source, p *gitlabPayload) model.Event {
	switch p.ObjectAttributes.Action {
	case "open":
		return model.IssueOpened{
			Source:      src,
			Entity:      m.entity(p),
			Author:      p.User.Username,
			Description: p.ObjectAttributes.Description,
			Labels:      gitlabLabelTitles(p.Labels),
		}
	case "close":
		return model.IssueClosed{
			Source:   src,
			Entity:   m.entity(p),
			ClosedBy: p.User.Username,
		}
	}

	return ignored(src, "issue action %q", p.ObjectAttributes.Action)
}

func (m *GitLabEventMapper) mapNote(src model.Source, p *gitlabPayload) model.Event {
	var (
		target        *gitlabNoteable
		onPullRequest bool
	)
	switch p.ObjectAttributes.NoteableType {
	case "MergeRequest":
		target, onPullRequest = p.MergeRequest, true
	case "Issue":
		target = p.Issue
	}
	if target == nil {
		return ignored(src, "note on %q", p.ObjectAttributes.NoteableType)
	}

	mentions := extractMentions(gitlabMentionPattern, p.ObjectAttributes.Note, ".-")
	if len(mentions) == 0 {
		return ignored(src, "comment without mentions")
	}

	url := p.ObjectAttributes.URL
	if url == "" {
		url = target.URL
	}

	return model.Comment{
		Source:        src,
		Entity:        model.Entity{Number: target.IID, Title: target.Title, URL: url},
		Author:        p.User.Username,
		Body:          p.ObjectAttributes.Note,
		Mentions:      mentions,
		OnPullRequest: onPullRequest,
	}
}

func gitlabLabelTitles(labels []gitlabLabel) []string {
	titles := make([]string, 0, len(labels))
	for _, l := range labels {
		if l.Title != "" {
			titles = append(titles, l.Title)
		}
	}
	return titles
}
