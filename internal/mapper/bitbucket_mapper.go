package mapper

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"

	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
)

// Bitbucket Cloud stores mentions as @{account_id}; account ids may contain
// colons ("557058:<uuid>"). Plain @nickname mentions are matched too.
var bitbucketMentionPattern = regexp.MustCompile(`(?:^|[^\w@/])@(?:\{([^{}\s]+)\}|([A-Za-z0-9_\-]+))`)

const bitbucketEventHeader = "X-Event-Key"

var bitbucketClosedIssueStates = map[string]struct{}{
	"resolved":  {},
	"closed":    {},
	"invalid":   {},
	"duplicate": {},
	"wontfix":   {},
}

type BitbucketEventMapper struct{}

func NewBitbucketEventMapper() *BitbucketEventMapper {
	return &BitbucketEventMapper{}
}

type bitbucketLink struct {
	HTML struct {
		Href string `json:"href"`
	} `json:"html"`
}

type bitbucketUser struct {
	Nickname    string `json:"nickname"`
	DisplayName string `json:"display_name"`
}

func (u bitbucketUser) handle() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.DisplayName
}

type bitbucketPayload struct {
	Actor      bitbucketUser `json:"actor"`
	Repository struct {
		FullName string        `json:"full_name"`
		Links    bitbucketLink `json:"links"`
	} `json:"repository"`
	PullRequest *struct {
		ID          int64         `json:"id"`
		Title       string        `json:"title"`
		Description string        `json:"description"`
		Author      bitbucketUser `json:"author"`
		Links       bitbucketLink `json:"links"`
	} `json:"pullrequest"`
	Issue *struct {
		ID      int64  `json:"id"`
		Title   string `json:"title"`
		Content struct {
			Raw string `json:"raw"`
		} `json:"content"`
		Reporter bitbucketUser `json:"reporter"`
		Links    bitbucketLink `json:"links"`
	} `json:"issue"`
	Comment *struct {
		Content struct {
			Raw string `json:"raw"`
		} `json:"content"`
		User  bitbucketUser `json:"user"`
		Links bitbucketLink `json:"links"`
	} `json:"comment"`
	Changes struct {
		Status *struct {
			Old string `json:"old"`
			New string `json:"new"`
		} `json:"status"`
	} `json:"changes"`
}

func (m *BitbucketEventMapper) Map(headers http.Header, body []byte) (model.Event, error) {
	var p bitbucketPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("parsing bitbucket payload: %w", err)
	}

	src := model.Source{
		Provider: model.ProviderBitbucket,
		RepoKey:  model.RepoKey(model.ProviderBitbucket, p.Repository.FullName),
		RepoName: p.Repository.FullName,
		RepoURL:  p.Repository.Links.HTML.Href,
		Sender:   p.Actor.handle(),
	}

	eventKey := headers.Get(bitbucketEventHeader)
	switch eventKey {
	case "pullrequest:created", "pullrequest:fulfilled", "pullrequest:rejected",
		"pullrequest:approved", "pullrequest:changes_request_created", "pullrequest:comment_created":
		if p.PullRequest == nil {
			return ignored(src, "%s without pullrequest", eventKey), nil
		}
		return m.mapPullRequest(eventKey, src, &p), nil
	case "issue:created", "issue:updated", "issue:comment_created":
		if p.Issue == nil {
			return ignored(src, "%s without issue", eventKey), nil
		}
		return m.mapIssue(eventKey, src, &p), nil
	}

	return ignored(src, "unsupported bitbucket event %q", eventKey), nil
}

func (m *BitbucketEventMapper) mapPullRequest(eventKey string, src model.Source, p *bitbucketPayload) model.Event {
	pr := p.PullRequest
	entity := model.Entity{Number: pr.ID, Title: pr.Title, URL: pr.Links.HTML.Href}

	switch eventKey {
	case "pullrequest:created":
		return model.PullRequestOpened{
			Source:      src,
			Entity:      entity,
			Author:      pr.Author.handle(),
			Description: pr.Description,
		}
	case "pullrequest:fulfilled", "pullrequest:rejected":
		return model.PullRequestClosed{
			Source:   src,
			Entity:   entity,
			Merged:   eventKey == "pullrequest:fulfilled",
			ClosedBy: p.Actor.handle(),
		}
	case "pullrequest:approved":
		return model.PullRequestReviewed{Source: src, Entity: entity, Reviewer: p.Actor.handle(), State: model.ReviewApproved}
	case "pullrequest:changes_request_created":
		return model.PullRequestReviewed{Source: src, Entity: entity, Reviewer: p.Actor.handle(), State: model.ReviewChangesRequested}
	default:
		return m.comment(src, entity, p, true)
	}
}

func (m *BitbucketEventMapper) mapIssue(eventKey string, src model.Source, p *bitbucketPayload) model.Event {
	issue := p.Issue
	entity := model.Entity{Number: issue.ID, Title: issue.Title, URL: issue.Links.HTML.Href}

	switch eventKey {
	case "issue:created":
		return model.IssueOpened{
			Source:      src,
			Entity:      entity,
			Author:      issue.Reporter.handle(),
			Description: issue.Content.Raw,
		}
	case "issue:updated":
		status := p.Changes.Status
		if status == nil {
			return ignored(src, "issue update without status change")
		}
		if _, closed := bitbucketClosedIssueStates[status.New]; !closed {
			return ignored(src, "issue status %q", status.New)
		}
		return model.IssueClosed{Source: src, Entity: entity, ClosedBy: p.Actor.handle()}
	default:
		return m.comment(src, entity, p, false)
	}
}

func (m *BitbucketEventMapper) comment(src model.Source, entity model.Entity, p *bitbucketPayload, onPullRequest bool) model.Event {
	if p.Comment == nil {
		return ignored(src, "comment event without comment")
	}

	body := p.Comment.Content.Raw
	mentions := extractMentions(bitbucketMentionPattern, body, "-")
	if len(mentions) == 0 {
		return ignored(src, "comment without mentions")
	}

	if url := p.Comment.Links.HTML.Href; url != "" {
		entity.URL = url
	}

	return model.Comment{
		Source:        src,
		Entity:        entity,
		Author:        p.Comment.User.handle(),
		Body:          body,
		Mentions:      mentions,
		OnPullRequest: onPullRequest,
	}
}
