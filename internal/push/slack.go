package push

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
)

const (
	slackTextLimit       = 2900
	slackChannelPageSize = 200
	slackOpenActionID    = "open_entity"
)

var slackReactions = map[Reaction]string{
	ReactionMerged:           "white_check_mark",
	ReactionApproved:         "white_check_mark",
	ReactionClosed:           "x",
	ReactionChangesRequested: "x",
	ReactionCommented:        "+1",
}

// slackClient is the subset of *slack.Client used here.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	UpdateMessageContext(ctx context.Context, channelID, timestamp string, options ...slack.MsgOption) (string, string, string, error)
	AddReactionContext(ctx context.Context, name string, item slack.ItemRef) error
	GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error)
	OpenConversationContext(ctx context.Context, params *slack.OpenConversationParameters) (*slack.Channel, bool, bool, error)
	GetConversationsContext(ctx context.Context, params *slack.GetConversationsParameters) ([]slack.Channel, string, error)
	GetTeamInfoContext(ctx context.Context) (*slack.TeamInfo, error)
}

type Slack struct {
	client slackClient
}

func NewSlack(token string, timeout time.Duration) *Slack {
	return &Slack{client: slack.New(token, slack.OptionHTTPClient(&http.Client{Timeout: timeout}))}
}

func newSlackWithClient(client slackClient) *Slack {
	return &Slack{client: client}
}

func (s *Slack) Platform() model.Platform { return model.PlatformSlack }

func (s *Slack) SendOpeningNotification(ctx context.Context, channelID string, p OpeningPayload) (string, error) {
	noun := entityNoun(p.IsIssue)
	summary := fmt.Sprintf("New %s opened in %s: %s", noun, p.RepoName, p.Heading())

	fields := []*slack.TextBlockObject{
		mrkdwn("*Author*\n" + orDash(p.Author)),
	}
	if len(p.Labels) > 0 {
		fields = append(fields, mrkdwn("*Labels*\n"+strings.Join(p.Labels, ", ")))
	}
	if p.Draft {
		fields = append(fields, mrkdwn("*Draft*\nyes"))
	}

	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, truncate(p.Heading(), 150), false, false)),
		slack.NewContextBlock("", mrkdwn(fmt.Sprintf("New %s in %s", noun, repoLink(p.Subject)))),
		slack.NewSectionBlock(nil, fields, nil),
	}
	if desc := truncate(p.Description, slackTextLimit); desc != "" {
		blocks = append(blocks, slack.NewSectionBlock(mrkdwn(desc), nil, nil))
	}
	if p.URL != "" {
		button := slack.NewButtonBlockElement(slackOpenActionID, p.URL,
			slack.NewTextBlockObject(slack.PlainTextType, "View "+noun, false, false)).
			WithURL(p.URL).
			WithStyle(slack.StylePrimary)
		blocks = append(blocks, slack.NewActionBlock("", button))
	}

	_, ts, err := s.client.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(summary, false),
		slack.MsgOptionBlocks(blocks...),
	)
	if err != nil {
		return "", fmt.Errorf("slack send opening: %w", err)
	}
	return ts, nil
}

func (s *Slack) SendMentionNotification(ctx context.Context, platformUserID string, p MentionPayload) error {
	dm, _, _, err := s.client.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users: []string{platformUserID},
	})
	if err != nil {
		return fmt.Errorf("slack open dm: %w", err)
	}

	summary := fmt.Sprintf("%s mentioned you on %s %s", p.Author, entityNoun(!p.OnPullRequest), p.Heading())
	blocks := []slack.Block{
		slack.NewSectionBlock(mrkdwn(fmt.Sprintf("*%s* mentioned you on %s", p.Author, subjectLink(p.Subject))), nil, nil),
	}
	if body := truncate(p.Body, slackTextLimit); body != "" {
		blocks = append(blocks, slack.NewSectionBlock(mrkdwn(quote(body)), nil, nil))
	}
	blocks = append(blocks, slack.NewContextBlock("", mrkdwn(repoLink(p.Subject))))

	if _, _, err := s.client.PostMessageContext(ctx, dm.ID,
		slack.MsgOptionText(summary, false),
		slack.MsgOptionBlocks(blocks...),
	); err != nil {
		return fmt.Errorf("slack send mention: %w", err)
	}
	return nil
}

func (s *Slack) SendLabelNotification(ctx context.Context, channelID string, p LabelPayload) error {
	verb := "added to"
	if p.Action == model.LabelRemoved {
		verb = "removed from"
	}
	text := fmt.Sprintf("Label `%s` %s %s", p.Label, verb, subjectLink(p.Subject))
	if p.Actor != "" {
		text += " by " + p.Actor
	}
	return s.postSimple(ctx, channelID, text, p.Subject, "label")
}

func (s *Slack) SendIssueStatusNotification(ctx context.Context, channelID string, p IssueStatusPayload) error {
	text := fmt.Sprintf("Issue %s %s", subjectLink(p.Subject), p.Status)
	if p.Actor != "" {
		text += " by " + p.Actor
	}
	return s.postSimple(ctx, channelID, text, p.Subject, "issue status")
}

func (s *Slack) SendReviewNotification(ctx context.Context, channelID string, p ReviewPayload) error {
	text := fmt.Sprintf("*%s* %s %s", p.Reviewer, reviewVerb(p.State), subjectLink(p.Subject))
	if body := truncate(p.Body, slackTextLimit); body != "" {
		text += "\n" + quote(body)
	}
	return s.postSimple(ctx, channelID, text, p.Subject, "review")
}

func (s *Slack) AddReaction(ctx context.Context, channelID, messageID string, r Reaction) error {
	name, ok := slackReactions[r]
	if !ok {
		return fmt.Errorf("slack: no emoji for reaction %q", r)
	}
	err := s.client.AddReactionContext(ctx, name, slack.NewRefToMessage(channelID, messageID))
	if err != nil && !isSlackError(err, "already_reacted") {
		return fmt.Errorf("slack add reaction: %w", err)
	}
	return nil
}

// RemoveInteractiveControls rewrites the message without its action blocks.
func (s *Slack) RemoveInteractiveControls(ctx context.Context, channelID, messageID string) error {
	history, err := s.client.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Latest:    messageID,
		Inclusive: true,
		Limit:     1,
	})
	if err != nil {
		return fmt.Errorf("slack fetch message: %w", err)
	}

	var original *slack.Message
	for i := range history.Messages {
		if history.Messages[i].Timestamp == messageID {
			original = &history.Messages[i]
			break
		}
	}
	if original == nil {
		return fmt.Errorf("slack message %s not found in %s", messageID, channelID)
	}

	kept := make([]slack.Block, 0, len(original.Blocks.BlockSet))
	removed := false
	for _, b := range original.Blocks.BlockSet {
		if b.BlockType() == slack.MBTAction {
			removed = true
			continue
		}
		kept = append(kept, b)
	}
	if !removed {
		return nil
	}

	if _, _, _, err := s.client.UpdateMessageContext(ctx, channelID, messageID,
		slack.MsgOptionText(original.Text, false),
		slack.MsgOptionBlocks(kept...),
	); err != nil {
		return fmt.Errorf("slack update message: %w", err)
	}
	return nil
}

// ListGuilds returns the single workspace the bot token belongs to.
func (s *Slack) ListGuilds(ctx context.Context) ([]Guild, error) {
	team, err := s.client.GetTeamInfoContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("slack team info: %w", err)
	}
	return []Guild{{ID: team.ID, Name: team.Name}}, nil
}

func (s *Slack) ListChannels(ctx context.Context, scopeID string) ([]Channel, error) {
	params := &slack.GetConversationsParameters{
		ExcludeArchived: true,
		Limit:           slackChannelPageSize,
		Types:           []string{"public_channel", "private_channel"},
		TeamID:          scopeID,
	}

	var channels []Channel
	for {
		page, next, err := s.client.GetConversationsContext(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("slack list channels: %w", err)
		}
		for _, c := range page {
			channels = append(channels, Channel{ID: c.ID, Name: c.Name})
		}
		if next == "" {
			return channels, nil
		}
		params.Cursor = next
	}
}

func (s *Slack) postSimple(ctx context.Context, channelID, text string, subject Subject, kind string) error {
	blocks := []slack.Block{
		slack.NewSectionBlock(mrkdwn(text), nil, nil),
		slack.NewContextBlock("", mrkdwn(repoLink(subject))),
	}
	if _, _, err := s.client.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionBlocks(blocks...),
	); err != nil {
		return fmt.Errorf("slack send %s: %w", kind, err)
	}
	return nil
}

func isSlackError(err error, code string) bool {
	var slackErr slack.SlackErrorResponse
	if errors.As(err, &slackErr) {
		return slackErr.Err == code
	}
	return err.Error() == code
}

func mrkdwn(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.MarkdownType, text, false, false)
}

func subjectLink(s Subject) string {
	if s.URL == "" {
		return s.Heading()
	}
	return fmt.Sprintf("<%s|%s>", s.URL, s.Heading())
}

func repoLink(s Subject) string {
	if s.RepoURL == "" {
		return s.RepoName
	}
	return fmt.Sprintf("<%s|%s>", s.RepoURL, s.RepoName)
}

func quote(text string) string {
	return "> " + strings.ReplaceAll(text, "\n", "\n> ")
}
