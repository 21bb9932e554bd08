package push

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
)

const (
	discordColorOpened  = 0x2ea043
	discordColorIssue   = 0x1f6feb
	discordColorLabel   = 0x8250df
	discordColorClosed  = 0xcf222e
	discordColorReview  = 0xbf8700
	discordColorMention = 0x57606a

	discordDescriptionLimit = 1024
	discordGuildPageSize    = 200
)

var discordReactions = map[Reaction]string{
	ReactionMerged:           "✅",
	ReactionApproved:         "✅",
	ReactionClosed:           "❌",
	ReactionChangesRequested: "❌",
	ReactionCommented:        "👍",
}

// discordSession is the subset of *discordgo.Session used here.
type discordSession interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	UserGuilds(limit int, beforeID, afterID string, withCounts bool, options ...discordgo.RequestOption) ([]*discordgo.UserGuild, error)
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
}

type Discord struct {
	session discordSession
}

// NewDiscord creates a REST-only bot session. No gateway connection is opened.
func NewDiscord(token string, timeout time.Duration) (*Discord, error) {
	session, err := discordgo.New("Bot " + strings.TrimPrefix(token, "Bot "))
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	session.Client = &http.Client{Timeout: timeout}
	return &Discord{session: session}, nil
}

func newDiscordWithSession(session discordSession) *Discord {
	return &Discord{session: session}
}

func (d *Discord) Platform() model.Platform { return model.PlatformDiscord }

func (d *Discord) SendOpeningNotification(ctx context.Context, channelID string, p OpeningPayload) (string, error) {
	color := discordColorOpened
	if p.IsIssue {
		color = discordColorIssue
	}

	embed := d.embed(p.Subject, color)
	embed.Description = truncate(p.Description, discordDescriptionLimit)
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Author", Value: orDash(p.Author), Inline: true})
	if len(p.Labels) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Labels", Value: strings.Join(p.Labels, ", "), Inline: true})
	}
	if p.Draft {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Draft", Value: "yes", Inline: true})
	}

	msg, err := d.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:    fmt.Sprintf("New %s opened in **%s**", entityNoun(p.IsIssue), p.RepoName),
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: d.linkButton("View "+entityNoun(p.IsIssue), p.URL),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("discord send opening: %w", err)
	}
	return msg.ID, nil
}

func (d *Discord) SendMentionNotification(ctx context.Context, platformUserID string, p MentionPayload) error {
	dm, err := d.session.UserChannelCreate(platformUserID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord open dm: %w", err)
	}

	embed := d.embed(p.Subject, discordColorMention)
	embed.Description = truncate(p.Body, discordDescriptionLimit)

	_, err = d.session.ChannelMessageSendComplex(dm.ID, &discordgo.MessageSend{
		Content:    fmt.Sprintf("**%s** mentioned you on %s", p.Author, entityNoun(!p.OnPullRequest)),
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: d.linkButton("Open comment", p.URL),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord send mention: %w", err)
	}
	return nil
}

func (d *Discord) SendLabelNotification(ctx context.Context, channelID string, p LabelPayload) error {
	verb := "added to"
	if p.Action == model.LabelRemoved {
		verb = "removed from"
	}
	embed := d.embed(p.Subject, discordColorLabel)
	embed.Description = fmt.Sprintf("Label `%s` %s pull request", p.Label, verb)
	if p.Actor != "" {
		embed.Description += " by " + p.Actor
	}
	return d.post(ctx, channelID, embed, "label")
}

func (d *Discord) SendIssueStatusNotification(ctx context.Context, channelID string, p IssueStatusPayload) error {
	embed := d.embed(p.Subject, discordColorClosed)
	embed.Description = fmt.Sprintf("Issue %s", p.Status)
	if p.Actor != "" {
		embed.Description += " by " + p.Actor
	}
	return d.post(ctx, channelID, embed, "issue status")
}

func (d *Discord) SendReviewNotification(ctx context.Context, channelID string, p ReviewPayload) error {
	embed := d.embed(p.Subject, discordColorReview)
	embed.Description = fmt.Sprintf("%s %s this pull request", p.Reviewer, reviewVerb(p.State))
	if body := truncate(p.Body, discordDescriptionLimit); body != "" {
		embed.Description += "\n\n" + body
	}
	return d.post(ctx, channelID, embed, "review")
}

func (d *Discord) AddReaction(ctx context.Context, channelID, messageID string, r Reaction) error {
	emoji, ok := discordReactions[r]
	if !ok {
		return fmt.Errorf("discord: no emoji for reaction %q", r)
	}
	if err := d.session.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord add reaction: %w", err)
	}
	return nil
}

func (d *Discord) RemoveInteractiveControls(ctx context.Context, channelID, messageID string) error {
	edit := discordgo.NewMessageEdit(channelID, messageID)
	empty := []discordgo.MessageComponent{}
	edit.Components = &empty

	if _, err := d.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord remove components: %w", err)
	}
	return nil
}

func (d *Discord) ListGuilds(ctx context.Context) ([]Guild, error) {
	var (
		guilds []Guild
		after  string
	)
	for {
		page, err := d.session.UserGuilds(discordGuildPageSize, "", after, false, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("discord list guilds: %w", err)
		}
		for _, g := range page {
			guilds = append(guilds, Guild{ID: g.ID, Name: g.Name})
		}
		if len(page) < discordGuildPageSize {
			return guilds, nil
		}
		after = page[len(page)-1].ID
	}
}

// ListChannels returns the text channels of the guild scopeID.
func (d *Discord) ListChannels(ctx context.Context, scopeID string) ([]Channel, error) {
	if scopeID == "" {
		return nil, ErrScopeRequired
	}
	all, err := d.session.GuildChannels(scopeID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("discord list channels: %w", err)
	}

	channels := make([]Channel, 0, len(all))
	for _, c := range all {
		if c.Type == discordgo.ChannelTypeGuildText {
			channels = append(channels, Channel{ID: c.ID, Name: c.Name})
		}
	}
	return channels, nil
}

func (d *Discord) post(ctx context.Context, channelID string, embed *discordgo.MessageEmbed, kind string) error {
	_, err := d.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord send %s: %w", kind, err)
	}
	return nil
}

func (d *Discord) embed(s Subject, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		URL:       s.URL,
		Title:     truncate(s.Heading(), 256),
		Color:     color,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Author:    &discordgo.MessageEmbedAuthor{Name: s.RepoName, URL: s.RepoURL},
		Footer:    &discordgo.MessageEmbedFooter{Text: string(s.Provider)},
	}
}

func (d *Discord) linkButton(label, url string) []discordgo.MessageComponent {
	if url == "" {
		return nil
	}
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: label, Style: discordgo.LinkButton, URL: url},
		}},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
