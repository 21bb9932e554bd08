package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Aldiwildan77/repo-pulse-sub000/common/id"
	"github.com/Aldiwildan77/repo-pulse-sub000/common/logger"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/push"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/routing"
)

// Dispatcher sends new notifications for routed events. Each target is
// handled independently; a failed send is recorded and the loop continues.
type Dispatcher struct {
	stores   StoreProvider
	router   *routing.Router
	pushers  *push.Registry
	recorder routing.Recorder
}

func NewDispatcher(stores StoreProvider, router *routing.Router, pushers *push.Registry, recorder routing.Recorder) *Dispatcher {
	return &Dispatcher{
		stores:   stores,
		router:   router,
		pushers:  pushers,
		recorder: recorder,
	}
}

// mentionTracker remembers which platform users were already messaged for
// the current delivery.
type mentionTracker map[string]struct{}

func (m mentionTracker) claim(platform model.Platform, userID string) bool {
	key := string(platform) + ":" + userID
	if _, seen := m[key]; seen {
		return false
	}
	m[key] = struct{}{}
	return true
}

func (d *Dispatcher) Dispatch(ctx context.Context, ev model.Event, deliveryID string) error {
	targets, err := d.router.Route(ctx, ev, deliveryID)
	if err != nil {
		return fmt.Errorf("routing %s: %w", ev.Kind(), err)
	}

	mentioned := mentionTracker{}
	for _, target := range targets {
		tctx := logger.WithLogFields(ctx, logger.LogFields{
			TargetID: logger.Ptr(target.ID),
			Platform: logger.Ptr(target.Platform.String()),
		})

		pusher, err := d.pushers.Get(target.Platform)
		if err != nil {
			slog.ErrorContext(tctx, "no client registered for target platform", "error", err)
			d.record(tctx, target, ev, deliveryID, model.LogStatusFailed,
				fmt.Sprintf("platform %s is not configured", target.Platform), err)
			continue
		}

		status, summary, err := d.dispatchOne(tctx, pusher, target, ev, mentioned)
		if err != nil {
			slog.ErrorContext(tctx, "notification failed", "error", err, "event_kind", ev.Kind())
		} else {
			slog.InfoContext(tctx, "notification handled", "status", status, "event_kind", ev.Kind())
		}
		d.record(tctx, target, ev, deliveryID, status, summary, err)
	}
	return nil
}

func (d *Dispatcher) dispatchOne(ctx context.Context, pusher push.Pusher, target model.NotificationTarget, ev model.Event, mentioned mentionTracker) (model.LogStatus, string, error) {
	dest := fmt.Sprintf("%s:%s", target.Platform, target.ChannelID)

	switch e := ev.(type) {
	case model.PullRequestOpened:
		messageID, err := pusher.SendOpeningNotification(ctx, target.ChannelID, push.OpeningPayload{
			Subject:     subjectOf(e.Source, e.Entity),
			Author:      e.Author,
			Description: e.Description,
			Labels:      e.Labels,
			Draft:       e.Draft,
		})
		if err != nil {
			return model.LogStatusFailed, fmt.Sprintf("pull request #%d opening notification to %s failed", e.Number, dest), err
		}
		d.track(ctx, target, e, messageID)
		return model.LogStatusSent, fmt.Sprintf("pull request #%d opening notification sent to %s", e.Number, dest), nil

	case model.IssueOpened:
		if _, err := pusher.SendOpeningNotification(ctx, target.ChannelID, push.OpeningPayload{
			Subject:     subjectOf(e.Source, e.Entity),
			Author:      e.Author,
			Description: e.Description,
			Labels:      e.Labels,
			IsIssue:     true,
		}); err != nil {
			return model.LogStatusFailed, fmt.Sprintf("issue #%d opening notification to %s failed", e.Number, dest), err
		}
		return model.LogStatusSent, fmt.Sprintf("issue #%d opening notification sent to %s", e.Number, dest), nil

	case model.PullRequestLabelChanged:
		if err := pusher.SendLabelNotification(ctx, target.ChannelID, push.LabelPayload{
			Subject: subjectOf(e.Source, e.Entity),
			Label:   e.Label,
			Action:  e.Action,
			Actor:   e.Sender,
		}); err != nil {
			return model.LogStatusFailed, fmt.Sprintf("label %q %s on #%d to %s failed", e.Label, e.Action, e.Number, dest), err
		}
		return model.LogStatusSent, fmt.Sprintf("label %q %s on #%d sent to %s", e.Label, e.Action, e.Number, dest), nil

	case model.IssueClosed:
		if err := pusher.SendIssueStatusNotification(ctx, target.ChannelID, push.IssueStatusPayload{
			Subject: subjectOf(e.Source, e.Entity),
			Status:  string(model.MessageStatusClosed),
			Actor:   e.ClosedBy,
		}); err != nil {
			return model.LogStatusFailed, fmt.Sprintf("issue #%d closed notification to %s failed", e.Number, dest), err
		}
		return model.LogStatusSent, fmt.Sprintf("issue #%d closed notification sent to %s", e.Number, dest), nil

	case model.Comment:
		return d.sendMentions(ctx, pusher, target, e, mentioned)
	}

	return model.LogStatusSkipped, fmt.Sprintf("%s is not dispatched as a notification", ev.Kind()), nil
}

// sendMentions messages every linked user on the target's platform. Users
// already messaged through another target of the same platform are skipped.
func (d *Dispatcher) sendMentions(ctx context.Context, pusher push.Pusher, target model.NotificationTarget, c model.Comment, mentioned mentionTracker) (model.LogStatus, string, error) {
	links, err := d.stores.UserLinks().ListByUsernames(ctx, c.Provider, target.Platform, c.Mentions)
	if err != nil {
		return model.LogStatusFailed, fmt.Sprintf("resolving mentions on #%d failed", c.Number), err
	}
	if len(links) == 0 {
		return model.LogStatusSkipped, fmt.Sprintf("no %s users linked for mentions %s on #%d",
			target.Platform, strings.Join(c.Mentions, ", "), c.Number), nil
	}

	payload := push.MentionPayload{
		Subject:       subjectOf(c.Source, c.Entity),
		Author:        c.Author,
		Body:          c.Body,
		OnPullRequest: c.OnPullRequest,
	}

	var (
		sent []string
		errs []error
	)
	for _, link := range links {
		if !mentioned.claim(link.Platform, link.PlatformUserID) {
			continue
		}
		if err := pusher.SendMentionNotification(ctx, link.PlatformUserID, payload); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", link.Username, err))
			continue
		}
		sent = append(sent, link.Username)
	}

	switch {
	case len(errs) > 0:
		return model.LogStatusFailed, fmt.Sprintf("mention on #%d delivered to %d of %d users", c.Number, len(sent), len(sent)+len(errs)), errors.Join(errs...)
	case len(sent) == 0:
		return model.LogStatusSkipped, fmt.Sprintf("mentions on #%d already delivered on %s", c.Number, target.Platform), nil
	default:
		return model.LogStatusSent, fmt.Sprintf("mention on #%d sent to %s", c.Number, strings.Join(sent, ", ")), nil
	}
}

func (d *Dispatcher) track(ctx context.Context, target model.NotificationTarget, e model.PullRequestOpened, messageID string) {
	_, err := d.stores.TrackedMessages().Create(ctx, &model.TrackedMessage{
		ID:        id.New(),
		TargetID:  logger.Ptr(target.ID),
		Provider:  e.Provider,
		RepoKey:   e.RepoKey,
		EntityID:  e.EntityID(),
		Platform:  target.Platform,
		ChannelID: target.ChannelID,
		MessageID: messageID,
		Status:    model.MessageStatusOpen,
	})
	if err != nil {
		// The notification went out; only later reconciliation is lost.
		slog.ErrorContext(ctx, "failed to track opening notification",
			"error", err,
			"message_id", messageID)
	}
}

func (d *Dispatcher) record(ctx context.Context, target model.NotificationTarget, ev model.Event, deliveryID string, status model.LogStatus, summary string, err error) {
	entry := model.ProcessingLogEntry{
		TargetID:   logger.Ptr(target.ID),
		Platform:   logger.Ptr(target.Platform),
		Provider:   ev.Origin().Provider,
		RepoKey:    ev.Origin().RepoKey,
		DeliveryID: deliveryID,
		EventType:  ev.Kind(),
		Status:     status,
		Summary:    summary,
	}
	if err != nil {
		entry.ErrorMessage = logger.Ptr(err.Error())
	}
	d.recorder.Record(ctx, entry)
}

func subjectOf(src model.Source, entity model.Entity) push.Subject {
	return push.Subject{
		Provider: src.Provider,
		RepoName: src.RepoName,
		RepoURL:  src.RepoURL,
		Number:   entity.Number,
		Title:    entity.Title,
		URL:      entity.URL,
	}
}
