package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Aldiwildan77/repo-pulse-sub000/common/logger"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/push"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/routing"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/store"
)

// Reconciler marks previously sent opening notifications when their pull
// request is closed or reviewed.
type Reconciler struct {
	stores   StoreProvider
	router   *routing.Router
	pushers  *push.Registry
	recorder routing.Recorder
}

func NewReconciler(stores StoreProvider, router *routing.Router, pushers *push.Registry, recorder routing.Recorder) *Reconciler {
	return &Reconciler{
		stores:   stores,
		router:   router,
		pushers:  pushers,
		recorder: recorder,
	}
}

// outcome is what a lifecycle event does to a tracked message. An empty
// status means the message keeps its lifecycle status.
type outcome struct {
	reaction push.Reaction
	status   model.MessageStatus
	review   *model.PullRequestReviewed
	label    string
}

func outcomeOf(ev model.Event) (model.Entity, outcome, bool) {
	switch e := ev.(type) {
	case model.PullRequestClosed:
		if e.Merged {
			return e.Entity, outcome{reaction: push.ReactionMerged, status: model.MessageStatusMerged, label: "merged"}, true
		}
		return e.Entity, outcome{reaction: push.ReactionClosed, status: model.MessageStatusClosed, label: "closed"}, true
	case model.PullRequestReviewed:
		o := outcome{review: &e, label: string(e.State)}
		switch e.State {
		case model.ReviewApproved:
			o.reaction = push.ReactionApproved
		case model.ReviewChangesRequested:
			o.reaction = push.ReactionChangesRequested
		default:
			o.reaction = push.ReactionCommented
		}
		return e.Entity, o, true
	}
	return model.Entity{}, outcome{}, false
}

func (r *Reconciler) Reconcile(ctx context.Context, ev model.Event, deliveryID string) error {
	entity, out, ok := outcomeOf(ev)
	if !ok {
		return fmt.Errorf("%s does not trigger reconciliation", ev.Kind())
	}

	src := ev.Origin()
	messages, err := r.stores.TrackedMessages().ListByEntity(ctx, src.RepoKey, entity.EntityID())
	if err != nil {
		return fmt.Errorf("listing tracked messages: %w", err)
	}
	if len(messages) == 0 {
		slog.WarnContext(ctx, "no tracked messages to reconcile",
			"repo_key", src.RepoKey,
			"entity_id", entity.EntityID())
		return nil
	}

	for _, msg := range messages {
		mctx := logger.WithLogFields(ctx, logger.LogFields{
			Platform: logger.Ptr(msg.Platform.String()),
			TargetID: msg.TargetID,
		})
		r.reconcileOne(mctx, ev, entity, out, msg, deliveryID)
	}
	return nil
}

func (r *Reconciler) reconcileOne(ctx context.Context, ev model.Event, entity model.Entity, out outcome, msg model.TrackedMessage, deliveryID string) {
	target, err := r.resolveTarget(ctx, msg)
	if err != nil {
		slog.WarnContext(ctx, "tracked message has no resolvable target", "error", err, "tracked_message_id", msg.ID)
		r.record(ctx, ev, msg, nil, deliveryID, model.LogStatusSkipped,
			fmt.Sprintf("tracked message %d skipped: %v", msg.ID, err), nil)
		return
	}

	if !r.router.Allows(ctx, *target, ev, deliveryID) {
		return
	}

	if out.status != "" && msg.Status == out.status {
		slog.InfoContext(ctx, "tracked message already reconciled", "tracked_message_id", msg.ID, "status", msg.Status)
		r.record(ctx, ev, msg, target, deliveryID, model.LogStatusSkipped,
			fmt.Sprintf("#%s already marked %s on %s:%s", msg.EntityID, msg.Status, msg.Platform, msg.ChannelID), nil)
		return
	}

	pusher, err := r.pushers.Get(msg.Platform)
	if err != nil {
		slog.ErrorContext(ctx, "no client registered for tracked message platform", "error", err)
		r.record(ctx, ev, msg, target, deliveryID, model.LogStatusFailed,
			fmt.Sprintf("platform %s is not configured", msg.Platform), err)
		return
	}

	if err := pusher.AddReaction(ctx, msg.ChannelID, msg.MessageID, out.reaction); err != nil {
		slog.ErrorContext(ctx, "adding reaction failed", "error", err, "message_id", msg.MessageID)
		r.record(ctx, ev, msg, target, deliveryID, model.LogStatusFailed,
			fmt.Sprintf("marking #%s %s on %s:%s failed", msg.EntityID, out.label, msg.Platform, msg.ChannelID), err)
		return
	}

	var errs []error
	if err := pusher.RemoveInteractiveControls(ctx, msg.ChannelID, msg.MessageID); err != nil {
		slog.WarnContext(ctx, "removing interactive controls failed", "error", err, "message_id", msg.MessageID)
		errs = append(errs, fmt.Errorf("removing controls: %w", err))
	}

	if out.status != "" {
		if err := r.stores.TrackedMessages().UpdateStatus(ctx, msg.ID, out.status); err != nil {
			slog.ErrorContext(ctx, "persisting tracked message status failed", "error", err, "tracked_message_id", msg.ID)
			errs = append(errs, fmt.Errorf("persisting status: %w", err))
		}
	}

	if out.review != nil {
		if err := pusher.SendReviewNotification(ctx, msg.ChannelID, push.ReviewPayload{
			Subject:  subjectOf(out.review.Source, entity),
			Reviewer: out.review.Reviewer,
			State:    out.review.State,
			Body:     out.review.Body,
		}); err != nil {
			slog.ErrorContext(ctx, "review notification failed", "error", err)
			errs = append(errs, fmt.Errorf("review notification: %w", err))
		}
	}

	summary := fmt.Sprintf("#%s marked %s on %s:%s", msg.EntityID, out.label, msg.Platform, msg.ChannelID)
	if len(errs) > 0 {
		r.record(ctx, ev, msg, target, deliveryID, model.LogStatusFailed, summary+" with errors", errors.Join(errs...))
		return
	}
	slog.InfoContext(ctx, "tracked message reconciled", "tracked_message_id", msg.ID, "outcome", out.label)
	r.record(ctx, ev, msg, target, deliveryID, model.LogStatusSent, summary, nil)
}

// resolveTarget finds the active target a tracked message was sent for.
// Rows without a target id fall back to the repository's only active target on
// the same platform; an ambiguous or empty match is an error.
func (r *Reconciler) resolveTarget(ctx context.Context, msg model.TrackedMessage) (*model.NotificationTarget, error) {
	if msg.TargetID != nil {
		target, err := r.stores.Targets().GetByID(ctx, *msg.TargetID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("target %d no longer exists", *msg.TargetID)
			}
			return nil, fmt.Errorf("loading target %d: %w", *msg.TargetID, err)
		}
		if !target.IsActive {
			return nil, fmt.Errorf("target %d is inactive", target.ID)
		}
		return target, nil
	}

	targets, err := r.stores.Targets().ListActiveByRepo(ctx, msg.RepoKey)
	if err != nil {
		return nil, fmt.Errorf("listing targets: %w", err)
	}

	var match *model.NotificationTarget
	for i := range targets {
		if !targets[i].IsActive || targets[i].Platform != msg.Platform {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("several active %s targets for %s", msg.Platform, msg.RepoKey)
		}
		match = &targets[i]
	}
	if match == nil {
		return nil, fmt.Errorf("no active %s target for %s", msg.Platform, msg.RepoKey)
	}
	return match, nil
}

func (r *Reconciler) record(ctx context.Context, ev model.Event, msg model.TrackedMessage, target *model.NotificationTarget, deliveryID string, status model.LogStatus, summary string, err error) {
	entry := model.ProcessingLogEntry{
		TargetID:   msg.TargetID,
		Platform:   logger.Ptr(msg.Platform),
		Provider:   ev.Origin().Provider,
		RepoKey:    ev.Origin().RepoKey,
		DeliveryID: deliveryID,
		EventType:  ev.Kind(),
		Status:     status,
		Summary:    summary,
	}
	if target != nil {
		entry.TargetID = logger.Ptr(target.ID)
	}
	if err != nil {
		entry.ErrorMessage = logger.Ptr(err.Error())
	}
	r.recorder.Record(ctx, entry)
}
