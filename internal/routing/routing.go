package routing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Aldiwildan77/repo-pulse-sub000/common/logger"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
	"github.com/Aldiwildan77/repo-pulse-sub000/internal/store"
)

// NotifyLabelPrefix marks pull request labels that request tagged targets.
const NotifyLabelPrefix = "notify:"

// Recorder receives routing decisions that end up in the processing log.
type Recorder interface {
	Record(ctx context.Context, entry model.ProcessingLogEntry)
}

type Router struct {
	targets  store.TargetStore
	toggles  store.ToggleStore
	recorder Recorder
}

func New(targets store.TargetStore, toggles store.ToggleStore, recorder Recorder) *Router {
	return &Router{targets: targets, toggles: toggles, recorder: recorder}
}

// Route returns the targets that should receive ev. Disabled targets are
// recorded as skipped and left out.
func (r *Router) Route(ctx context.Context, ev model.Event, deliveryID string) ([]model.NotificationTarget, error) {
	src := ev.Origin()
	candidates, err := r.targets.ListActiveByRepo(ctx, src.RepoKey)
	if err != nil {
		return nil, fmt.Errorf("listing targets for %s: %w", src.RepoKey, err)
	}

	if opened, ok := ev.(model.PullRequestOpened); ok {
		candidates = SelectForLabels(candidates, opened.Labels)
	} else {
		candidates = activeOnly(candidates)
	}

	routed := make([]model.NotificationTarget, 0, len(candidates))
	for _, target := range candidates {
		if r.Allows(ctx, target, ev, deliveryID) {
			routed = append(routed, target)
		}
	}

	if len(routed) == 0 {
		slog.WarnContext(ctx, "no qualifying notification targets",
			"repo_key", src.RepoKey,
			"event_kind", ev.Kind(),
			"candidates", len(candidates))
	}
	return routed, nil
}

// Allows checks the toggle of ev's kind on target. A missing toggle row
// counts as enabled. Lookup failures exclude the target and are recorded as
// failed.
func (r *Router) Allows(ctx context.Context, target model.NotificationTarget, ev model.Event, deliveryID string) bool {
	kind := ev.Kind()
	setting, err := r.toggles.Get(ctx, target.ID, kind)
	if err != nil {
		slog.ErrorContext(ctx, "event toggle lookup failed",
			"target_id", target.ID,
			"event_kind", kind,
			"error", err)
		r.record(ctx, target, ev, deliveryID, model.LogStatusFailed,
			fmt.Sprintf("could not read %s toggle for %s", kind, describe(target)), logger.Ptr(err.Error()))
		return false
	}

	if setting.Enabled() {
		return true
	}

	slog.DebugContext(ctx, "event disabled for target", "target_id", target.ID, "event_kind", kind)
	r.record(ctx, target, ev, deliveryID, model.LogStatusSkipped,
		fmt.Sprintf("%s notifications are disabled for %s", kind, describe(target)), nil)
	return false
}

func (r *Router) record(ctx context.Context, target model.NotificationTarget, ev model.Event, deliveryID string, status model.LogStatus, summary string, errMsg *string) {
	if r.recorder == nil {
		return
	}
	src := ev.Origin()
	r.recorder.Record(ctx, model.ProcessingLogEntry{
		TargetID:     logger.Ptr(target.ID),
		Platform:     logger.Ptr(target.Platform),
		Provider:     src.Provider,
		RepoKey:      src.RepoKey,
		DeliveryID:   deliveryID,
		EventType:    ev.Kind(),
		Status:       status,
		Summary:      summary,
		ErrorMessage: errMsg,
	})
}

// RequestedTags extracts the tag set requested through notify: labels.
func RequestedTags(labels []string) map[string]struct{} {
	tags := make(map[string]struct{})
	for _, label := range labels {
		if !strings.HasPrefix(label, NotifyLabelPrefix) {
			continue
		}
		if tag := strings.TrimSpace(strings.TrimPrefix(label, NotifyLabelPrefix)); tag != "" {
			tags[tag] = struct{}{}
		}
	}
	return tags
}

// SelectForLabels applies label-aware routing. Untagged targets always
// qualify; tagged targets qualify only when one of their tags was requested.
func SelectForLabels(targets []model.NotificationTarget, labels []string) []model.NotificationTarget {
	requested := RequestedTags(labels)

	selected := make([]model.NotificationTarget, 0, len(targets))
	for _, t := range targets {
		if !t.IsActive {
			continue
		}
		if t.Untagged() || t.HasAnyTag(requested) {
			selected = append(selected, t)
		}
	}
	return selected
}

func activeOnly(targets []model.NotificationTarget) []model.NotificationTarget {
	active := make([]model.NotificationTarget, 0, len(targets))
	for _, t := range targets {
		if t.IsActive {
			active = append(active, t)
		}
	}
	return active
}

func describe(t model.NotificationTarget) string {
	return fmt.Sprintf("target %d (%s:%s)", t.ID, t.Platform, t.ChannelID)
}
