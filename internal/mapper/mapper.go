package mapper

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
)

// EventMapper normalizes one provider's raw delivery into a canonical event.
// Unrecognized deliveries become model.Ignored; an error means the payload
// could not be decoded at all.
type EventMapper interface {
	Map(headers http.Header, body []byte) (model.Event, error)
}

// New returns the mapper for a provider, or false if the provider is unknown.
func New(provider model.Provider) (EventMapper, bool) {
	switch provider {
	case model.ProviderGitHub:
		return NewGitHubEventMapper(), true
	case model.ProviderGitLab:
		return NewGitLabEventMapper(), true
	case model.ProviderBitbucket:
		return NewBitbucketEventMapper(), true
	default:
		return nil, false
	}
}

func ignored(src model.Source, format string, args ...any) model.Ignored {
	return model.Ignored{Source: src, Reason: fmt.Sprintf(format, args...)}
}

// extractMentions returns the distinct usernames captured by pattern, in order
// of first appearance. The first non-empty group of each match is used.
func extractMentions(pattern *regexp.Regexp, text string, trim string) []string {
	matches := pattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	mentions := make([]string, 0, len(matches))
	for _, m := range matches {
		name := strings.TrimRight(firstGroup(m), trim)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		mentions = append(mentions, name)
	}
	return mentions
}

func firstGroup(match []string) string {
	for _, g := range match[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}

// diffLabels reports the first label present only in current, otherwise the
// first label present only in previous. ok is false when the sets are equal.
func diffLabels(previous, current []string) (label string, action model.LabelAction, ok bool) {
	prev := make(map[string]struct{}, len(previous))
	for _, l := range previous {
		prev[l] = struct{}{}
	}
	curr := make(map[string]struct{}, len(current))
	for _, l := range current {
		curr[l] = struct{}{}
	}

	for _, l := range current {
		if _, found := prev[l]; !found {
			return l, model.LabelAdded, true
		}
	}
	for _, l := range previous {
		if _, found := curr[l]; !found {
			return l, model.LabelRemoved, true
		}
	}
	return "", "", false
}
