package gate

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
)

const (
	gitlabTokenHeader     = "X-Gitlab-Token"
	gitlabEventUUIDHeader = "X-Gitlab-Event-UUID"
)

// GitLab compares the shared X-Gitlab-Token header against the configured
// secret. GitLab does not sign payloads.
type GitLab struct{}

func (GitLab) Provider() model.Provider { return model.ProviderGitLab }

func (GitLab) Verify(secret string, body []byte, headers http.Header) error {
	token := headers.Get(gitlabTokenHeader)
	if token == "" {
		return ErrMissingSignature
	}
	if len(body) == 0 {
		return ErrMissingBody
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
		return ErrInvalidSignature
	}
	return nil
}

type gitlabDeliveryFields struct {
	ObjectKind       string `json:"object_kind"`
	ObjectAttributes struct {
		ID     json.Number `json:"id"`
		Action string      `json:"action"`
	} `json:"object_attributes"`
}

// DeliveryID synthesizes "{object_kind}-{object_attributes.id}-{action}".
// Hooks without object attributes (push, tag push, pipeline) use
// X-Gitlab-Event-UUID, then a digest of the raw body.
func (GitLab) DeliveryID(headers http.Header, body []byte) (string, error) {
	var fields gitlabDeliveryFields
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMissingDeliveryID, err)
	}
	if fields.ObjectKind != "" && fields.ObjectAttributes.ID != "" {
		return fmt.Sprintf("%s-%s-%s", fields.ObjectKind, fields.ObjectAttributes.ID, fields.ObjectAttributes.Action), nil
	}
	if id := strings.TrimSpace(headers.Get(gitlabEventUUIDHeader)); id != "" {
		return id, nil
	}
	return bodyDigest(body)
}
