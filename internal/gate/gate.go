package gate

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v68/github"

	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
)

var (
	ErrMissingSignature  = errors.New("missing signature")
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrMissingBody       = errors.New("missing body")
	ErrMissingDeliveryID = errors.New("missing delivery id")
)

const signaturePrefix = "sha256="

// Gate authenticates a provider's delivery over the raw request body and
// extracts the provider-scoped delivery id.
type Gate interface {
	Provider() model.Provider
	Verify(secret string, body []byte, headers http.Header) error
	DeliveryID(headers http.Header, body []byte) (string, error)
}

// New returns the gate for a provider, or false if the provider is unknown.
func New(provider model.Provider) (Gate, bool) {
	switch provider {
	case model.ProviderGitHub:
		return GitHub{}, true
	case model.ProviderGitLab:
		return GitLab{}, true
	case model.ProviderBitbucket:
		return Bitbucket{}, true
	default:
		return nil, false
	}
}

// VerifyHubSignature checks a "sha256=<hex>" HMAC-SHA256 signature over body.
// The comparison is constant time.
func VerifyHubSignature(secret string, body []byte, signature string) error {
	if signature == "" {
		return ErrMissingSignature
	}
	if len(body) == 0 {
		return ErrMissingBody
	}
	// go-github also accepts sha1 and sha512; only sha256 is valid here.
	if !strings.HasPrefix(signature, signaturePrefix) {
		return fmt.Errorf("%w: unsupported digest", ErrInvalidSignature)
	}
	if err := github.ValidateSignature(signature, body, []byte(secret)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}
