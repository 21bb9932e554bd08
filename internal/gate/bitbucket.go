package gate

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
)

const (
	bitbucketSignatureHeader = "X-Hub-Signature"
	bitbucketRequestHeader   = "X-Request-UUID"
)

type Bitbucket struct{}

func (Bitbucket) Provider() model.Provider { return model.ProviderBitbucket }

func (Bitbucket) Verify(secret string, body []byte, headers http.Header) error {
	return VerifyHubSignature(secret, body, headers.Get(bitbucketSignatureHeader))
}

// DeliveryID prefers X-Request-UUID and otherwise hashes the raw body, so an
// identical redelivery still collides on dedup.
func (Bitbucket) DeliveryID(headers http.Header, body []byte) (string, error) {
	if id := strings.TrimSpace(headers.Get(bitbucketRequestHeader)); id != "" {
		return id, nil
	}
	return bodyDigest(body)
}

func bodyDigest(body []byte) (string, error) {
	if len(body) == 0 {
		return "", ErrMissingDeliveryID
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}
