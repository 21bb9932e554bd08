package gate

import (
	"net/http"
	"strings"

	"github.com/google/go-github/v68/github"

	"github.com/Aldiwildan77/repo-pulse-sub000/internal/model"
)

type GitHub struct{}

func (GitHub) Provider() model.Provider { return model.ProviderGitHub }

func (GitHub) Verify(secret string, body []byte, headers http.Header) error {
	return VerifyHubSignature(secret, body, headers.Get(github.SHA256SignatureHeader))
}

// compatibleDeliveryHeaders are checked in order when X-GitHub-Delivery is
// absent, so GitHub-compatible hosts are accepted too.
var compatibleDeliveryHeaders = []string{
	"X-Gitea-Delivery",
	"X-Forgejo-Delivery",
	"X-Gogs-Delivery",
}

func (GitHub) DeliveryID(headers http.Header, _ []byte) (string, error) {
	if id := strings.TrimSpace(headers.Get(github.DeliveryIDHeader)); id != "" {
		return id, nil
	}
	for _, name := range compatibleDeliveryHeaders {
		if id := strings.TrimSpace(headers.Get(name)); id != "" {
			return id, nil
		}
	}
	return "", ErrMissingDeliveryID
}
