package clients

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/pkg/errors"
)

// Client is a registered third-party service allowed to request authorization
// codes. The API key identifies the service; redirect URIs form a strict
// allow-list validated on every issuance and exchange.
type Client struct {
	APIKey       string   `json:"api_key"`
	ServiceName  string   `json:"service_name"`
	RedirectURIs []string `json:"redirect_uris"`
}

// AllowsRedirect reports whether uri is on the client's allow-list. Exact
// string match only; no prefix or wildcard logic.
func (c *Client) AllowsRedirect(uri string) bool {
	for _, allowed := range c.RedirectURIs {
		if allowed == uri {
			return true
		}
	}
	return false
}

// Validate checks that a registration carries a usable schema before it is
// trusted by the protocol engine.
func (c *Client) Validate() error {
	if c.APIKey == "" {
		return errors.New("client missing api key")
	}
	if c.ServiceName == "" {
		return errors.New("client missing service name")
	}
	if len(c.RedirectURIs) == 0 {
		return errors.New("client has no registered redirect URIs")
	}
	return nil
}

// GenerateAPIKey mints a 256-bit random API key for a new registration.
func GenerateAPIKey() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", errors.Wrap(err, "[GenerateAPIKey] rand.Read")
	}
	return hex.EncodeToString(raw), nil
}
