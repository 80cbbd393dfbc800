package authcode

import "time"

// Grant is the record stored behind an authorization code: the client and
// redirect URI the code was minted for and the session that authorized it.
// A grant lives for the code TTL and is destroyed atomically on exchange.
type Grant struct {
	APIKey      string    `json:"api_key"`
	RedirectURI string    `json:"redirect_uri"`
	SessionID   string    `json:"session_id"`
	CreatedAt   time.Time `json:"created_at"`
}
