package server

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	apperrors "github.com/ospass/ospass-server/internal/errors"
)

const contentTypeJSON = "application/json; charset=utf-8"

// errorMapping binds a sentinel error to its stable machine code and status.
type errorMapping struct {
	sentinel error
	code     string
	status   int
}

// Ordered most-specific first; the first match wins.
var errorMappings = []errorMapping{
	{apperrors.ErrInvalidPayload, "invalid_payload", http.StatusBadRequest},
	{apperrors.ErrCrypto, "crypto_error", http.StatusBadRequest},
	{apperrors.ErrChallengeExpired, "challenge_expired", http.StatusBadRequest},
	{apperrors.ErrInvalidResponse, "invalid_response", http.StatusBadRequest},
	{apperrors.ErrInvalidClient, "invalid_client", http.StatusBadRequest},
	{apperrors.ErrInvalidRedirectURI, "invalid_redirect_uri", http.StatusBadRequest},
	{apperrors.ErrInvalidGrant, "invalid_grant", http.StatusBadRequest},
	{apperrors.ErrUnauthenticated, "unauthenticated", http.StatusUnauthorized},
	{apperrors.ErrTokenExpired, "token_expired", http.StatusUnauthorized},
	{apperrors.ErrTokenRevoked, "token_revoked", http.StatusUnauthorized},
	{apperrors.ErrInvalidToken, "invalid_token", http.StatusUnauthorized},
	{apperrors.ErrMemberNotFound, "member_not_found", http.StatusNotFound},
	{apperrors.ErrUserNotFound, "user_not_found", http.StatusNotFound},
	{apperrors.ErrNotFound, "not_found", http.StatusNotFound},
	{apperrors.ErrStoreUnavailable, "store_unavailable", http.StatusServiceUnavailable},
}

// writeMappedError translates a service error into its wire form. Internal
// detail never leaks: the description is the mapping's code family, not the
// wrapped error string.
func writeMappedError(w http.ResponseWriter, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.sentinel) {
			writeJSONError(w, m.code, m.sentinel.Error(), m.status)
			return
		}
	}
	writeJSONError(w, "server_error", "internal server error", http.StatusInternalServerError)
}

// writeJSONError writes an OAuth2-style error response
func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
