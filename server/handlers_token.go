package server

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/ospass/ospass-server/internal/errors"
	"github.com/ospass/ospass-server/token"
)

// tokenResponse is the wire form of an issued or refreshed pair. The refresh
// fields are omitted when a refresh call did not rotate the stored token.
type tokenResponse struct {
	AccessToken           string `json:"access_token"`
	TokenType             string `json:"token_type"`
	ExpiresIn             int    `json:"expires_in"`
	RefreshToken          string `json:"refresh_token,omitempty"`
	RefreshTokenExpiresIn int    `json:"refresh_token_expires_in,omitempty"`
}

func newTokenResponse(pair *token.Pair) tokenResponse {
	return tokenResponse{
		AccessToken:           pair.AccessToken,
		TokenType:             "bearer",
		ExpiresIn:             pair.ExpiresIn,
		RefreshToken:          pair.RefreshToken,
		RefreshTokenExpiresIn: pair.RefreshExpiresIn,
	}
}

// TokenHandler exchanges a single-use authorization code for a web-domain
// token pair.
func (s *Server) TokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, "invalid_request", "failed to parse form data", http.StatusBadRequest)
			return
		}
		if r.FormValue("grant_type") != "authorization_code" {
			writeJSONError(w, "unsupported_grant_type", "grant_type must be authorization_code", http.StatusBadRequest)
			return
		}

		code := r.FormValue("code")
		apiKey := r.FormValue("api_key")
		redirectURI := r.FormValue("redirect_uri")
		if code == "" || apiKey == "" || redirectURI == "" {
			writeJSONError(w, "invalid_request", "code, api_key and redirect_uri are required", http.StatusBadRequest)
			return
		}

		sessionID, err := s.codes.Consume(r.Context(), code, apiKey, redirectURI)
		if err != nil {
			s.metrics.RecordCodeExchange(r.Context(), apiKey, false)
			writeMappedError(w, err)
			return
		}

		memberUUID, err := s.sessions.Resolve(r.Context(), sessionID)
		if err != nil {
			// Session died between issuance and exchange; the code is
			// already burned.
			s.metrics.RecordCodeExchange(r.Context(), apiKey, false)
			writeMappedError(w, apperrors.ErrInvalidGrant)
			return
		}
		s.metrics.RecordCodeExchange(r.Context(), apiKey, true)

		pair, err := s.tokens.IssueTokens(r.Context(), token.DomainWeb, memberUUID)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		s.metrics.RecordTokensIssued(r.Context(), string(token.DomainWeb))

		writeTokenJSON(w, pair)
	}
}

// RefreshTokenHandler exchanges a live web refresh token for a new access
// token, rotating the refresh token when it nears expiry.
func (s *Server) RefreshTokenHandler() http.HandlerFunc {
	return s.refreshHandler(token.DomainWeb)
}

func (s *Server) refreshHandler(domain token.Domain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, "invalid_request", "failed to parse form data", http.StatusBadRequest)
			return
		}
		if grantType := r.FormValue("grant_type"); grantType != "" && grantType != "refresh_token" {
			writeJSONError(w, "unsupported_grant_type", "grant_type must be refresh_token", http.StatusBadRequest)
			return
		}
		raw := r.FormValue("refresh_token")
		if raw == "" {
			writeJSONError(w, "invalid_request", "refresh_token is required", http.StatusBadRequest)
			return
		}

		pair, err := s.tokens.Refresh(r.Context(), domain, raw)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		s.metrics.RecordTokenRefresh(r.Context(), string(domain), pair.RefreshToken != "")

		writeTokenJSON(w, pair)
	}
}

// LogoutHandler revokes the presented web access token and invalidates the
// subject's stored refresh token.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return s.logoutHandler(token.DomainWeb)
}

func (s *Server) logoutHandler(domain token.Domain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerToken(r)
		if err != nil {
			writeMappedError(w, err)
			return
		}

		subject, err := s.tokens.VerifyAccessToken(r.Context(), domain, raw)
		if err != nil {
			writeMappedError(w, err)
			return
		}

		if err := s.tokens.RevokeAccessToken(r.Context(), raw); err != nil {
			writeMappedError(w, err)
			return
		}
		s.metrics.RecordTokenRevocation(r.Context(), string(domain))

		if err := s.tokens.InvalidateRefreshToken(r.Context(), domain, subject); err != nil {
			writeMappedError(w, err)
			return
		}

		if err := s.publisher.PublishLogout(r.Context(), string(domain), subject, ""); err != nil {
			log.Warn().Err(err).Msg("publish logout event")
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
	}
}

func writeTokenJSON(w http.ResponseWriter, pair *token.Pair) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	writeJSON(w, http.StatusOK, newTokenResponse(pair))
}

// bearerToken extracts the access token from the Authorization header.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", apperrors.ErrUnauthenticated
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", apperrors.ErrUnauthenticated
	}
	return parts[1], nil
}
