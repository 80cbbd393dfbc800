package server

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"

	apperrors "github.com/ospass/ospass-server/internal/errors"
	"github.com/ospass/ospass-server/token"
)

// ChallengeHandler issues (or re-serves, within TTL) the challenge for a
// client key. Asking twice before the card is tapped must return the same
// value or the tap in flight would be unverifiable.
func (s *Server) ChallengeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientKey := r.URL.Query().Get("client_key")
		if clientKey == "" {
			writeJSONError(w, "invalid_request", "client_key parameter is required", http.StatusBadRequest)
			return
		}

		ch, err := s.challenges.IssueOrGet(r.Context(), clientKey)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		s.metrics.RecordChallengeIssued(r.Context())

		writeJSON(w, http.StatusOK, map[string]any{
			"key":        ch.Key,
			"value":      ch.Value,
			"expires_in": int(ch.TTLRemaining.Seconds()),
		})
	}
}

type cardResponseRequest struct {
	CardData  string `json:"card_data"`
	ClientKey string `json:"client_key"`
}

// CardResponseHandler verifies an encrypted card tap and establishes the SSO
// session. The session id is returned in the body and as an HTTP-only cookie.
func (s *Server) CardResponseHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cardResponseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "invalid_request", "malformed JSON body", http.StatusBadRequest)
			return
		}
		if req.CardData == "" || req.ClientKey == "" {
			writeJSONError(w, "invalid_request", "card_data and client_key are required", http.StatusBadRequest)
			return
		}

		memberUUID, err := s.verifier.VerifyCardHex(r.Context(), req.CardData, req.ClientKey)
		if err != nil {
			s.metrics.RecordCardVerification(r.Context(), false)
			writeMappedError(w, err)
			return
		}
		s.metrics.RecordCardVerification(r.Context(), true)

		session, err := s.sessions.Establish(r.Context(), memberUUID)
		if err != nil {
			writeMappedError(w, err)
			return
		}

		if err := s.publisher.PublishLogin(r.Context(), string(token.DomainWeb), memberUUID); err != nil {
			log.Warn().Err(err).Msg("publish login event")
		}

		s.setSessionCookie(w, session.ID)
		writeJSON(w, http.StatusOK, map[string]string{
			"message":    "authenticated",
			"session_id": session.ID,
		})
	}
}

// AuthorizeHandler grants an authorization code to a registered service for
// the member behind the browser session. Redirect URI problems are answered
// directly; only a vetted redirect target ever receives an error redirect.
func (s *Server) AuthorizeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("response_type") != "code" {
			writeJSONError(w, "unsupported_response_type", "response_type must be code", http.StatusBadRequest)
			return
		}
		apiKey := query.Get("api_key")
		redirectURI := query.Get("redirect_uri")
		if apiKey == "" || redirectURI == "" {
			writeJSONError(w, "invalid_request", "api_key and redirect_uri are required", http.StatusBadRequest)
			return
		}

		sessionID := s.sessionFromCookie(r)

		issued, err := s.codes.Issue(r.Context(), sessionID, apiKey, redirectURI)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrUnauthenticated) && s.redirectRegistered(r, apiKey, redirectURI) {
				http.Redirect(w, r, redirectURI+"?error="+url.QueryEscape("unauthenticated"), http.StatusFound)
				return
			}
			writeMappedError(w, err)
			return
		}
		s.metrics.RecordCodeIssued(r.Context(), apiKey)

		http.Redirect(w, r, issued.RedirectURL, http.StatusFound)
	}
}

// redirectRegistered reports whether redirectURI is on the client's
// allow-list, so an error redirect cannot become an open redirector.
func (s *Server) redirectRegistered(r *http.Request, apiKey, redirectURI string) bool {
	client, err := s.clients.GetByAPIKey(r.Context(), apiKey)
	if err != nil {
		return false
	}
	return client.AllowsRedirect(redirectURI)
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(s.config.GetSessionExpiry().Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) sessionFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
