package server

import (
	"encoding/json"
	"net/http"
	"regexp"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ospass/ospass-server/token"
)

// AppLoginHandler authenticates a portal account with username and password
// and issues an app-domain token pair.
func (s *Server) AppLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, "invalid_request", "failed to parse form data", http.StatusBadRequest)
			return
		}
		username := r.FormValue("user_id")
		password := r.FormValue("password")
		if username == "" || password == "" {
			writeJSONError(w, "invalid_request", "user_id and password are required", http.StatusBadRequest)
			return
		}

		user, err := s.verifier.PasswordLogin(r.Context(), username, password)
		if err != nil {
			writeMappedError(w, err)
			return
		}

		pair, err := s.tokens.IssueTokens(r.Context(), token.DomainApp, user.ID)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		s.metrics.RecordTokensIssued(r.Context(), string(token.DomainApp))

		user.LastLogin = time.Now().UTC()
		if err := s.users.Upsert(r.Context(), user); err != nil {
			log.Warn().Err(err).Str("user", user.ID).Msg("record last login")
		}

		if err := s.publisher.PublishLogin(r.Context(), string(token.DomainApp), user.ID); err != nil {
			log.Warn().Err(err).Msg("publish login event")
		}

		writeTokenJSON(w, pair)
	}
}

// AppRefreshTokenHandler exchanges a live app refresh token for a new access
// token.
func (s *Server) AppRefreshTokenHandler() http.HandlerFunc {
	return s.refreshHandler(token.DomainApp)
}

// AppLogoutHandler revokes the presented app access token and the subject's
// stored refresh token.
func (s *Server) AppLogoutHandler() http.HandlerFunc {
	return s.logoutHandler(token.DomainApp)
}

var cardUUIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)

type registerCardRequest struct {
	CardUUID string `json:"card_uuid"`
}

// RegisterCardHandler binds a physical card UUID to the authenticated app
// account and mirrors it into the member directory.
func (s *Server) RegisterCardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerToken(r)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		userID, err := s.tokens.VerifyAccessToken(r.Context(), token.DomainApp, raw)
		if err != nil {
			writeMappedError(w, err)
			return
		}

		var req registerCardRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "invalid_request", "malformed JSON body", http.StatusBadRequest)
			return
		}
		if !cardUUIDPattern.MatchString(req.CardUUID) {
			writeJSONError(w, "invalid_request", "card_uuid must be 32 hex characters", http.StatusBadRequest)
			return
		}

		if err := s.verifier.RegisterCard(r.Context(), userID, req.CardUUID); err != nil {
			writeMappedError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "card registered"})
	}
}

// HealthHandler reports liveness.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
