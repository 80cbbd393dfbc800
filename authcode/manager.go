package authcode

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ospass/ospass-server/clients"
	apperrors "github.com/ospass/ospass-server/internal/errors"
	"github.com/ospass/ospass-server/sessions"
)

// Manager issues and consumes single-use authorization codes.
type Manager struct {
	repo       Repo
	sessionMgr *sessions.Manager
	clientRepo clients.Repo
	ttl        time.Duration
	nowFunc    func() time.Time
}

// ManagerOption modifies a Manager instance.
type ManagerOption func(*Manager)

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// NewManager creates an authorization code Manager.
func NewManager(repo Repo, sessionMgr *sessions.Manager, clientRepo clients.Repo, ttl time.Duration, options ...ManagerOption) *Manager {
	m := &Manager{
		repo:       repo,
		sessionMgr: sessionMgr,
		clientRepo: clientRepo,
		ttl:        ttl,
		nowFunc:    time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Issued is the result of a successful code issuance.
type Issued struct {
	Code        string
	RedirectURL string
}

// Issue mints a single-use authorization code for a verified session and a
// registered client. Preconditions are checked in order and the first failure
// wins: session, then API key, then redirect URI.
func (m *Manager) Issue(ctx context.Context, sessionID, apiKey, redirectURI string) (*Issued, error) {
	if _, err := m.sessionMgr.Resolve(ctx, sessionID); err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthenticated
		}
		return nil, errors.Wrap(err, "[Manager.Issue] Resolve")
	}

	client, err := m.clientRepo.GetByAPIKey(ctx, apiKey)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidClient
		}
		return nil, errors.Wrap(apperrors.ErrStoreUnavailable, err.Error())
	}

	if !client.AllowsRedirect(redirectURI) {
		return nil, apperrors.ErrInvalidRedirectURI
	}

	code := uuid.New().String()
	grant := &Grant{
		APIKey:      apiKey,
		RedirectURI: redirectURI,
		SessionID:   sessionID,
		CreatedAt:   m.nowFunc(),
	}
	if err := m.repo.Put(ctx, code, grant, m.ttl); err != nil {
		return nil, errors.Wrap(apperrors.ErrStoreUnavailable, err.Error())
	}

	return &Issued{
		Code:        code,
		RedirectURL: fmt.Sprintf("%s?code=%s", redirectURI, code),
	}, nil
}

// Consume exchanges a code exactly once. The underlying removal is atomic, so
// concurrent exchange attempts cannot both succeed; the stored API key and
// redirect URI must match the request's (mix-up defense). Any failure is
// ErrInvalidGrant - callers learn nothing about which check failed.
func (m *Manager) Consume(ctx context.Context, code, apiKey, redirectURI string) (string, error) {
	grant, err := m.repo.Consume(ctx, code)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return "", apperrors.ErrInvalidGrant
		}
		return "", errors.Wrap(apperrors.ErrStoreUnavailable, err.Error())
	}

	if grant.APIKey != apiKey || grant.RedirectURI != redirectURI {
		// The code is already gone: a mismatched exchange burns it rather
		// than leaving it live for a second attempt.
		return "", apperrors.ErrInvalidGrant
	}

	return grant.SessionID, nil
}
