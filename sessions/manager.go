package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	apperrors "github.com/ospass/ospass-server/internal/errors"
)

// Manager mints, resolves and revokes sessions.
type Manager struct {
	repo    Repo
	ttl     time.Duration
	nowFunc func() time.Time
}

// ManagerOption modifies a Manager instance.
type ManagerOption func(*Manager)

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// NewManager creates a session Manager storing sessions with the given TTL.
func NewManager(repo Repo, ttl time.Duration, options ...ManagerOption) *Manager {
	m := &Manager{repo: repo, ttl: ttl, nowFunc: time.Now}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Establish mints an opaque session identifier for a verified member. The
// identifier is random, never derived from card data. The caller places it in
// a secure, HTTP-only cookie.
func (m *Manager) Establish(ctx context.Context, memberUUID string) (*Session, error) {
	session := &Session{
		ID:         uuid.New().String(),
		MemberUUID: memberUUID,
		CreatedAt:  m.nowFunc(),
	}
	if err := m.repo.Put(ctx, session, m.ttl); err != nil {
		return nil, errors.Wrap(apperrors.ErrStoreUnavailable, err.Error())
	}
	return session, nil
}

// Resolve returns the member behind a session identifier.
func (m *Manager) Resolve(ctx context.Context, sessionID string) (string, error) {
	session, err := m.repo.GetByID(ctx, sessionID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return "", apperrors.ErrNotFound
		}
		return "", errors.Wrap(apperrors.ErrStoreUnavailable, err.Error())
	}
	return session.MemberUUID, nil
}

// Revoke deletes both directions of the session mapping. Used on logout.
func (m *Manager) Revoke(ctx context.Context, sessionID string) error {
	if err := m.repo.Delete(ctx, sessionID); err != nil {
		return errors.Wrap(apperrors.ErrStoreUnavailable, err.Error())
	}
	return nil
}
