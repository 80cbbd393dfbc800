package memstore

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/ospass/ospass-server/internal/errors"
	"github.com/ospass/ospass-server/sessions"
)

type sessionEntry struct {
	session   sessions.Session
	expiresAt time.Time
}

// SessionStore keeps both directions of the session mapping in memory.
type SessionStore struct {
	mu       sync.Mutex
	byID     map[string]sessionEntry
	byMember map[string]string // memberUUID -> sessionID
}

var _ sessions.Repo = (*SessionStore)(nil)

// NewSessionStore creates an empty in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		byID:     make(map[string]sessionEntry),
		byMember: make(map[string]string),
	}
}

func (s *SessionStore) Put(ctx context.Context, session *sessions.Session, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A member re-authenticating replaces any previous session.
	if previous, ok := s.byMember[session.MemberUUID]; ok {
		delete(s.byID, previous)
	}
	s.byID[session.ID] = sessionEntry{session: *session, expiresAt: time.Now().Add(ttl)}
	s.byMember[session.MemberUUID] = session.ID
	return nil
}

func (s *SessionStore) GetByID(ctx context.Context, sessionID string) (*sessions.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.byID[sessionID]
	if !ok || time.Now().After(entry.expiresAt) {
		s.expireLocked(sessionID)
		return nil, apperrors.ErrNotFound
	}
	session := entry.session
	return &session, nil
}

func (s *SessionStore) GetByMember(ctx context.Context, memberUUID string) (*sessions.Session, error) {
	s.mu.Lock()
	sessionID, ok := s.byMember[memberUUID]
	s.mu.Unlock()
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return s.GetByID(ctx, sessionID)
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked(sessionID)
	return nil
}

func (s *SessionStore) expireLocked(sessionID string) {
	if entry, ok := s.byID[sessionID]; ok {
		delete(s.byMember, entry.session.MemberUUID)
	}
	delete(s.byID, sessionID)
}
