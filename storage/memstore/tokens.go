package memstore

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/ospass/ospass-server/internal/errors"
	"github.com/ospass/ospass-server/token"
)

type refreshEntry struct {
	stored    token.StoredRefreshToken
	expiresAt time.Time
}

// RefreshStore is an in-memory token.RefreshRepo keyed by (domain, subject).
type RefreshStore struct {
	mu      sync.Mutex
	entries map[string]refreshEntry
}

var _ token.RefreshRepo = (*RefreshStore)(nil)

// NewRefreshStore creates an empty in-memory refresh token store.
func NewRefreshStore() *RefreshStore {
	return &RefreshStore{entries: make(map[string]refreshEntry)}
}

func refreshKey(domain token.Domain, subject string) string {
	return string(domain) + ":" + subject
}

func (s *RefreshStore) Get(ctx context.Context, domain token.Domain, subject string) (*token.StoredRefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := refreshKey(domain, subject)
	entry, ok := s.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(s.entries, key)
		return nil, apperrors.ErrNotFound
	}
	stored := entry.stored
	return &stored, nil
}

func (s *RefreshStore) Upsert(ctx context.Context, stored *token.StoredRefreshToken, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[refreshKey(stored.Domain, stored.Subject)] = refreshEntry{
		stored:    *stored,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (s *RefreshStore) Delete(ctx context.Context, domain token.Domain, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, refreshKey(domain, subject))
	return nil
}

// RevocationStore is an in-memory token.RevocationStore.
type RevocationStore struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
}

var _ token.RevocationStore = (*RevocationStore)(nil)

// NewRevocationStore creates an empty in-memory revocation store.
func NewRevocationStore() *RevocationStore {
	return &RevocationStore{revoked: make(map[string]time.Time)}
}

func (s *RevocationStore) Add(ctx context.Context, jti string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[jti] = time.Now().Add(ttl)
	return nil
}

func (s *RevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiresAt, ok := s.revoked[jti]
	if !ok || time.Now().After(expiresAt) {
		return false, nil
	}
	return true, nil
}
