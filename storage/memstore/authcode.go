package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/ospass/ospass-server/authcode"
	apperrors "github.com/ospass/ospass-server/internal/errors"
)

type codeEntry struct {
	grant     authcode.Grant
	expiresAt time.Time
}

// CodeStore is an in-memory authcode.Repo. Consume holds the lock across the
// lookup and the delete, so concurrent consumers of the same code see exactly
// one winner.
type CodeStore struct {
	mu    sync.Mutex
	codes map[string]codeEntry
}

var _ authcode.Repo = (*CodeStore)(nil)

// NewCodeStore creates an empty in-memory authorization code store.
func NewCodeStore() *CodeStore {
	return &CodeStore{codes: make(map[string]codeEntry)}
}

func (s *CodeStore) Put(ctx context.Context, code string, grant *authcode.Grant, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[code] = codeEntry{grant: *grant, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *CodeStore) Consume(ctx context.Context, code string) (*authcode.Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.codes[code]
	delete(s.codes, code)
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, apperrors.ErrNotFound
	}
	grant := entry.grant
	return &grant, nil
}
