package challenge

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/pkg/errors"

	apperrors "github.com/ospass/ospass-server/internal/errors"
)

// ValueLength is the hex length of a challenge: 128 bits of randomness.
const ValueLength = 32

// Challenge is a live challenge as returned to a polling client.
type Challenge struct {
	Key          string
	Value        string
	TTLRemaining time.Duration
}

// Manager issues and invalidates per-client challenges. Issuance is
// idempotent: a client polling before the card taps always sees the same
// value until the entry expires or is consumed by a verification.
type Manager struct {
	repo Repo
	ttl  time.Duration
}

// NewManager creates a challenge Manager storing entries with the given TTL.
func NewManager(repo Repo, ttl time.Duration) *Manager {
	return &Manager{repo: repo, ttl: ttl}
}

// IssueOrGet returns the live challenge for key, minting one if none exists.
// A store failure always fails the request; the caller must never fall back
// to "no challenge required".
func (m *Manager) IssueOrGet(ctx context.Context, key string) (*Challenge, error) {
	value, remaining, err := m.repo.Get(ctx, key)
	if err == nil {
		return &Challenge{Key: key, Value: value, TTLRemaining: remaining}, nil
	}
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, errors.Wrap(apperrors.ErrStoreUnavailable, err.Error())
	}

	fresh, err := generateValue()
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.IssueOrGet] generateValue")
	}

	stored, err := m.repo.SetNX(ctx, key, fresh, m.ttl)
	if err != nil {
		return nil, errors.Wrap(apperrors.ErrStoreUnavailable, err.Error())
	}
	if stored {
		return &Challenge{Key: key, Value: fresh, TTLRemaining: m.ttl}, nil
	}

	// Lost the race to a concurrent issuer for the same key; adopt its value.
	value, remaining, err = m.repo.Get(ctx, key)
	if err != nil {
		return nil, errors.Wrap(apperrors.ErrStoreUnavailable, err.Error())
	}
	return &Challenge{Key: key, Value: value, TTLRemaining: remaining}, nil
}

// Live returns the still-live challenge value for key without ever minting a
// new one. Verification must compare against the value the user was shown;
// regenerating mid-verify would be a defect.
func (m *Manager) Live(ctx context.Context, key string) (string, error) {
	value, _, err := m.repo.Get(ctx, key)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return "", apperrors.ErrChallengeExpired
		}
		return "", errors.Wrap(apperrors.ErrStoreUnavailable, err.Error())
	}
	return value, nil
}

// Invalidate removes the live challenge for key. Called after a successful
// verification so the same challenge can never be replayed.
func (m *Manager) Invalidate(ctx context.Context, key string) error {
	if err := m.repo.Delete(ctx, key); err != nil {
		return errors.Wrap(apperrors.ErrStoreUnavailable, err.Error())
	}
	return nil
}

func generateValue() (string, error) {
	raw := make([]byte, ValueLength/2)
	if _, err := rand.Read(raw); err != nil {
		return "", errors.Wrap(err, "rand.Read")
	}
	return hex.EncodeToString(raw), nil
}
