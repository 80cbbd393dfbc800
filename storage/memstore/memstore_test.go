package memstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ospass/ospass-server/authcode"
	apperrors "github.com/ospass/ospass-server/internal/errors"
	"github.com/ospass/ospass-server/storage/memstore"
)

func TestChallengeStoreExpiry(t *testing.T) {
	store := memstore.NewChallengeStore()
	ctx := context.Background()

	ok, err := store.SetNX(ctx, "k", "v", 20*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	value, remaining, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", value)
	require.Greater(t, remaining, time.Duration(0))

	time.Sleep(30 * time.Millisecond)

	_, _, err = store.Get(ctx, "k")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestChallengeStoreSetNXDoesNotOverwrite(t *testing.T) {
	store := memstore.NewChallengeStore()
	ctx := context.Background()

	ok, err := store.SetNX(ctx, "k", "first", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.SetNX(ctx, "k", "second", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	value, _, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "first", value)
}

func TestCodeStoreConsumeRemoves(t *testing.T) {
	store := memstore.NewCodeStore()
	ctx := context.Background()

	grant := &authcode.Grant{APIKey: "k", RedirectURI: "https://cb", SessionID: "s"}
	require.NoError(t, store.Put(ctx, "code-1", grant, time.Minute))

	got, err := store.Consume(ctx, "code-1")
	require.NoError(t, err)
	require.Equal(t, "s", got.SessionID)

	_, err = store.Consume(ctx, "code-1")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRevocationStoreTTL(t *testing.T) {
	store := memstore.NewRevocationStore()
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, "jti-1", 20*time.Millisecond))

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, revoked)

	time.Sleep(30 * time.Millisecond)

	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, revoked)
}
