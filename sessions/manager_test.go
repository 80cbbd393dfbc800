package sessions_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ospass/ospass-server/internal/errors"
	"github.com/ospass/ospass-server/sessions"
	"github.com/ospass/ospass-server/storage/memstore"
)

const testMemberUUID = "00112233445566778899AABBCCDDEEFF"

func newTestManager(t *testing.T) *sessions.Manager {
	t.Helper()
	return sessions.NewManager(memstore.NewSessionStore(), time.Hour)
}

func TestEstablishAndResolve(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	session, err := mgr.Establish(ctx, testMemberUUID)
	require.NoError(t, err)

	// The identifier is an opaque UUID, never derived from card data.
	_, err = uuid.Parse(session.ID)
	require.NoError(t, err)

	memberUUID, err := mgr.Resolve(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, testMemberUUID, memberUUID)
}

func TestResolveUnknownSession(t *testing.T) {
	mgr := newTestManager(t)

	_, err := mgr.Resolve(context.Background(), uuid.New().String())
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRevoke(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	session, err := mgr.Establish(ctx, testMemberUUID)
	require.NoError(t, err)

	require.NoError(t, mgr.Revoke(ctx, session.ID))

	_, err = mgr.Resolve(ctx, session.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestReauthenticationReplacesSession(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	first, err := mgr.Establish(ctx, testMemberUUID)
	require.NoError(t, err)

	second, err := mgr.Establish(ctx, testMemberUUID)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	_, err = mgr.Resolve(ctx, first.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	memberUUID, err := mgr.Resolve(ctx, second.ID)
	require.NoError(t, err)
	require.Equal(t, testMemberUUID, memberUUID)
}
