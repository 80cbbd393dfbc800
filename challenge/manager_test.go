package challenge_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/ospass/ospass-server/challenge"
	apperrors "github.com/ospass/ospass-server/internal/errors"
	"github.com/ospass/ospass-server/storage/memstore"
)

var hexValuePattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

func newTestManager(t *testing.T) *challenge.Manager {
	t.Helper()
	return challenge.NewManager(memstore.NewChallengeStore(), 3*time.Minute)
}

func TestIssueOrGetMintsHexValue(t *testing.T) {
	mgr := newTestManager(t)

	ch, err := mgr.IssueOrGet(context.Background(), "client-1")
	require.NoError(t, err)
	require.Equal(t, "client-1", ch.Key)
	require.Regexp(t, hexValuePattern, ch.Value)
	require.Greater(t, ch.TTLRemaining, time.Duration(0))
}

func TestIssueOrGetIsIdempotentWithinTTL(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	first, err := mgr.IssueOrGet(ctx, "client-1")
	require.NoError(t, err)

	second, err := mgr.IssueOrGet(ctx, "client-1")
	require.NoError(t, err)
	require.Equal(t, first.Value, second.Value)
}

func TestIssueOrGetIsolatesClients(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	a, err := mgr.IssueOrGet(ctx, "client-a")
	require.NoError(t, err)
	b, err := mgr.IssueOrGet(ctx, "client-b")
	require.NoError(t, err)
	require.NotEqual(t, a.Value, b.Value)
}

func TestInvalidateForcesFreshValue(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	first, err := mgr.IssueOrGet(ctx, "client-1")
	require.NoError(t, err)

	require.NoError(t, mgr.Invalidate(ctx, "client-1"))

	second, err := mgr.IssueOrGet(ctx, "client-1")
	require.NoError(t, err)
	require.NotEqual(t, first.Value, second.Value)
}

func TestLiveReturnsStoredValueWithoutMinting(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	issued, err := mgr.IssueOrGet(ctx, "client-1")
	require.NoError(t, err)

	value, err := mgr.Live(ctx, "client-1")
	require.NoError(t, err)
	require.Equal(t, issued.Value, value)
}

func TestLiveMissingChallengeIsExpired(t *testing.T) {
	mgr := newTestManager(t)

	_, err := mgr.Live(context.Background(), "never-issued")
	require.ErrorIs(t, err, apperrors.ErrChallengeExpired)
}

// brokenRepo simulates an unreachable store.
type brokenRepo struct{}

func (brokenRepo) Get(context.Context, string) (string, time.Duration, error) {
	return "", 0, errors.New("connection refused")
}

func (brokenRepo) SetNX(context.Context, string, string, time.Duration) (bool, error) {
	return false, errors.New("connection refused")
}

func (brokenRepo) Delete(context.Context, string) error {
	return errors.New("connection refused")
}

func TestStoreFailureNeverSkipsChallenge(t *testing.T) {
	mgr := challenge.NewManager(brokenRepo{}, 3*time.Minute)
	ctx := context.Background()

	_, err := mgr.IssueOrGet(ctx, "client-1")
	require.ErrorIs(t, err, apperrors.ErrStoreUnavailable)

	_, err = mgr.Live(ctx, "client-1")
	require.ErrorIs(t, err, apperrors.ErrStoreUnavailable)

	require.ErrorIs(t, mgr.Invalidate(ctx, "client-1"), apperrors.ErrStoreUnavailable)
}
