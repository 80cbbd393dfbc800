package token_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/ospass/ospass-server/internal/errors"
	"github.com/ospass/ospass-server/storage/memstore"
	"github.com/ospass/ospass-server/token"
)

const testSubject = "00112233445566778899AABBCCDDEEFF"

func testKeyrings() map[token.Domain]token.Keyring {
	return map[token.Domain]token.Keyring{
		token.DomainWeb: {
			Access:  token.NewHMACSigner("web-access-secret"),
			Refresh: token.NewHMACSigner("web-refresh-secret"),
		},
		token.DomainApp: {
			Access:  token.NewHMACSigner("app-access-secret"),
			Refresh: token.NewHMACSigner("app-refresh-secret"),
		},
	}
}

// clock is an adjustable time source for exercising expiry and rotation.
type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestManager(t *testing.T, options ...token.ManagerOption) (*token.Manager, *clock) {
	t.Helper()

	c := &clock{now: time.Now().UTC()}
	opts := append([]token.ManagerOption{token.WithNowFunc(c.Now)}, options...)
	mgr := token.New(testKeyrings(), memstore.NewRefreshStore(), memstore.NewRevocationStore(), opts...)
	return mgr, c
}

func TestIssueAndVerify(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	pair, err := mgr.IssueTokens(ctx, token.DomainWeb, testSubject)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, int((30 * time.Minute).Seconds()), pair.ExpiresIn)

	subject, err := mgr.VerifyAccessToken(ctx, token.DomainWeb, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, testSubject, subject)
}

func TestDomainsDoNotCrossVerify(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	pair, err := mgr.IssueTokens(ctx, token.DomainWeb, testSubject)
	require.NoError(t, err)

	_, err = mgr.VerifyAccessToken(ctx, token.DomainApp, pair.AccessToken)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestVerifyExpiredAccessToken(t *testing.T) {
	mgr, clk := newTestManager(t)
	ctx := context.Background()

	pair, err := mgr.IssueTokens(ctx, token.DomainWeb, testSubject)
	require.NoError(t, err)

	clk.Advance(31 * time.Minute)

	_, err = mgr.VerifyAccessToken(ctx, token.DomainWeb, pair.AccessToken)
	require.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestRevokeAccessToken(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	pair, err := mgr.IssueTokens(ctx, token.DomainWeb, testSubject)
	require.NoError(t, err)

	require.NoError(t, mgr.RevokeAccessToken(ctx, pair.AccessToken))

	_, err = mgr.VerifyAccessToken(ctx, token.DomainWeb, pair.AccessToken)
	require.ErrorIs(t, err, apperrors.ErrTokenRevoked)
}

func TestRevokeGarbageToken(t *testing.T) {
	mgr, _ := newTestManager(t)

	err := mgr.RevokeAccessToken(context.Background(), "not-a-jwt")
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestRefreshWithoutRotation(t *testing.T) {
	mgr, clk := newTestManager(t,
		token.WithRefreshExpiry(token.DomainWeb, 60*24*time.Hour),
		token.WithRotationThreshold(30*24*time.Hour),
	)
	ctx := context.Background()

	issued, err := mgr.IssueTokens(ctx, token.DomainWeb, testSubject)
	require.NoError(t, err)

	clk.Advance(time.Hour)

	// 60 days remain on the stored token, well over the 30-day threshold.
	refreshed, err := mgr.Refresh(ctx, token.DomainWeb, issued.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.AccessToken)
	require.Empty(t, refreshed.RefreshToken)

	subject, err := mgr.VerifyAccessToken(ctx, token.DomainWeb, refreshed.AccessToken)
	require.NoError(t, err)
	require.Equal(t, testSubject, subject)
}

func TestRefreshRotatesUnderThreshold(t *testing.T) {
	mgr, clk := newTestManager(t,
		token.WithRefreshExpiry(token.DomainWeb, 60*24*time.Hour),
		token.WithRotationThreshold(30*24*time.Hour),
	)
	ctx := context.Background()

	issued, err := mgr.IssueTokens(ctx, token.DomainWeb, testSubject)
	require.NoError(t, err)

	// 10 days remain, inside the rotation window.
	clk.Advance(50 * 24 * time.Hour)

	refreshed, err := mgr.Refresh(ctx, token.DomainWeb, issued.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.RefreshToken)
	require.NotEqual(t, issued.RefreshToken, refreshed.RefreshToken)

	// The old refresh token was rotated out; only the new one works.
	_, err = mgr.Refresh(ctx, token.DomainWeb, issued.RefreshToken)
	require.ErrorIs(t, err, apperrors.ErrInvalidGrant)

	_, err = mgr.Refresh(ctx, token.DomainWeb, refreshed.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshRejectsReplacedToken(t *testing.T) {
	mgr, clk := newTestManager(t,
		token.WithRefreshExpiry(token.DomainWeb, 60*24*time.Hour),
		token.WithRotationThreshold(30*24*time.Hour),
	)
	ctx := context.Background()

	first, err := mgr.IssueTokens(ctx, token.DomainWeb, testSubject)
	require.NoError(t, err)

	// Distinct iat so the second issuance signs a different token.
	clk.Advance(time.Second)
	_, err = mgr.IssueTokens(ctx, token.DomainWeb, testSubject)
	require.NoError(t, err)

	// A correctly signed token whose stored record was replaced is not a
	// valid grant.
	_, err = mgr.Refresh(ctx, token.DomainWeb, first.RefreshToken)
	require.ErrorIs(t, err, apperrors.ErrInvalidGrant)
}

func TestRefreshRejectsDeletedRecord(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	issued, err := mgr.IssueTokens(ctx, token.DomainWeb, testSubject)
	require.NoError(t, err)

	require.NoError(t, mgr.InvalidateRefreshToken(ctx, token.DomainWeb, testSubject))

	_, err = mgr.Refresh(ctx, token.DomainWeb, issued.RefreshToken)
	require.ErrorIs(t, err, apperrors.ErrInvalidGrant)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	mgr, _ := newTestManager(t)
	ctx := context.Background()

	issued, err := mgr.IssueTokens(ctx, token.DomainWeb, testSubject)
	require.NoError(t, err)

	// Access and refresh secrets differ, so an access token never passes
	// refresh verification.
	_, err = mgr.Refresh(ctx, token.DomainWeb, issued.AccessToken)
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
}
