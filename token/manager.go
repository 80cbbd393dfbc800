package token

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	apperrors "github.com/ospass/ospass-server/internal/errors"
)

// Pair is the result of a token issuance or refresh. RefreshToken is empty
// when a refresh call did not rotate the stored token.
type Pair struct {
	AccessToken      string
	RefreshToken     string
	ExpiresIn        int
	RefreshExpiresIn int
}

// Manager mints, refreshes, verifies and revokes signed tokens for both trust
// domains. Access tokens are self-contained; refresh tokens are additionally
// tracked server-side and rotated on a sliding window.
type Manager struct {
	keyrings          map[Domain]Keyring
	refreshRepo       RefreshRepo
	revocations       RevocationStore
	accessExpiry      time.Duration
	refreshExpiry     map[Domain]time.Duration
	rotationThreshold time.Duration
	revocationCap     time.Duration
	nowFunc           func() time.Time
}

// ManagerOption modifies a Manager instance.
type ManagerOption func(*Manager)

// WithAccessExpiry sets the access token lifetime.
func WithAccessExpiry(expiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.accessExpiry = expiry
	}
}

// WithRefreshExpiry sets the refresh token lifetime for one trust domain.
func WithRefreshExpiry(domain Domain, expiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.refreshExpiry[domain] = expiry
	}
}

// WithRotationThreshold sets the sliding-window threshold under which a
// refresh call also rotates the refresh token.
func WithRotationThreshold(threshold time.Duration) ManagerOption {
	return func(m *Manager) {
		m.rotationThreshold = threshold
	}
}

// WithRevocationCap bounds how long a revocation entry is retained.
func WithRevocationCap(cap time.Duration) ManagerOption {
	return func(m *Manager) {
		m.revocationCap = cap
	}
}

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// New creates a token Manager. A keyring must be registered for every domain
// tokens will be requested for.
func New(keyrings map[Domain]Keyring, refreshRepo RefreshRepo, revocations RevocationStore, options ...ManagerOption) *Manager {
	m := &Manager{
		keyrings:    keyrings,
		refreshRepo: refreshRepo,
		revocations: revocations,
		refreshExpiry: map[Domain]time.Duration{
			DomainWeb: 14 * 24 * time.Hour,
			DomainApp: 30 * 24 * time.Hour,
		},
		accessExpiry:      30 * time.Minute,
		rotationThreshold: 30 * 24 * time.Hour,
		revocationCap:     7 * 24 * time.Hour,
		nowFunc:           time.Now,
	}

	for _, opt := range options {
		opt(m)
	}
	return m
}

// IssueTokens builds a signed access/refresh pair for subject and persists
// the refresh token server-side with a TTL equal to its expiry.
func (m *Manager) IssueTokens(ctx context.Context, domain Domain, subject string) (*Pair, error) {
	keyring, err := m.keyring(domain)
	if err != nil {
		return nil, err
	}

	now := m.nowFunc()

	accessToken, err := m.signClaims(keyring.Access, subject, now, m.accessExpiry)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.IssueTokens] access")
	}

	refreshExpiry := m.refreshExpiry[domain]
	refreshToken, err := m.signClaims(keyring.Refresh, subject, now, refreshExpiry)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.IssueTokens] refresh")
	}

	stored := &StoredRefreshToken{
		Subject:   subject,
		Domain:    domain,
		Token:     refreshToken,
		IssuedAt:  now,
		ExpiresAt: now.Add(refreshExpiry),
	}
	if err := m.refreshRepo.Upsert(ctx, stored, refreshExpiry); err != nil {
		return nil, errors.Wrap(apperrors.ErrStoreUnavailable, err.Error())
	}

	return &Pair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		ExpiresIn:        int(m.accessExpiry.Seconds()),
		RefreshExpiresIn: int(refreshExpiry.Seconds()),
	}, nil
}

// Refresh exchanges a refresh token for a new access token. The presented
// token must match the stored copy byte for byte - a correctly signed token
// whose record was rotated out or deleted is an invalid grant. When the
// stored token's remaining lifetime falls under the rotation threshold a new
// refresh token is minted and persisted in the same call.
func (m *Manager) Refresh(ctx context.Context, domain Domain, rawToken string) (*Pair, error) {
	keyring, err := m.keyring(domain)
	if err != nil {
		return nil, err
	}

	claims, err := m.parseVerified(keyring.Refresh, rawToken)
	if err != nil {
		return nil, err
	}
	subject, _ := claims["sub"].(string)
	if subject == "" {
		return nil, apperrors.ErrInvalidToken
	}

	stored, err := m.refreshRepo.Get(ctx, domain, subject)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidGrant
		}
		return nil, errors.Wrap(apperrors.ErrStoreUnavailable, err.Error())
	}
	if stored.Token != rawToken {
		return nil, apperrors.ErrInvalidGrant
	}

	now := m.nowFunc()
	remaining := stored.ExpiresAt.Sub(now)
	if remaining <= 0 {
		return nil, apperrors.ErrInvalidGrant
	}

	accessToken, err := m.signClaims(keyring.Access, subject, now, m.accessExpiry)
	if err != nil {
		return nil, errors.Wrap(err, "[Manager.Refresh] access")
	}

	pair := &Pair{
		AccessToken: accessToken,
		ExpiresIn:   int(m.accessExpiry.Seconds()),
	}

	if remaining < m.rotationThreshold {
		refreshExpiry := m.refreshExpiry[domain]
		newRefresh, err := m.signClaims(keyring.Refresh, subject, now, refreshExpiry)
		if err != nil {
			return nil, errors.Wrap(err, "[Manager.Refresh] rotate")
		}
		rotated := &StoredRefreshToken{
			Subject:   subject,
			Domain:    domain,
			Token:     newRefresh,
			IssuedAt:  now,
			ExpiresAt: now.Add(refreshExpiry),
		}
		if err := m.refreshRepo.Upsert(ctx, rotated, refreshExpiry); err != nil {
			return nil, errors.Wrap(apperrors.ErrStoreUnavailable, err.Error())
		}
		pair.RefreshToken = newRefresh
		pair.RefreshExpiresIn = int(refreshExpiry.Seconds())
	}

	return pair, nil
}

// VerifyAccessToken checks signature, expiry and the revocation store, in
// that order, and returns the token's subject.
func (m *Manager) VerifyAccessToken(ctx context.Context, domain Domain, rawToken string) (string, error) {
	keyring, err := m.keyring(domain)
	if err != nil {
		return "", err
	}

	claims, err := m.parseVerified(keyring.Access, rawToken)
	if err != nil {
		return "", err
	}

	jti, _ := claims["jti"].(string)
	if jti != "" {
		revoked, err := m.revocations.IsRevoked(ctx, jti)
		if err != nil {
			return "", errors.Wrap(apperrors.ErrStoreUnavailable, err.Error())
		}
		if revoked {
			return "", apperrors.ErrTokenRevoked
		}
	}

	subject, _ := claims["sub"].(string)
	if subject == "" {
		return "", apperrors.ErrInvalidToken
	}
	return subject, nil
}

// RevokeAccessToken blacklists an access token until it would have expired
// anyway, capped at the retention window. The token only needs to be well
// formed - revoking an unverifiable token is harmless.
func (m *Manager) RevokeAccessToken(ctx context.Context, rawToken string) error {
	parsed, _, err := jwt.NewParser().ParseUnverified(rawToken, jwt.MapClaims{})
	if err != nil {
		return apperrors.ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return apperrors.ErrInvalidToken
	}

	jti, _ := claims["jti"].(string)
	if jti == "" {
		return apperrors.ErrInvalidToken
	}
	exp, _ := claims["exp"].(float64)

	ttl := time.Unix(int64(exp), 0).Sub(m.nowFunc())
	if ttl <= 0 {
		return nil // already expired, nothing to blacklist
	}
	if ttl > m.revocationCap {
		ttl = m.revocationCap
	}

	if err := m.revocations.Add(ctx, jti, ttl); err != nil {
		return errors.Wrap(apperrors.ErrStoreUnavailable, err.Error())
	}
	return nil
}

// InvalidateRefreshToken deletes the stored refresh token for a subject,
// ending the refresh loop for that login.
func (m *Manager) InvalidateRefreshToken(ctx context.Context, domain Domain, subject string) error {
	if err := m.refreshRepo.Delete(ctx, domain, subject); err != nil {
		return errors.Wrap(apperrors.ErrStoreUnavailable, err.Error())
	}
	return nil
}

func (m *Manager) keyring(domain Domain) (Keyring, error) {
	keyring, ok := m.keyrings[domain]
	if !ok {
		return Keyring{}, errors.Errorf("[Manager] no keyring for domain %q", domain)
	}
	return keyring, nil
}

func (m *Manager) signClaims(signer Signer, subject string, now time.Time, expiry time.Duration) (string, error) {
	return signer.Sign(jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(expiry).Unix(),
		"jti": uuid.New().String(),
	})
}

func (m *Manager) parseVerified(signer Signer, rawToken string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(rawToken, signer.GetVerificationKey,
		jwt.WithTimeFunc(func() time.Time { return m.nowFunc() }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrInvalidToken
	}
	if !parsed.Valid {
		return nil, apperrors.ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}
