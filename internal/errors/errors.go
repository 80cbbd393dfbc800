package errors

import (
	"errors"
	"fmt"
)

// Error taxonomy for the card SSO authority. Every failure surfaced by the
// protocol engine maps onto one of these sentinels so the transport layer can
// translate it into a stable HTTP status and a machine-readable code.
var (
	// Card / crypto errors
	ErrInvalidPayload = errors.New("invalid card payload")
	ErrCrypto         = errors.New("card payload decryption failed")

	// Challenge errors
	ErrChallengeExpired = errors.New("challenge not found or expired")
	ErrInvalidResponse  = errors.New("invalid card response")

	// Identity errors
	ErrMemberNotFound  = errors.New("member not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrUnauthenticated = errors.New("unauthenticated")

	// Client errors
	ErrInvalidClient      = errors.New("invalid client")
	ErrInvalidRedirectURI = errors.New("invalid redirect URI")

	// Grant / token errors
	ErrInvalidGrant = errors.New("invalid grant")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")

	// Infrastructure errors
	ErrStoreUnavailable = errors.New("store unavailable")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
