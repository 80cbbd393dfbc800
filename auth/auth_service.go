package auth

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/pkg/errors"

	"github.com/ospass/ospass-server/cardcrypto"
	"github.com/ospass/ospass-server/challenge"
	apperrors "github.com/ospass/ospass-server/internal/errors"
	"github.com/ospass/ospass-server/members"
	"github.com/ospass/ospass-server/users"
)

// Repos holds all repository dependencies for the Service
type Repos struct {
	Members members.Repo // Member directory, keyed by card UUID
	Users   users.Repo   // App accounts for password login and card binding
}

// Service performs primary authentication: proving that a physical card holds
// the shared secret right now (card path) or that an account password matches
// (app path). It owns no state; challenges live in the challenge store.
type Service struct {
	decoder    *cardcrypto.Decoder
	challenges *challenge.Manager
	repos      Repos
}

// NewService creates the authentication service.
func NewService(decoder *cardcrypto.Decoder, challenges *challenge.Manager, repos Repos) (*Service, error) {
	if decoder == nil {
		return nil, errors.New("[NewService] decoder is required")
	}
	if challenges == nil {
		return nil, errors.New("[NewService] challenge manager is required")
	}
	if repos.Members == nil {
		return nil, errors.New("[NewService] Members repo is required")
	}
	return &Service{decoder: decoder, challenges: challenges, repos: repos}, nil
}

// VerifyCard validates an encrypted card payload against the live challenge
// for clientKey and resolves the card to a member. On success the challenge
// is invalidated, closing the replay window; a failed tap requires a fresh
// challenge, never a retry of the same ciphertext.
func (s *Service) VerifyCard(ctx context.Context, payload []byte, clientKey string) (string, error) {
	data, err := s.decoder.Decode(payload)
	if err != nil {
		return "", err
	}
	return s.verifyDecoded(ctx, data, clientKey)
}

// VerifyCardHex is VerifyCard for the hex string form of the payload.
func (s *Service) VerifyCardHex(ctx context.Context, payloadHex, clientKey string) (string, error) {
	data, err := s.decoder.DecodeHex(payloadHex)
	if err != nil {
		return "", err
	}
	return s.verifyDecoded(ctx, data, clientKey)
}

func (s *Service) verifyDecoded(ctx context.Context, data *cardcrypto.CardData, clientKey string) (string, error) {
	stored, err := s.challenges.Live(ctx, clientKey)
	if err != nil {
		return "", err
	}

	if !hexEqual(stored, data.Response) {
		return "", apperrors.ErrInvalidResponse
	}

	// Single use: the challenge is spent the moment it verifies.
	if err := s.challenges.Invalidate(ctx, clientKey); err != nil {
		return "", errors.Wrap(err, "[Service.verifyDecoded] Invalidate")
	}

	member, err := s.repos.Members.GetByUUID(ctx, data.CardUUID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return "", apperrors.ErrMemberNotFound
		}
		return "", errors.Wrap(apperrors.ErrStoreUnavailable, err.Error())
	}

	return member.UUID, nil
}

// PasswordLogin authenticates an app account by username and password and
// returns the account. Lookup misses and bad passwords are indistinguishable
// to the caller.
func (s *Service) PasswordLogin(ctx context.Context, username, password string) (*users.User, error) {
	if s.repos.Users == nil {
		return nil, errors.New("[Service.PasswordLogin] Users repo not configured")
	}

	user, err := s.repos.Users.GetByUsername(ctx, username)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, errors.Wrap(apperrors.ErrStoreUnavailable, err.Error())
	}

	if !users.CheckPasswordHash(password, user.PasswordHash) {
		return nil, apperrors.ErrUserNotFound
	}

	return user, nil
}

// RegisterCard binds a card UUID to an authenticated app account and mirrors
// it into the member directory so card verification can resolve it.
func (s *Service) RegisterCard(ctx context.Context, userID, cardUUID string) error {
	if s.repos.Users == nil {
		return errors.New("[Service.RegisterCard] Users repo not configured")
	}

	cardUUID = strings.ToUpper(cardUUID)
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return apperrors.ErrUserNotFound
		}
		return errors.Wrap(apperrors.ErrStoreUnavailable, err.Error())
	}

	if err := s.repos.Users.BindCard(ctx, user.ID, cardUUID); err != nil {
		return errors.Wrap(apperrors.ErrStoreUnavailable, err.Error())
	}

	member := &members.Member{UUID: cardUUID, Name: user.Username}
	if err := s.repos.Members.Upsert(ctx, member); err != nil {
		return errors.Wrap(apperrors.ErrStoreUnavailable, err.Error())
	}
	return nil
}

// hexEqual compares two hex strings case-insensitively in constant time.
func hexEqual(a, b string) bool {
	upperA := strings.ToUpper(a)
	upperB := strings.ToUpper(b)
	if len(upperA) != len(upperB) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(upperA), []byte(upperB)) == 1
}
