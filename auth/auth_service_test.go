package auth_test

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ospass/ospass-server/auth"
	"github.com/ospass/ospass-server/cardcrypto"
	"github.com/ospass/ospass-server/challenge"
	apperrors "github.com/ospass/ospass-server/internal/errors"
	"github.com/ospass/ospass-server/members"
	"github.com/ospass/ospass-server/storage/memstore"
	"github.com/ospass/ospass-server/users"
)

const (
	testSecretHex = "000102030405060708090a0b0c0d0e0f"
	testIVHex     = "101112131415161718191a1b1c1d1e1f"

	testClientKey = "kiosk-42"
	testCardUUID  = "00112233445566778899AABBCCDDEEFF"
	testUsername  = "jane"
	testPassword  = "Password1"
)

// testFixture holds all verification dependencies.
type testFixture struct {
	service    *auth.Service
	challenges *challenge.Manager
	memberRepo members.Repo
	userRepo   users.Repo
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	decoder, err := cardcrypto.NewDecoder(testSecretHex, testIVHex)
	require.NoError(t, err)

	challenges := challenge.NewManager(memstore.NewChallengeStore(), 3*time.Minute)
	memberRepo := memstore.NewMemberRepo()
	userRepo := memstore.NewUserRepo()

	service, err := auth.NewService(decoder, challenges, auth.Repos{
		Members: memberRepo,
		Users:   userRepo,
	})
	require.NoError(t, err)

	return &testFixture{
		service:    service,
		challenges: challenges,
		memberRepo: memberRepo,
		userRepo:   userRepo,
	}
}

func (f *testFixture) addMember(t *testing.T, cardUUID string) {
	t.Helper()
	err := f.memberRepo.Upsert(context.Background(), &members.Member{
		UUID: strings.ToUpper(cardUUID),
		Name: "Jane Doe",
	})
	require.NoError(t, err)
}

func (f *testFixture) addUser(t *testing.T, id string) {
	t.Helper()
	hash, err := users.HashPassword(testPassword)
	require.NoError(t, err)
	err = f.userRepo.Upsert(context.Background(), &users.User{
		ID:           id,
		Username:     testUsername,
		PasswordHash: hash,
		DateJoined:   time.Now().UTC(),
	})
	require.NoError(t, err)
}

// issueAndEncrypt issues a challenge for the client key and builds the
// ciphertext a card would answer with: response || card uuid || reserved,
// AES-CBC under the shared key and IV.
func (f *testFixture) issueAndEncrypt(t *testing.T, clientKey, responseHex, cardUUIDHex string) []byte {
	t.Helper()

	if responseHex == "" {
		ch, err := f.challenges.IssueOrGet(context.Background(), clientKey)
		require.NoError(t, err)
		responseHex = ch.Value
	}

	response, err := hex.DecodeString(responseHex)
	require.NoError(t, err)
	cardUUID, err := hex.DecodeString(cardUUIDHex)
	require.NoError(t, err)

	plaintext := make([]byte, 0, cardcrypto.PayloadLength)
	plaintext = append(plaintext, response...)
	plaintext = append(plaintext, cardUUID...)
	plaintext = append(plaintext, make([]byte, 16)...)

	key, err := hex.DecodeString(testSecretHex)
	require.NoError(t, err)
	iv, err := hex.DecodeString(testIVHex)
	require.NoError(t, err)
	block, err := aes.NewCipher(key)
	require.NoError(t, err)

	ciphertext := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, plaintext)
	return ciphertext
}

func TestVerifyCardResolvesMember(t *testing.T) {
	f := setupTestFixture(t)
	f.addMember(t, testCardUUID)

	payload := f.issueAndEncrypt(t, testClientKey, "", testCardUUID)

	memberUUID, err := f.service.VerifyCard(context.Background(), payload, testClientKey)
	require.NoError(t, err)
	require.Equal(t, testCardUUID, memberUUID)
}

func TestVerifyCardHexForm(t *testing.T) {
	f := setupTestFixture(t)
	f.addMember(t, testCardUUID)

	payload := f.issueAndEncrypt(t, testClientKey, "", testCardUUID)

	memberUUID, err := f.service.VerifyCardHex(context.Background(), hex.EncodeToString(payload), testClientKey)
	require.NoError(t, err)
	require.Equal(t, testCardUUID, memberUUID)
}

func TestVerifyCardConsumesChallenge(t *testing.T) {
	f := setupTestFixture(t)
	f.addMember(t, testCardUUID)
	ctx := context.Background()

	payload := f.issueAndEncrypt(t, testClientKey, "", testCardUUID)

	_, err := f.service.VerifyCard(ctx, payload, testClientKey)
	require.NoError(t, err)

	// Replaying the same ciphertext must fail: the challenge is spent.
	_, err = f.service.VerifyCard(ctx, payload, testClientKey)
	require.ErrorIs(t, err, apperrors.ErrChallengeExpired)
}

func TestVerifyCardWrongResponseKeepsChallengeLive(t *testing.T) {
	f := setupTestFixture(t)
	f.addMember(t, testCardUUID)
	ctx := context.Background()

	ch, err := f.challenges.IssueOrGet(ctx, testClientKey)
	require.NoError(t, err)

	wrong := f.issueAndEncrypt(t, testClientKey, strings.Repeat("ff", 16), testCardUUID)
	_, err = f.service.VerifyCard(ctx, wrong, testClientKey)
	require.ErrorIs(t, err, apperrors.ErrInvalidResponse)

	// A failed tap does not burn the challenge; the correct answer still works.
	right := f.issueAndEncrypt(t, testClientKey, ch.Value, testCardUUID)
	memberUUID, err := f.service.VerifyCard(ctx, right, testClientKey)
	require.NoError(t, err)
	require.Equal(t, testCardUUID, memberUUID)
}

func TestVerifyCardNoChallengeIssued(t *testing.T) {
	f := setupTestFixture(t)
	f.addMember(t, testCardUUID)

	payload := f.issueAndEncrypt(t, "other-kiosk", strings.Repeat("aa", 16), testCardUUID)

	_, err := f.service.VerifyCard(context.Background(), payload, testClientKey)
	require.ErrorIs(t, err, apperrors.ErrChallengeExpired)
}

func TestVerifyCardUnknownCard(t *testing.T) {
	f := setupTestFixture(t)

	payload := f.issueAndEncrypt(t, testClientKey, "", testCardUUID)

	_, err := f.service.VerifyCard(context.Background(), payload, testClientKey)
	require.ErrorIs(t, err, apperrors.ErrMemberNotFound)
}

func TestVerifyCardBadPayload(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.VerifyCard(context.Background(), []byte{0x01, 0x02}, testClientKey)
	require.ErrorIs(t, err, apperrors.ErrInvalidPayload)
}

func TestPasswordLogin(t *testing.T) {
	f := setupTestFixture(t)
	f.addUser(t, "user-1")
	ctx := context.Background()

	user, err := f.service.PasswordLogin(ctx, testUsername, testPassword)
	require.NoError(t, err)
	require.Equal(t, "user-1", user.ID)

	// Bad password and unknown user are indistinguishable.
	_, err = f.service.PasswordLogin(ctx, testUsername, "WrongPassword1")
	require.ErrorIs(t, err, apperrors.ErrUserNotFound)

	_, err = f.service.PasswordLogin(ctx, "nobody", testPassword)
	require.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestRegisterCardMirrorsIntoDirectory(t *testing.T) {
	f := setupTestFixture(t)
	f.addUser(t, "user-1")
	ctx := context.Background()

	lower := strings.ToLower(testCardUUID)
	require.NoError(t, f.service.RegisterCard(ctx, "user-1", lower))

	user, err := f.userRepo.GetByID(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, testCardUUID, user.CardUUID)

	member, err := f.memberRepo.GetByUUID(ctx, testCardUUID)
	require.NoError(t, err)
	require.Equal(t, testUsername, member.Name)
}

func TestRegisterCardUnknownUser(t *testing.T) {
	f := setupTestFixture(t)

	err := f.service.RegisterCard(context.Background(), "ghost", testCardUUID)
	require.ErrorIs(t, err, apperrors.ErrUserNotFound)
}
