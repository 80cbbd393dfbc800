package sqlstore_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ospass/ospass-server/clients"
	apperrors "github.com/ospass/ospass-server/internal/errors"
	"github.com/ospass/ospass-server/members"
	"github.com/ospass/ospass-server/storage/sqlstore"
	"github.com/ospass/ospass-server/users"
)

func openTestStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	store, err := sqlstore.Open(filepath.Join(t.TempDir(), "ospass-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestMemberRepoRoundTrip(t *testing.T) {
	store := openTestStore(t)
	repo := sqlstore.NewMemberRepo(store)
	ctx := context.Background()

	member := &members.Member{
		UUID:     "00112233445566778899AABBCCDDEEFF",
		Name:     "Jane Doe",
		Position: 3,
	}
	require.NoError(t, repo.Upsert(ctx, member))

	got, err := repo.GetByUUID(ctx, member.UUID)
	require.NoError(t, err)
	require.Equal(t, member, got)

	// Upsert replaces fields in place.
	member.Name = "Jane Q. Doe"
	require.NoError(t, repo.Upsert(ctx, member))
	got, err = repo.GetByUUID(ctx, member.UUID)
	require.NoError(t, err)
	require.Equal(t, "Jane Q. Doe", got.Name)
}

func TestMemberRepoNotFound(t *testing.T) {
	store := openTestStore(t)
	repo := sqlstore.NewMemberRepo(store)

	_, err := repo.GetByUUID(context.Background(), "unknown")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUserRepoRoundTripAndBindCard(t *testing.T) {
	store := openTestStore(t)
	repo := sqlstore.NewUserRepo(store)
	ctx := context.Background()

	joined := time.Now().UTC().Truncate(time.Second)
	user := &users.User{
		ID:           "user-1",
		Username:     "jane",
		PasswordHash: "$2a$10$fakehash",
		Phone:        "+1555000",
		DateJoined:   joined,
	}
	require.NoError(t, repo.Upsert(ctx, user))

	byName, err := repo.GetByUsername(ctx, "jane")
	require.NoError(t, err)
	require.Equal(t, user.ID, byName.ID)
	require.Equal(t, joined, byName.DateJoined)
	require.True(t, byName.LastLogin.IsZero())

	require.NoError(t, repo.BindCard(ctx, "user-1", "00112233445566778899AABBCCDDEEFF"))
	byID, err := repo.GetByID(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, "00112233445566778899AABBCCDDEEFF", byID.CardUUID)
}

func TestUserRepoBindCardUnknownUser(t *testing.T) {
	store := openTestStore(t)
	repo := sqlstore.NewUserRepo(store)

	err := repo.BindCard(context.Background(), "ghost", "00112233445566778899AABBCCDDEEFF")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestClientRepoRoundTrip(t *testing.T) {
	store := openTestStore(t)
	repo := sqlstore.NewClientRepo(store)
	ctx := context.Background()

	client := &clients.Client{
		APIKey:       "service-key-1",
		ServiceName:  "Test Service",
		RedirectURIs: []string{"https://a.example.com/cb", "https://b.example.com/cb"},
	}
	require.NoError(t, repo.Upsert(ctx, client))

	got, err := repo.GetByAPIKey(ctx, "service-key-1")
	require.NoError(t, err)
	require.Equal(t, client, got)
	require.True(t, got.AllowsRedirect("https://b.example.com/cb"))
}

func TestClientRepoRejectsInvalidRegistration(t *testing.T) {
	store := openTestStore(t)
	repo := sqlstore.NewClientRepo(store)

	err := repo.Upsert(context.Background(), &clients.Client{APIKey: "k", ServiceName: "s"})
	require.Error(t, err)
}
