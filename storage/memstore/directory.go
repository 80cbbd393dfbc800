package memstore

import (
	"context"
	"sync"

	"github.com/ospass/ospass-server/clients"
	apperrors "github.com/ospass/ospass-server/internal/errors"
	"github.com/ospass/ospass-server/members"
	"github.com/ospass/ospass-server/users"
)

// MemberRepo is an in-memory members.Repo.
type MemberRepo struct {
	mu      sync.RWMutex
	records map[string]members.Member
}

var _ members.Repo = (*MemberRepo)(nil)

// NewMemberRepo creates an empty in-memory member directory.
func NewMemberRepo() *MemberRepo {
	return &MemberRepo{records: make(map[string]members.Member)}
}

func (r *MemberRepo) GetByUUID(ctx context.Context, uuid string) (*members.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	member, ok := r.records[uuid]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &member, nil
}

func (r *MemberRepo) Upsert(ctx context.Context, member *members.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[member.UUID] = *member
	return nil
}

// UserRepo is an in-memory users.Repo.
type UserRepo struct {
	mu         sync.RWMutex
	byID       map[string]users.User
	byUsername map[string]string
}

var _ users.Repo = (*UserRepo)(nil)

// NewUserRepo creates an empty in-memory user repo.
func NewUserRepo() *UserRepo {
	return &UserRepo{
		byID:       make(map[string]users.User),
		byUsername: make(map[string]string),
	}
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	user := r.byID[id]
	return &user, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &user, nil
}

func (r *UserRepo) Upsert(ctx context.Context, user *users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[user.ID] = *user
	r.byUsername[user.Username] = user.ID
	return nil
}

func (r *UserRepo) BindCard(ctx context.Context, userID, cardUUID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[userID]
	if !ok {
		return apperrors.ErrNotFound
	}
	user.CardUUID = cardUUID
	r.byID[userID] = user
	return nil
}

// ClientRepo is an in-memory clients.Repo.
type ClientRepo struct {
	mu      sync.RWMutex
	records map[string]clients.Client
}

var _ clients.Repo = (*ClientRepo)(nil)

// NewClientRepo creates an empty in-memory client registry.
func NewClientRepo() *ClientRepo {
	return &ClientRepo{records: make(map[string]clients.Client)}
}

func (r *ClientRepo) GetByAPIKey(ctx context.Context, apiKey string) (*clients.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, ok := r.records[apiKey]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &client, nil
}

func (r *ClientRepo) Upsert(ctx context.Context, client *clients.Client) error {
	if err := client.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[client.APIKey] = *client
	return nil
}
