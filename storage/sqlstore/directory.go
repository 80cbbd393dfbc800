package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/ospass/ospass-server/clients"
	interrs "github.com/ospass/ospass-server/internal/errors"
	"github.com/ospass/ospass-server/members"
	"github.com/ospass/ospass-server/users"
)

// MemberRepo implements members.Repo on the osmember table.
type MemberRepo struct {
	store *Store
}

var _ members.Repo = (*MemberRepo)(nil)

func NewMemberRepo(store *Store) *MemberRepo {
	return &MemberRepo{store: store}
}

func (r *MemberRepo) GetByUUID(ctx context.Context, uuid string) (*members.Member, error) {
	row := r.store.sqlDB.QueryRowContext(ctx,
		`SELECT uuid, name, position FROM osmember WHERE uuid = ?`, uuid)

	var m members.Member
	if err := row.Scan(&m.UUID, &m.Name, &m.Position); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, interrs.ErrNotFound
		}
		return nil, errors.Wrap(err, "[MemberRepo.GetByUUID] scan member")
	}
	return &m, nil
}

func (r *MemberRepo) Upsert(ctx context.Context, member *members.Member) error {
	_, err := r.store.sqlDB.ExecContext(ctx,
		`INSERT INTO osmember (uuid, name, position) VALUES (?, ?, ?)
		 ON CONFLICT(uuid) DO UPDATE SET name = excluded.name, position = excluded.position`,
		member.UUID, member.Name, member.Position)
	if err != nil {
		return errors.Wrap(err, "[MemberRepo.Upsert] upsert member")
	}
	return nil
}

// UserRepo implements users.Repo on the users table.
type UserRepo struct {
	store *Store
}

var _ users.Repo = (*UserRepo)(nil)

func NewUserRepo(store *Store) *UserRepo {
	return &UserRepo{store: store}
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	return r.getWhere(ctx, `username = ?`, username, "GetByUsername")
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	return r.getWhere(ctx, `id = ?`, id, "GetByID")
}

func (r *UserRepo) getWhere(ctx context.Context, where, arg, method string) (*users.User, error) {
	row := r.store.sqlDB.QueryRowContext(ctx,
		`SELECT id, username, password_hash, phone, card_uuid, date_joined, last_login
		 FROM users WHERE `+where, arg)

	var (
		u         users.User
		joined    int64
		lastLogin int64
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Phone, &u.CardUUID, &joined, &lastLogin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, interrs.ErrNotFound
		}
		return nil, errors.Wrapf(err, "[UserRepo.%s] scan user", method)
	}
	u.DateJoined = time.Unix(joined, 0).UTC()
	if lastLogin > 0 {
		u.LastLogin = time.Unix(lastLogin, 0).UTC()
	}
	return &u, nil
}

func (r *UserRepo) Upsert(ctx context.Context, user *users.User) error {
	var lastLogin int64
	if !user.LastLogin.IsZero() {
		lastLogin = user.LastLogin.Unix()
	}
	_, err := r.store.sqlDB.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, phone, card_uuid, date_joined, last_login)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			password_hash = excluded.password_hash,
			phone = excluded.phone,
			card_uuid = excluded.card_uuid,
			last_login = excluded.last_login`,
		user.ID, user.Username, user.PasswordHash, user.Phone, user.CardUUID,
		user.DateJoined.Unix(), lastLogin)
	if err != nil {
		return errors.Wrap(err, "[UserRepo.Upsert] upsert user")
	}
	return nil
}

func (r *UserRepo) BindCard(ctx context.Context, userID, cardUUID string) error {
	res, err := r.store.sqlDB.ExecContext(ctx,
		`UPDATE users SET card_uuid = ? WHERE id = ?`, cardUUID, userID)
	if err != nil {
		return errors.Wrap(err, "[UserRepo.BindCard] update card uuid")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "[UserRepo.BindCard] rows affected")
	}
	if affected == 0 {
		return interrs.ErrNotFound
	}
	return nil
}

// ClientRepo implements clients.Repo on the api_keys table. Redirect URIs
// are stored as a JSON array column.
type ClientRepo struct {
	store *Store
}

var _ clients.Repo = (*ClientRepo)(nil)

func NewClientRepo(store *Store) *ClientRepo {
	return &ClientRepo{store: store}
}

func (r *ClientRepo) GetByAPIKey(ctx context.Context, apiKey string) (*clients.Client, error) {
	row := r.store.sqlDB.QueryRowContext(ctx,
		`SELECT api_key, service_name, redirect_uris FROM api_keys WHERE api_key = ?`, apiKey)

	var (
		c       clients.Client
		rawURIs string
	)
	if err := row.Scan(&c.APIKey, &c.ServiceName, &rawURIs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, interrs.ErrNotFound
		}
		return nil, errors.Wrap(err, "[ClientRepo.GetByAPIKey] scan client")
	}
	if err := json.Unmarshal([]byte(rawURIs), &c.RedirectURIs); err != nil {
		return nil, errors.Wrap(err, "[ClientRepo.GetByAPIKey] decode redirect uris")
	}
	return &c, nil
}

func (r *ClientRepo) Upsert(ctx context.Context, client *clients.Client) error {
	if err := client.Validate(); err != nil {
		return errors.Wrap(err, "[ClientRepo.Upsert] validate client")
	}
	rawURIs, err := json.Marshal(client.RedirectURIs)
	if err != nil {
		return errors.Wrap(err, "[ClientRepo.Upsert] encode redirect uris")
	}
	_, err = r.store.sqlDB.ExecContext(ctx,
		`INSERT INTO api_keys (api_key, service_name, redirect_uris) VALUES (?, ?, ?)
		 ON CONFLICT(api_key) DO UPDATE SET
			service_name = excluded.service_name,
			redirect_uris = excluded.redirect_uris`,
		client.APIKey, client.ServiceName, string(rawURIs))
	if err != nil {
		return errors.Wrap(err, "[ClientRepo.Upsert] upsert client")
	}
	return nil
}
