package userservice

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sushihentaime/postline/internal/common"
)

var (
	ErrDuplicateUsername = errors.New("duplicate username")
	ErrDuplicateEmail    = errors.New("duplicate email")
)

func newUserModel(db *sql.DB) *DBModel {
	return &DBModel{db: db}
}

// profileColumns must stay in sync with scanProfile.
const profileColumns = `p.id, p.username, p.full_name, p.avatar_url, p.bio, p.website, p.created_at, p.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner, p *Profile, extra ...any) error {
	dest := []any{&p.ID, &p.Username, &p.FullName, &p.AvatarURL, &p.Bio, &p.Website, &p.CreatedAt, &p.UpdatedAt}
	return row.Scan(append(dest, extra...)...)
}

func (m *DBModel) insertUser(tx *sql.Tx, ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (email, password)
		VALUES ($1, $2)
		RETURNING id, created_at, version`

	err := tx.QueryRowContext(ctx, query, u.Email, u.Password.hash).Scan(&u.ID, &u.CreatedAt, &u.Version)
	if err != nil {
		switch {
		case common.IsUniqueViolation(err, "users_email_key"):
			return ErrDuplicateEmail
		default:
			return err
		}
	}

	return nil
}

func (m *DBModel) insertProfile(tx *sql.Tx, ctx context.Context, p *Profile) error {
	query := `
		INSERT INTO profiles (id, username, full_name)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`

	err := tx.QueryRowContext(ctx, query, p.ID, p.Username, p.FullName).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		switch {
		case common.IsUniqueViolation(err, "profiles_username_key"):
			return ErrDuplicateUsername
		default:
			return err
		}
	}

	return nil
}

func (m *DBModel) getUserByUsername(ctx context.Context, username string) (*User, error) {
	query := `
		SELECT u.email, u.password, u.created_at, u.version, ` + profileColumns + `
		FROM users u
		JOIN profiles p ON p.id = u.id
		WHERE p.username = $1`

	var u User

	row := m.db.QueryRowContext(ctx, query, username)
	err := row.Scan(&u.Email, &u.Password.hash, &u.CreatedAt, &u.Version,
		&u.Profile.ID, &u.Profile.Username, &u.Profile.FullName, &u.Profile.AvatarURL, &u.Profile.Bio, &u.Profile.Website, &u.Profile.CreatedAt, &u.Profile.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	u.ID = u.Profile.ID

	return &u, nil
}

// getUserByToken returns the owner of an unexpired token hash.
func (m *DBModel) getUserByToken(ctx context.Context, hash []byte) (*User, error) {
	query := `
		SELECT u.email, u.created_at, u.version, ` + profileColumns + `
		FROM users u
		JOIN profiles p ON p.id = u.id
		JOIN auth_tokens t ON t.user_id = u.id
		WHERE t.hash = $1 AND t.expiry > $2`

	var u User

	row := m.db.QueryRowContext(ctx, query, hash, time.Now())
	err := row.Scan(&u.Email, &u.CreatedAt, &u.Version,
		&u.Profile.ID, &u.Profile.Username, &u.Profile.FullName, &u.Profile.AvatarURL, &u.Profile.Bio, &u.Profile.Website, &u.Profile.CreatedAt, &u.Profile.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	u.ID = u.Profile.ID

	return &u, nil
}

func (m *DBModel) getProfile(ctx context.Context, where string, arg any) (*Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM profiles p
		WHERE ` + where

	var p Profile
	err := scanProfile(m.db.QueryRowContext(ctx, query, arg), &p)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.ErrRecordNotFound
		default:
			return nil, err
		}
	}

	return &p, nil
}

func (m *DBModel) getProfileByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	return m.getProfile(ctx, "p.id = $1", id)
}

func (m *DBModel) getProfileByUsername(ctx context.Context, username string) (*Profile, error) {
	return m.getProfile(ctx, "p.username = $1", username)
}

func (m *DBModel) updateProfile(ctx context.Context, p *Profile) error {
	query := `
		UPDATE profiles
		SET username = $1, full_name = $2, avatar_url = $3, bio = $4, website = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING created_at, updated_at`

	err := m.db.QueryRowContext(ctx, query, p.Username, p.FullName, p.AvatarURL, p.Bio, p.Website, p.ID).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return common.ErrRecordNotFound
		case common.IsUniqueViolation(err, "profiles_username_key"):
			return ErrDuplicateUsername
		default:
			return err
		}
	}

	return nil
}

func (m *DBModel) updateUserPassword(ctx context.Context, pwd Password, id uuid.UUID, version int) error {
	query := `
		UPDATE users
		SET password = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND version = $3`

	_, err := m.db.ExecContext(ctx, query, pwd.hash, id, version)
	return err
}
