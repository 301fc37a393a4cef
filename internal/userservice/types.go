package userservice

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sushihentaime/postline/internal/common"
)

const (
	AccessTokenTime time.Duration = 7 * 24 * time.Hour
)

var (
	AnonymousUser = User{}
)

type UserService struct {
	m      *DBModel
	mb     common.MessageProducer
	logger *slog.Logger
}

type DBModel struct {
	db *sql.DB
}

// User is the authenticated identity. Its public face is Profile.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Password  Password  `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	Version   int       `json:"version"`
	Profile   Profile   `json:"profile"`
}

type Password struct {
	Plain string `json:"-"`
	hash  []byte `json:"-"`
}

// Profile is one-to-one with User and shares its id.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FullName  *string   `json:"full_name"`
	AvatarURL *string   `json:"avatar_url"`
	Bio       *string   `json:"bio"`
	Website   *string   `json:"website"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuthToken is a bearer token. Only its sha256 hash is stored.
type AuthToken struct {
	Plain  string    `json:"token"`
	Hash   []byte    `json:"-"`
	UserID uuid.UUID `json:"user_id"`
	Expiry time.Time `json:"expiry"`
}
