package userservice

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base32"
	"time"

	"github.com/google/uuid"
)

func hashToken(token string) []byte {
	hash := sha256.Sum256([]byte(token))
	return hash[:]
}

func newToken(userID uuid.UUID, ttl time.Duration) (*AuthToken, error) {
	randomBytes := make([]byte, 16)
	_, err := rand.Read(randomBytes)
	if err != nil {
		return nil, err
	}

	token := &AuthToken{
		Plain:  base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(randomBytes),
		UserID: userID,
		Expiry: time.Now().Add(ttl),
	}

	token.Hash = hashToken(token.Plain)

	return token, nil
}

func (m *DBModel) insertAuthToken(tx *sql.Tx, ctx context.Context, token *AuthToken) error {
	query := `
		INSERT INTO auth_tokens (hash, user_id, expiry)
		VALUES ($1, $2, $3)`

	_, err := tx.ExecContext(ctx, query, token.Hash, token.UserID, token.Expiry)
	return err
}

func (m *DBModel) createAuthToken(tx *sql.Tx, ctx context.Context, userID uuid.UUID) (*AuthToken, error) {
	token, err := newToken(userID, AccessTokenTime)
	if err != nil {
		return nil, err
	}

	err = m.insertAuthToken(tx, ctx, token)
	if err != nil {
		return nil, err
	}

	return token, nil
}

// deleteAuthTokens removes every token of the user, expired ones included.
func (m *DBModel) deleteAuthTokens(tx *sql.Tx, ctx context.Context, userID uuid.UUID) error {
	query := `
		DELETE FROM auth_tokens
		WHERE user_id = $1`

	_, err := tx.ExecContext(ctx, query, userID)
	return err
}

func (m *DBModel) deleteExpiredAuthTokens(tx *sql.Tx, ctx context.Context, userID uuid.UUID) error {
	query := `
		DELETE FROM auth_tokens
		WHERE user_id = $1 AND expiry <= $2`

	_, err := tx.ExecContext(ctx, query, userID, time.Now())
	return err
}
