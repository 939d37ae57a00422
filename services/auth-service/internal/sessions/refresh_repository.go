// Package sessions stores refresh tokens. Only the SHA-256 of a token is
// persisted; the raw value leaves the service once, in the login response.
package sessions

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/barberbook/libs/db"
)

type RefreshToken struct {
	ID        string
	AccountID string
	Hash      string
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// Usable reports whether the token can still be exchanged at now.
func (t RefreshToken) Usable(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

type RefreshRepository struct{}

func NewRefreshRepository() *RefreshRepository {
	return &RefreshRepository{}
}

func (r *RefreshRepository) Create(ctx context.Context, tx pgx.Tx, token RefreshToken) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO refresh_tokens (id, account_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
	`, token.ID, token.AccountID, token.Hash, token.ExpiresAt)
	return err
}

// GetByHashForUpdate locks the row so concurrent refreshes of one token serialize.
func (r *RefreshRepository) GetByHashForUpdate(ctx context.Context, tx pgx.Tx, hash string) (RefreshToken, bool, error) {
	var token RefreshToken
	err := tx.QueryRow(ctx, `
		SELECT id, account_id, token_hash, expires_at, revoked_at
		FROM refresh_tokens
		WHERE token_hash = $1
		FOR UPDATE
	`, hash).Scan(&token.ID, &token.AccountID, &token.Hash, &token.ExpiresAt, &token.RevokedAt)
	if db.IsNotFound(err) {
		return RefreshToken{}, false, nil
	}
	if err != nil {
		return RefreshToken{}, false, err
	}
	return token, true, nil
}

func (r *RefreshRepository) Revoke(ctx context.Context, tx pgx.Tx, id string) error {
	_, err := tx.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked_at = now()
		WHERE id = $1 AND revoked_at IS NULL
	`, id)
	return err
}

func (r *RefreshRepository) RevokeAll(ctx context.Context, tx pgx.Tx, accountID string) error {
	_, err := tx.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked_at = now()
		WHERE account_id = $1 AND revoked_at IS NULL
	`, accountID)
	return err
}

func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// NewToken returns 32 random bytes, hex encoded.
func NewToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
