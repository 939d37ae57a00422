package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/barberbook/libs/db"
	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/account"
	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/outbox"
	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/sessions"
)

const accountColumns = `id::text, role, name, email, phone, password_hash, work_hours, active, version, created_at, updated_at`

// AccountRepository is the Postgres implementation of account.Store.
type AccountRepository struct {
	pool     *db.Pool
	sessions *sessions.RefreshRepository
	outbox   *outbox.Repository
}

func NewAccountRepository(pool *db.Pool, sessionRepo *sessions.RefreshRepository, outboxRepo *outbox.Repository) *AccountRepository {
	return &AccountRepository{pool: pool, sessions: sessionRepo, outbox: outboxRepo}
}

func (r *AccountRepository) InTx(ctx context.Context, fn func(ctx context.Context, tx account.Tx) error) error {
	return r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(ctx, &accountTx{tx: tx, sessions: r.sessions, outbox: r.outbox})
	})
}

func (r *AccountRepository) AccountByEmail(ctx context.Context, role, email string) (account.Account, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE role = $1 AND lower(email) = lower($2)
	`, role, email)
	return scanOptional(row)
}

func (r *AccountRepository) Account(ctx context.Context, id string) (account.Account, bool, error) {
	if !validID(id) {
		return account.Account{}, false, nil
	}
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanOptional(row)
}

type accountTx struct {
	tx       pgx.Tx
	sessions *sessions.RefreshRepository
	outbox   *outbox.Repository
}

func (t *accountTx) CreateAccount(ctx context.Context, a account.Account) error {
	hours, err := encodeHours(a.WorkHours)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, `
		INSERT INTO accounts (id, role, name, email, phone, password_hash, work_hours, active, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, a.ID, a.Role, a.Name, a.Email, a.Phone, a.PasswordHash, hours, a.Active, a.Version, a.CreatedAt, a.UpdatedAt)
	return mapWriteError(err)
}

func (t *accountTx) AccountForUpdate(ctx context.Context, id string) (account.Account, bool, error) {
	if !validID(id) {
		return account.Account{}, false, nil
	}
	row := t.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)
	return scanOptional(row)
}

func (t *accountTx) UpdateAccount(ctx context.Context, a account.Account) error {
	hours, err := encodeHours(a.WorkHours)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(ctx, `
		UPDATE accounts
		SET name = $2, email = $3, phone = $4, password_hash = $5,
		    work_hours = $6, active = $7, version = $8, updated_at = $9
		WHERE id = $1
	`, a.ID, a.Name, a.Email, a.Phone, a.PasswordHash, hours, a.Active, a.Version, a.UpdatedAt)
	return mapWriteError(err)
}

func (t *accountTx) CreateRefreshToken(ctx context.Context, token sessions.RefreshToken) error {
	return t.sessions.Create(ctx, t.tx, token)
}

func (t *accountTx) RefreshTokenForUpdate(ctx context.Context, hash string) (sessions.RefreshToken, bool, error) {
	return t.sessions.GetByHashForUpdate(ctx, t.tx, hash)
}

func (t *accountTx) RevokeRefreshToken(ctx context.Context, id string) error {
	return t.sessions.Revoke(ctx, t.tx, id)
}

func (t *accountTx) RevokeAccountTokens(ctx context.Context, accountID string) error {
	return t.sessions.RevokeAll(ctx, t.tx, accountID)
}

func (t *accountTx) AppendEvent(ctx context.Context, evt outbox.Event) error {
	return t.outbox.Insert(ctx, t.tx, evt)
}

func scanAccount(row pgx.Row) (account.Account, error) {
	var (
		a     account.Account
		hours []byte
	)
	err := row.Scan(&a.ID, &a.Role, &a.Name, &a.Email, &a.Phone, &a.PasswordHash,
		&hours, &a.Active, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return account.Account{}, err
	}
	if len(hours) > 0 {
		if err := json.Unmarshal(hours, &a.WorkHours); err != nil {
			return account.Account{}, fmt.Errorf("decode work hours for %s: %w", a.ID, err)
		}
	}
	if len(a.WorkHours) == 0 {
		a.WorkHours = nil
	}
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return a, nil
}

func scanOptional(row pgx.Row) (account.Account, bool, error) {
	a, err := scanAccount(row)
	if db.IsNotFound(err) {
		return account.Account{}, false, nil
	}
	if err != nil {
		return account.Account{}, false, err
	}
	return a, true, nil
}

func encodeHours(hours []account.WorkHour) ([]byte, error) {
	if hours == nil {
		hours = []account.WorkHour{}
	}
	raw, err := json.Marshal(hours)
	if err != nil {
		return nil, fmt.Errorf("encode work hours: %w", err)
	}
	return raw, nil
}

// mapWriteError reports the (role, email) unique index as ErrDuplicateEmail.
func mapWriteError(err error) error {
	if db.IsUniqueViolation(err) {
		return account.ErrDuplicateEmail
	}
	return err
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
