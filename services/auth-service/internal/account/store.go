package account

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/auth"
	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/outbox"
	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/sessions"
)

// Store is the persistence surface the Service drives. Reads run on the
// pool; writes go through InTx so account rows, refresh tokens and outbox
// events commit together.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	AccountByEmail(ctx context.Context, role, email string) (Account, bool, error)
	Account(ctx context.Context, id string) (Account, bool, error)
}

type Tx interface {
	// CreateAccount returns ErrDuplicateEmail when role and email are taken.
	CreateAccount(ctx context.Context, a Account) error
	AccountForUpdate(ctx context.Context, id string) (Account, bool, error)
	UpdateAccount(ctx context.Context, a Account) error

	CreateRefreshToken(ctx context.Context, t sessions.RefreshToken) error
	RefreshTokenForUpdate(ctx context.Context, hash string) (sessions.RefreshToken, bool, error)
	RevokeRefreshToken(ctx context.Context, id string) error
	RevokeAccountTokens(ctx context.Context, accountID string) error

	AppendEvent(ctx context.Context, evt outbox.Event) error
}

// Tokens issues and checks access tokens. *auth.Signer satisfies it.
type Tokens interface {
	Sign(subject, email, role string) (string, time.Time, error)
	Verify(token string) (*auth.Claims, error)
}
