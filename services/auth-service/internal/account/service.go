package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/barberbook/libs/auth"
	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/outbox"
	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/sessions"
	"golang.org/x/crypto/bcrypt"
)

// Recorder receives registration and login outcomes for metrics.
type Recorder interface {
	Registered(role string)
	Login(role string, ok bool)
}

type nopRecorder struct{}

func (nopRecorder) Registered(string)  {}
func (nopRecorder) Login(string, bool) {}

type Options struct {
	RefreshTTL time.Duration
	// HashCost is the bcrypt cost; zero means bcrypt.DefaultCost.
	HashCost int
	Logger   *slog.Logger
	Recorder Recorder
	Now      func() time.Time
}

type Service struct {
	store      Store
	tokens     Tokens
	refreshTTL time.Duration
	hashCost   int
	logger     *slog.Logger
	recorder   Recorder
	now        func() time.Time
}

func NewService(store Store, tokens Tokens, opts Options) *Service {
	s := &Service{
		store:      store,
		tokens:     tokens,
		refreshTTL: opts.RefreshTTL,
		hashCost:   opts.HashCost,
		logger:     opts.Logger,
		recorder:   opts.Recorder,
		now:        opts.Now,
	}
	if s.refreshTTL <= 0 {
		s.refreshTTL = 30 * 24 * time.Hour
	}
	if s.hashCost == 0 {
		s.hashCost = bcrypt.DefaultCost
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

type RegisterRequest struct {
	Name            string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
	// WorkSchedule is required for providers and ignored for clients.
	WorkSchedule []WorkHour
}

// UpdateProviderRequest carries the profile fields a provider may change.
// Nil fields are left untouched; a password change needs its confirmation.
type UpdateProviderRequest struct {
	Name            *string
	Email           *string
	Phone           *string
	WorkSchedule    *[]WorkHour
	Password        *string
	ConfirmPassword *string
}

func (s *Service) RegisterProvider(ctx context.Context, req RegisterRequest) (Session, error) {
	return s.register(ctx, RoleProvider, req)
}

func (s *Service) RegisterClient(ctx context.Context, req RegisterRequest) (Session, error) {
	req.WorkSchedule = nil
	return s.register(ctx, RoleClient, req)
}

func (s *Service) register(ctx context.Context, role string, req RegisterRequest) (Session, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"name", req.Name},
		{"email", req.Email},
		{"phone", req.Phone},
		{"password", req.Password},
		{"confirm_password", req.ConfirmPassword},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if role == RoleProvider && len(req.WorkSchedule) == 0 {
		missing = append(missing, "work_schedule")
	}
	if len(missing) > 0 {
		return Session{}, fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	if !ValidEmail(req.Email) {
		return Session{}, ErrInvalidEmail
	}
	if err := checkPassword(req.Password, req.ConfirmPassword); err != nil {
		return Session{}, err
	}

	var hours []WorkHour
	if role == RoleProvider {
		var err error
		if hours, err = NormalizeWorkSchedule(req.WorkSchedule); err != nil {
			return Session{}, err
		}
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return Session{}, err
	}
	now := s.now().UTC()
	acct := Account{
		ID:           uuid.NewString(),
		Role:         role,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
		WorkHours:    hours,
		Active:       true,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var evt outbox.Event
	if role == RoleProvider {
		evt, err = providerEvent(outbox.ProviderRegistered, acct)
	} else {
		evt, err = clientEvent(acct)
	}
	if err != nil {
		return Session{}, err
	}

	var refresh string
	err = s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.CreateAccount(ctx, acct); err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, evt); err != nil {
			return err
		}
		refresh, err = s.issueRefreshToken(ctx, tx, acct.ID)
		return err
	})
	if err != nil {
		return Session{}, err
	}

	s.recorder.Registered(role)
	s.logger.Info("account registered", "account_id", acct.ID, "role", role)
	return s.session(acct, refresh)
}

// Login checks credentials for an account of the given role. Unknown emails,
// deactivated accounts and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, role, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Session{}, fmt.Errorf("%w: email and password are required", ErrMissingField)
	}

	acct, ok, err := s.store.AccountByEmail(ctx, role, email)
	if err != nil {
		return Session{}, err
	}
	if !ok || !acct.Active || verifyPassword(acct.PasswordHash, password) != nil {
		s.recorder.Login(role, false)
		return Session{}, ErrInvalidCredentials
	}

	var refresh string
	err = s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		refresh, err = s.issueRefreshToken(ctx, tx, acct.ID)
		return err
	})
	if err != nil {
		return Session{}, err
	}
	s.recorder.Login(role, true)
	return s.session(acct, refresh)
}

// Refresh exchanges a refresh token for a new access token and rotates the
// refresh token. Each refresh token can be exchanged once.
func (s *Service) Refresh(ctx context.Context, rawToken string) (Session, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return Session{}, fmt.Errorf("%w: refresh_token", ErrMissingField)
	}

	var (
		acct    Account
		refresh string
	)
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		current, ok, err := tx.RefreshTokenForUpdate(ctx, sessions.HashToken(rawToken))
		if err != nil {
			return err
		}
		if !ok || !current.Usable(s.now()) {
			return ErrInvalidToken
		}
		var found bool
		acct, found, err = tx.AccountForUpdate(ctx, current.AccountID)
		if err != nil {
			return err
		}
		if !found || !acct.Active {
			return ErrInvalidToken
		}
		if err := tx.RevokeRefreshToken(ctx, current.ID); err != nil {
			return err
		}
		refresh, err = s.issueRefreshToken(ctx, tx, acct.ID)
		return err
	})
	if err != nil {
		return Session{}, err
	}
	return s.session(acct, refresh)
}

// Logout revokes a refresh token. Unknown or already revoked tokens are a no-op.
func (s *Service) Logout(ctx context.Context, rawToken string) error {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return fmt.Errorf("%w: refresh_token", ErrMissingField)
	}
	return s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		current, ok, err := tx.RefreshTokenForUpdate(ctx, sessions.HashToken(rawToken))
		if err != nil || !ok || current.RevokedAt != nil {
			return err
		}
		return tx.RevokeRefreshToken(ctx, current.ID)
	})
}

// Authenticate verifies an access token.
func (s *Service) Authenticate(token string) (*auth.Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Me resolves the active account behind an access token's subject.
func (s *Service) Me(ctx context.Context, subject string) (Account, error) {
	acct, ok, err := s.store.Account(ctx, subject)
	if err != nil {
		return Account{}, err
	}
	if !ok || !acct.Active {
		return Account{}, ErrAccountNotFound
	}
	return acct, nil
}

func (s *Service) UpdateProvider(ctx context.Context, claims *auth.Claims, req UpdateProviderRequest) (Account, error) {
	if claims == nil || claims.Role != RoleProvider {
		return Account{}, ErrForbidden
	}
	if req.Name == nil && req.Email == nil && req.Phone == nil && req.WorkSchedule == nil && req.Password == nil {
		return Account{}, fmt.Errorf("%w: nothing to update", ErrMissingField)
	}

	var (
		hours    []WorkHour
		passHash string
	)
	for _, f := range []struct {
		name  string
		value *string
	}{{"name", req.Name}, {"email", req.Email}, {"phone", req.Phone}} {
		if f.value != nil && strings.TrimSpace(*f.value) == "" {
			return Account{}, fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}
	if req.Email != nil && !ValidEmail(strings.TrimSpace(*req.Email)) {
		return Account{}, ErrInvalidEmail
	}
	if req.WorkSchedule != nil {
		if len(*req.WorkSchedule) == 0 {
			return Account{}, fmt.Errorf("%w: work_schedule", ErrMissingField)
		}
		var err error
		if hours, err = NormalizeWorkSchedule(*req.WorkSchedule); err != nil {
			return Account{}, err
		}
	}
	if req.Password != nil {
		confirm := ""
		if req.ConfirmPassword != nil {
			confirm = *req.ConfirmPassword
		}
		if err := checkPassword(*req.Password, confirm); err != nil {
			return Account{}, err
		}
		var err error
		if passHash, err = s.hashPassword(*req.Password); err != nil {
			return Account{}, err
		}
	}

	var updated Account
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		acct, ok, err := tx.AccountForUpdate(ctx, claims.Subject)
		if err != nil {
			return err
		}
		if !ok || !acct.Active || acct.Role != RoleProvider {
			return ErrAccountNotFound
		}
		if req.Name != nil {
			acct.Name = strings.TrimSpace(*req.Name)
		}
		if req.Email != nil {
			acct.Email = strings.TrimSpace(*req.Email)
		}
		if req.Phone != nil {
			acct.Phone = strings.TrimSpace(*req.Phone)
		}
		if hours != nil {
			acct.WorkHours = hours
		}
		if passHash != "" {
			acct.PasswordHash = passHash
		}
		acct.Version++
		acct.UpdatedAt = s.now().UTC()
		if err := tx.UpdateAccount(ctx, acct); err != nil {
			return err
		}
		evt, err := providerEvent(outbox.ProviderUpdated, acct)
		if err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, evt); err != nil {
			return err
		}
		updated = acct
		return nil
	})
	if err != nil {
		return Account{}, err
	}
	s.logger.Info("provider updated", "account_id", updated.ID)
	return updated, nil
}

// DeactivateProvider soft-deletes the caller's provider account and revokes
// its refresh tokens. Existing appointments stay with booking-service.
func (s *Service) DeactivateProvider(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.Role != RoleProvider {
		return ErrForbidden
	}
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		acct, ok, err := tx.AccountForUpdate(ctx, claims.Subject)
		if err != nil {
			return err
		}
		if !ok || !acct.Active || acct.Role != RoleProvider {
			return ErrAccountNotFound
		}
		acct.Active = false
		acct.Version++
		acct.UpdatedAt = s.now().UTC()
		if err := tx.UpdateAccount(ctx, acct); err != nil {
			return err
		}
		if err := tx.RevokeAccountTokens(ctx, acct.ID); err != nil {
			return err
		}
		evt, err := providerEvent(outbox.ProviderUpdated, acct)
		if err != nil {
			return err
		}
		return tx.AppendEvent(ctx, evt)
	})
	if err != nil {
		return err
	}
	s.logger.Info("provider deactivated", "account_id", claims.Subject)
	return nil
}

func (s *Service) session(acct Account, refresh string) (Session, error) {
	token, expiresAt, err := s.tokens.Sign(acct.ID, acct.Email, acct.Role)
	if err != nil {
		return Session{}, fmt.Errorf("sign access token: %w", err)
	}
	return Session{Account: acct, AccessToken: token, ExpiresAt: expiresAt, RefreshToken: refresh}, nil
}

func (s *Service) issueRefreshToken(ctx context.Context, tx Tx, accountID string) (string, error) {
	raw, err := sessions.NewToken()
	if err != nil {
		return "", err
	}
	err = tx.CreateRefreshToken(ctx, sessions.RefreshToken{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Hash:      sessions.HashToken(raw),
		ExpiresAt: s.now().Add(s.refreshTTL),
	})
	if err != nil {
		return "", err
	}
	return raw, nil
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func verifyPassword(hash, password string) error {
	if hash == "" {
		return errors.New("no password set")
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
