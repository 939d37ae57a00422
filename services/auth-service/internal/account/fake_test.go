package account

import (
	"context"
	"strings"
	"sync"

	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/outbox"
	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/sessions"
)

// memStore is an in-memory Store whose transactions roll back on error.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]Account
	tokens   map[string]sessions.RefreshToken
	events   []outbox.Event
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[string]Account{},
		tokens:   map[string]sessions.RefreshToken{},
	}
}

func (s *memStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := make(map[string]Account, len(s.accounts))
	for k, v := range s.accounts {
		accounts[k] = v
	}
	tokens := make(map[string]sessions.RefreshToken, len(s.tokens))
	for k, v := range s.tokens {
		tokens[k] = v
	}
	events := len(s.events)

	if err := fn(ctx, memTx{s}); err != nil {
		s.accounts = accounts
		s.tokens = tokens
		s.events = s.events[:events]
		return err
	}
	return nil
}

func (s *memStore) AccountByEmail(_ context.Context, role, email string) (Account, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Role == role && strings.EqualFold(a.Email, email) {
			return a, true, nil
		}
	}
	return Account{}, false, nil
}

func (s *memStore) Account(_ context.Context, id string) (Account, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	return a, ok, nil
}

func (s *memStore) eventTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType)
	}
	return out
}

func (s *memStore) lastEvent() outbox.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[len(s.events)-1]
}

// memTx runs with memStore.mu held by InTx.
type memTx struct{ s *memStore }

func (t memTx) CreateAccount(_ context.Context, a Account) error {
	for _, existing := range t.s.accounts {
		if existing.Role == a.Role && strings.EqualFold(existing.Email, a.Email) {
			return ErrDuplicateEmail
		}
	}
	t.s.accounts[a.ID] = a
	return nil
}

func (t memTx) AccountForUpdate(_ context.Context, id string) (Account, bool, error) {
	a, ok := t.s.accounts[id]
	return a, ok, nil
}

func (t memTx) UpdateAccount(_ context.Context, a Account) error {
	for _, existing := range t.s.accounts {
		if existing.ID != a.ID && existing.Role == a.Role && strings.EqualFold(existing.Email, a.Email) {
			return ErrDuplicateEmail
		}
	}
	t.s.accounts[a.ID] = a
	return nil
}

func (t memTx) CreateRefreshToken(_ context.Context, tok sessions.RefreshToken) error {
	t.s.tokens[tok.Hash] = tok
	return nil
}

func (t memTx) RefreshTokenForUpdate(_ context.Context, hash string) (sessions.RefreshToken, bool, error) {
	tok, ok := t.s.tokens[hash]
	return tok, ok, nil
}

func (t memTx) RevokeRefreshToken(_ context.Context, id string) error {
	for h, tok := range t.s.tokens {
		if tok.ID == id {
			revoked := tok.ExpiresAt
			tok.RevokedAt = &revoked
			t.s.tokens[h] = tok
		}
	}
	return nil
}

func (t memTx) RevokeAccountTokens(_ context.Context, accountID string) error {
	for h, tok := range t.s.tokens {
		if tok.AccountID == accountID && tok.RevokedAt == nil {
			revoked := tok.ExpiresAt
			tok.RevokedAt = &revoked
			t.s.tokens[h] = tok
		}
	}
	return nil
}

func (t memTx) AppendEvent(_ context.Context, evt outbox.Event) error {
	t.s.events = append(t.s.events, evt)
	return nil
}

type countingRecorder struct {
	registered map[string]int
	failures   int
}

func (r *countingRecorder) Registered(role string) {
	if r.registered == nil {
		r.registered = map[string]int{}
	}
	r.registered[role]++
}

func (r *countingRecorder) Login(_ string, ok bool) {
	if !ok {
		r.failures++
	}
}
