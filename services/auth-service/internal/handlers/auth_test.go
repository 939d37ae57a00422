package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/auth"
	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/account"
)

type stubAccounts struct {
	signer     *auth.Signer
	registered account.RegisterRequest
	loginRole  string
	update     account.UpdateProviderRequest
	err        error
}

func (s *stubAccounts) session(role string) account.Session {
	token, exp, _ := s.signer.Sign("acct-1", "ana@barber.shop", role)
	return account.Session{
		Account:      account.Account{ID: "acct-1", Role: role, Email: "ana@barber.shop", Active: true},
		AccessToken:  token,
		ExpiresAt:    exp,
		RefreshToken: "refresh-1",
	}
}

func (s *stubAccounts) RegisterProvider(_ context.Context, req account.RegisterRequest) (account.Session, error) {
	s.registered = req
	if s.err != nil {
		return account.Session{}, s.err
	}
	return s.session(account.RoleProvider), nil
}

func (s *stubAccounts) RegisterClient(_ context.Context, req account.RegisterRequest) (account.Session, error) {
	s.registered = req
	if s.err != nil {
		return account.Session{}, s.err
	}
	return s.session(account.RoleClient), nil
}

func (s *stubAccounts) Login(_ context.Context, role, _, _ string) (account.Session, error) {
	s.loginRole = role
	if s.err != nil {
		return account.Session{}, s.err
	}
	return s.session(role), nil
}

func (s *stubAccounts) Refresh(context.Context, string) (account.Session, error) {
	if s.err != nil {
		return account.Session{}, s.err
	}
	return s.session(account.RoleClient), nil
}

func (s *stubAccounts) Logout(context.Context, string) error { return s.err }

func (s *stubAccounts) Authenticate(token string) (*auth.Claims, error) {
	claims, err := s.signer.Verify(token)
	if err != nil {
		return nil, account.ErrInvalidToken
	}
	return claims, nil
}

func (s *stubAccounts) Me(_ context.Context, subject string) (account.Account, error) {
	return account.Account{ID: subject, Role: account.RoleClient, Email: "ana@barber.shop"}, s.err
}

func (s *stubAccounts) UpdateProvider(_ context.Context, claims *auth.Claims, req account.UpdateProviderRequest) (account.Account, error) {
	s.update = req
	if claims.Role != account.RoleProvider {
		return account.Account{}, account.ErrForbidden
	}
	return account.Account{ID: claims.Subject, Role: claims.Role}, s.err
}

func (s *stubAccounts) DeactivateProvider(_ context.Context, claims *auth.Claims) error {
	if claims.Role != account.RoleProvider {
		return account.ErrForbidden
	}
	return s.err
}

func newTestServer(t *testing.T) (http.Handler, *stubAccounts) {
	t.Helper()
	stub := &stubAccounts{signer: auth.NewSigner("test-secret", time.Hour)}
	mux := http.NewServeMux()
	Register(mux, NewAuthHandler(stub, slog.New(slog.DiscardHandler)))
	return httpx.WithRequestID(mux), stub
}

func do(h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	return rw
}

func TestRegisterProviderReturnsSession(t *testing.T) {
	h, stub := newTestServer(t)
	rw := do(h, http.MethodPost, "/api/v1/auth/providers/register", `{
		"name": "Ana", "email": "ana@barber.shop", "phone": "555-0100",
		"password": "secret123", "confirm_password": "secret123",
		"work_schedule": [{"day": "monday", "start": "09:00", "end": "18:00"}]
	}`, "")
	if rw.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rw.Code, rw.Body.String())
	}
	var resp sessionResponse
	if err := json.Unmarshal(rw.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AccessToken == "" || resp.TokenType != "Bearer" || resp.Account.Role != account.RoleProvider {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(stub.registered.WorkSchedule) != 1 || stub.registered.ConfirmPassword != "secret123" {
		t.Fatalf("request not forwarded: %+v", stub.registered)
	}
}

func TestRegisterErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: name", account.ErrMissingField), http.StatusBadRequest},
		{account.ErrWeakPassword, http.StatusBadRequest},
		{account.ErrDuplicateEmail, http.StatusConflict},
		{fmt.Errorf("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		h, stub := newTestServer(t)
		stub.err = tc.err
		rw := do(h, http.MethodPost, "/api/v1/auth/clients/register", `{"name":"Bruno"}`, "")
		if rw.Code != tc.want {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.want, rw.Code)
		}
		var body httpx.ErrorBody
		if err := json.Unmarshal(rw.Body.Bytes(), &body); err != nil || body.Status != tc.want || body.RequestID == "" {
			t.Errorf("%v: unexpected error body %s", tc.err, rw.Body.String())
		}
		if tc.want == http.StatusInternalServerError && body.Message != "internal error" {
			t.Errorf("internal errors must not leak, got %q", body.Message)
		}
	}
}

func TestRegisterRejectsUnknownFields(t *testing.T) {
	h, _ := newTestServer(t)
	rw := do(h, http.MethodPost, "/api/v1/auth/clients/register", `{"name":"Bruno","role":"provider"}`, "")
	if rw.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rw.Code)
	}
}

func TestLoginRoutesByRole(t *testing.T) {
	h, stub := newTestServer(t)
	rw := do(h, http.MethodPost, "/api/v1/auth/clients/login", `{"email":"ana@barber.shop","password":"secret123"}`, "")
	if rw.Code != http.StatusOK || stub.loginRole != account.RoleClient {
		t.Fatalf("client login: %d role=%q", rw.Code, stub.loginRole)
	}
	do(h, http.MethodPost, "/api/v1/auth/providers/login", `{"email":"ana@barber.shop","password":"secret123"}`, "")
	if stub.loginRole != account.RoleProvider {
		t.Fatalf("expected provider login, got %q", stub.loginRole)
	}

	stub.err = account.ErrInvalidCredentials
	rw = do(h, http.MethodPost, "/api/v1/auth/providers/login", `{"email":"ana@barber.shop","password":"nope"}`, "")
	if rw.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rw.Code)
	}
}

func TestLogoutNoContent(t *testing.T) {
	h, _ := newTestServer(t)
	rw := do(h, http.MethodPost, "/api/v1/auth/logout", `{"refresh_token":"refresh-1"}`, "")
	if rw.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rw.Code)
	}
}

func TestMeRequiresBearerToken(t *testing.T) {
	h, stub := newTestServer(t)
	if rw := do(h, http.MethodGet, "/api/v1/auth/me", "", ""); rw.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401, got %d", rw.Code)
	}
	if rw := do(h, http.MethodGet, "/api/v1/auth/me", "", "garbage"); rw.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: expected 401, got %d", rw.Code)
	}

	token, _, _ := stub.signer.Sign("acct-9", "x@y.io", account.RoleClient)
	rw := do(h, http.MethodGet, "/api/v1/auth/me", "", token)
	if rw.Code != http.StatusOK || !strings.Contains(rw.Body.String(), `"id":"acct-9"`) {
		t.Fatalf("expected account acct-9, got %d %s", rw.Code, rw.Body.String())
	}
}

func TestProviderSelfRoutes(t *testing.T) {
	h, stub := newTestServer(t)
	providerToken, _, _ := stub.signer.Sign("prov-1", "ana@barber.shop", account.RoleProvider)
	clientToken, _, _ := stub.signer.Sign("cli-1", "bruno@mail.com", account.RoleClient)

	rw := do(h, http.MethodPatch, "/api/v1/auth/providers/me", `{"name":"Ana Paula"}`, providerToken)
	if rw.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", rw.Code, rw.Body.String())
	}
	if stub.update.Name == nil || *stub.update.Name != "Ana Paula" || stub.update.Phone != nil {
		t.Fatalf("unexpected update %+v", stub.update)
	}

	if rw := do(h, http.MethodPatch, "/api/v1/auth/providers/me", `{"name":"X"}`, clientToken); rw.Code != http.StatusForbidden {
		t.Fatalf("client update: expected 403, got %d", rw.Code)
	}
	if rw := do(h, http.MethodDelete, "/api/v1/auth/providers/me", "", ""); rw.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous deactivate: expected 401, got %d", rw.Code)
	}
	if rw := do(h, http.MethodDelete, "/api/v1/auth/providers/me", "", providerToken); rw.Code != http.StatusOK {
		t.Fatalf("deactivate: expected 200, got %d", rw.Code)
	}
}
