package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/auth"
	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/account"
)

// Accounts is the identity surface the HTTP layer drives.
type Accounts interface {
	RegisterProvider(ctx context.Context, req account.RegisterRequest) (account.Session, error)
	RegisterClient(ctx context.Context, req account.RegisterRequest) (account.Session, error)
	Login(ctx context.Context, role, email, password string) (account.Session, error)
	Refresh(ctx context.Context, rawToken string) (account.Session, error)
	Logout(ctx context.Context, rawToken string) error
	Authenticate(token string) (*auth.Claims, error)
	Me(ctx context.Context, subject string) (account.Account, error)
	UpdateProvider(ctx context.Context, claims *auth.Claims, req account.UpdateProviderRequest) (account.Account, error)
	DeactivateProvider(ctx context.Context, claims *auth.Claims) error
}

type AuthHandler struct {
	accounts Accounts
	logger   *slog.Logger
}

func NewAuthHandler(accounts Accounts, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, logger: logger}
}

type registerRequest struct {
	Name            string             `json:"name"`
	Email           string             `json:"email"`
	Phone           string             `json:"phone"`
	Password        string             `json:"password"`
	ConfirmPassword string             `json:"confirm_password"`
	WorkSchedule    []account.WorkHour `json:"work_schedule,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type updateProviderRequest struct {
	Name            *string             `json:"name"`
	Email           *string             `json:"email"`
	Phone           *string             `json:"phone"`
	WorkSchedule    *[]account.WorkHour `json:"work_schedule"`
	Password        *string             `json:"password"`
	ConfirmPassword *string             `json:"confirm_password"`
}

type accountResponse struct {
	ID           string             `json:"id"`
	Role         string             `json:"role"`
	Name         string             `json:"name"`
	Email        string             `json:"email"`
	Phone        string             `json:"phone"`
	WorkSchedule []account.WorkHour `json:"work_schedule,omitempty"`
	CreatedAt    string             `json:"created_at"`
}

type sessionResponse struct {
	Message      string          `json:"message"`
	AccessToken  string          `json:"access_token"`
	TokenType    string          `json:"token_type"`
	ExpiresAt    string          `json:"expires_at"`
	RefreshToken string          `json:"refresh_token"`
	Account      accountResponse `json:"account"`
}

func (h *AuthHandler) RegisterProvider(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, h.accounts.RegisterProvider, "provider registered")
}

func (h *AuthHandler) RegisterClient(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, h.accounts.RegisterClient, "client registered")
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request,
	register func(context.Context, account.RegisterRequest) (account.Session, error), message string) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	sess, err := register(r.Context(), account.RegisterRequest{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		WorkSchedule:    req.WorkSchedule,
	})
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toSessionResponse(message, sess))
}

func (h *AuthHandler) loginAs(role string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.WriteError(w, r, http.StatusBadRequest, "invalid json body")
			return
		}
		sess, err := h.accounts.Login(r.Context(), role, req.Email, req.Password)
		if err != nil {
			writeDomainError(w, r, h.logger, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, toSessionResponse("login successful", sess))
	}
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	sess, err := h.accounts.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toSessionResponse("token refreshed", sess))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := h.accounts.Logout(r.Context(), req.RefreshToken); err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	acct, err := h.accounts.Me(r.Context(), claims.Subject)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"account": toAccountResponse(acct)})
}

func (h *AuthHandler) UpdateProvider(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	var req updateProviderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	acct, err := h.accounts.UpdateProvider(r.Context(), claims, account.UpdateProviderRequest{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		WorkSchedule:    req.WorkSchedule,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "provider updated",
		"account": toAccountResponse(acct),
	})
}

func (h *AuthHandler) DeactivateProvider(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	if err := h.accounts.DeactivateProvider(r.Context(), claims); err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "provider deactivated"})
}

func toSessionResponse(message string, sess account.Session) sessionResponse {
	return sessionResponse{
		Message:      message,
		AccessToken:  sess.AccessToken,
		TokenType:    "Bearer",
		ExpiresAt:    sess.ExpiresAt.UTC().Format(time.RFC3339),
		RefreshToken: sess.RefreshToken,
		Account:      toAccountResponse(sess.Account),
	}
}

func toAccountResponse(a account.Account) accountResponse {
	return accountResponse{
		ID:           a.ID,
		Role:         a.Role,
		Name:         a.Name,
		Email:        a.Email,
		Phone:        a.Phone,
		WorkSchedule: a.WorkHours,
		CreatedAt:    a.CreatedAt.UTC().Format(time.RFC3339),
	}
}
