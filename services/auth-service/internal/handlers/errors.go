package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/barberbook/libs/auth"
	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/account"
)

var statusByError = []struct {
	err    error
	status int
}{
	{account.ErrMissingField, http.StatusBadRequest},
	{account.ErrInvalidEmail, http.StatusBadRequest},
	{account.ErrWeakPassword, http.StatusBadRequest},
	{account.ErrPasswordMismatch, http.StatusBadRequest},
	{account.ErrInvalidWorkSchedule, http.StatusBadRequest},
	{account.ErrInvalidCredentials, http.StatusUnauthorized},
	{account.ErrInvalidToken, http.StatusUnauthorized},
	{account.ErrForbidden, http.StatusForbidden},
	{account.ErrAccountNotFound, http.StatusNotFound},
	{account.ErrDuplicateEmail, http.StatusConflict},
}

func writeDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			httpx.WriteError(w, r, m.status, err.Error())
			return
		}
	}
	logger.ErrorContext(r.Context(), "request failed",
		"err", err,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", httpx.RequestIDFromContext(r.Context()),
	)
	httpx.WriteError(w, r, http.StatusInternalServerError, "internal error")
}

// authenticate verifies the bearer access token on r.
func (h *AuthHandler) authenticate(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	token, ok := auth.BearerToken(r.Header.Get("Authorization"))
	if !ok {
		httpx.WriteError(w, r, http.StatusUnauthorized, "missing bearer token")
		return nil, false
	}
	claims, err := h.accounts.Authenticate(token)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return nil, false
	}
	return claims, true
}
