package handlers

import (
	"net/http"

	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/account"
)

// Register mounts the identity API on mux.
func Register(mux *http.ServeMux, h *AuthHandler) {
	mux.HandleFunc("POST /api/v1/auth/providers/register", h.RegisterProvider)
	mux.HandleFunc("POST /api/v1/auth/providers/login", h.loginAs(account.RoleProvider))
	mux.HandleFunc("PATCH /api/v1/auth/providers/me", h.UpdateProvider)
	mux.HandleFunc("DELETE /api/v1/auth/providers/me", h.DeactivateProvider)

	mux.HandleFunc("POST /api/v1/auth/clients/register", h.RegisterClient)
	mux.HandleFunc("POST /api/v1/auth/clients/login", h.loginAs(account.RoleClient))

	mux.HandleFunc("POST /api/v1/auth/refresh", h.Refresh)
	mux.HandleFunc("POST /api/v1/auth/logout", h.Logout)
	mux.HandleFunc("GET /api/v1/auth/me", h.Me)
}
