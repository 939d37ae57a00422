package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/booking"
)

const roleClient = "client"

var statusByError = []struct {
	err    error
	status int
}{
	{booking.ErrMissingField, http.StatusBadRequest},
	{booking.ErrInvalidFormat, http.StatusBadRequest},
	{booking.ErrInvalidStatus, http.StatusBadRequest},
	{booking.ErrUnauthorized, http.StatusUnauthorized},
	{booking.ErrForbidden, http.StatusForbidden},
	{booking.ErrProviderNotFound, http.StatusNotFound},
	{booking.ErrServiceNotFound, http.StatusNotFound},
	{booking.ErrAppointmentNotFound, http.StatusNotFound},
	{booking.ErrSlotUnavailable, http.StatusConflict},
	{booking.ErrInvalidTransition, http.StatusConflict},
	{booking.ErrDuplicateService, http.StatusConflict},
	{booking.ErrOutsideWorkHours, http.StatusUnprocessableEntity},
}

// writeDomainError maps err to its HTTP status. Anything unrecognized is
// logged and reported as a bare 500.
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

// requireSubject reads the caller identity the gateway forwards after
// verifying the bearer token.
func requireSubject(w http.ResponseWriter, r *http.Request) (booking.Subject, bool) {
	subject := booking.Subject{
		ID:   strings.TrimSpace(r.Header.Get("X-User-Id")),
		Role: strings.TrimSpace(r.Header.Get("X-Role")),
	}
	if subject.ID == "" {
		httpx.WriteError(w, r, http.StatusUnauthorized, booking.ErrUnauthorized.Error())
		return booking.Subject{}, false
	}
	return subject, true
}
