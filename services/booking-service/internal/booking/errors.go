package booking

import (
	"errors"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/scheduling"
)

var (
	ErrMissingField        = errors.New("missing required field")
	ErrInvalidFormat       = scheduling.ErrInvalidFormat
	ErrInvalidStatus       = errors.New("invalid appointment status")
	ErrProviderNotFound    = errors.New("provider not found")
	ErrServiceNotFound     = errors.New("service not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrSlotUnavailable     = errors.New("provider is not available at this time")
	ErrInvalidTransition   = errors.New("appointment status does not allow this change")
	ErrOutsideWorkHours    = errors.New("requested time is outside the provider's work hours")
	ErrDuplicateService    = errors.New("service already exists")
	ErrForbidden           = errors.New("caller is not allowed to perform this action")
	ErrUnauthorized        = errors.New("authentication required")

	// ErrCorruptService marks a stored service whose duration no longer parses.
	ErrCorruptService = errors.New("stored service record is invalid")
)
