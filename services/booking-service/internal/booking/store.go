package booking

import (
	"context"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/scheduling"
)

// AppointmentFinder returns the non-canceled appointments of a provider whose
// stored interval intersects window.
type AppointmentFinder interface {
	ActiveAppointments(ctx context.Context, providerID string, window scheduling.Interval) ([]model.Appointment, error)
}

// Store is the persistence collaborator of the lifecycle manager. Lookups
// report absence with a false flag rather than an error.
type Store interface {
	AppointmentFinder

	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	Provider(ctx context.Context, id string) (model.Provider, bool, error)
	ActiveProviders(ctx context.Context) ([]model.Provider, error)
	Client(ctx context.Context, id string) (model.Client, bool, error)
	Appointment(ctx context.Context, id string) (model.Appointment, bool, error)
	AppointmentsByProvider(ctx context.Context, providerID string) ([]model.Appointment, error)
}

// Tx is the set of writes that run inside one scheduling transaction.
type Tx interface {
	AppointmentFinder

	// LockProvider serializes scheduling for one provider until the transaction ends.
	LockProvider(ctx context.Context, providerID string) error
	AppointmentForUpdate(ctx context.Context, id string) (model.Appointment, bool, error)
	// CreateAppointment and UpdateAppointment return ErrSlotUnavailable when the
	// storage layer rejects an overlapping row.
	CreateAppointment(ctx context.Context, appt model.Appointment) error
	UpdateAppointment(ctx context.Context, appt model.Appointment) error

	// LockIdempotencyKey returns the appointment id recorded for key, or "" if
	// the key is new. The key stays locked until the transaction ends.
	LockIdempotencyKey(ctx context.Context, scope, key string) (string, error)
	CompleteIdempotencyKey(ctx context.Context, scope, key, appointmentID string) error

	AppendEvent(ctx context.Context, evt outbox.Event) error
}

type ServiceLookup interface {
	Service(ctx context.Context, id string) (model.Service, bool, error)
}

// ServiceStore persists the service catalog.
type ServiceStore interface {
	ServiceLookup
	ListServices(ctx context.Context) ([]model.Service, error)
	// CreateService returns ErrDuplicateService when the name is taken.
	CreateService(ctx context.Context, svc model.Service, evt outbox.Event) error
}
