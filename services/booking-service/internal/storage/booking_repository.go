package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/barberbook/libs/db"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/scheduling"
)

const appointmentColumns = `id::text, provider_id::text, client_id::text, service_id::text,
	start_time, end_time, status, created_at, updated_at`

// BookingRepository is the Postgres implementation of booking.Store.
type BookingRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewBookingRepository(pool *db.Pool, outboxRepo *outbox.Repository) *BookingRepository {
	return &BookingRepository{pool: pool, outbox: outboxRepo}
}

func (r *BookingRepository) InTx(ctx context.Context, fn func(ctx context.Context, tx booking.Tx) error) error {
	return r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(ctx, &bookingTx{tx: tx, outbox: r.outbox})
	})
}

func (r *BookingRepository) ActiveAppointments(ctx context.Context, providerID string, window scheduling.Interval) ([]model.Appointment, error) {
	return activeAppointments(ctx, r.pool, providerID, window)
}

func (r *BookingRepository) Appointment(ctx context.Context, id string) (model.Appointment, bool, error) {
	if !validID(id) {
		return model.Appointment{}, false, nil
	}
	row := r.pool.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	return scanOptional(row, scanAppointment)
}

func (r *BookingRepository) AppointmentsByProvider(ctx context.Context, providerID string) ([]model.Appointment, error) {
	if !validID(providerID) {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE provider_id = $1
		ORDER BY start_time ASC
	`, providerID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Appointment, error) {
		return scanAppointment(row)
	})
}

// querier is the read surface shared by *db.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func activeAppointments(ctx context.Context, q querier, providerID string, window scheduling.Interval) ([]model.Appointment, error) {
	if !validID(providerID) {
		return nil, nil
	}
	rows, err := q.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE provider_id = $1
			AND status <> 'canceled'
			AND start_time < $3
			AND end_time > $2
		ORDER BY start_time ASC
	`, providerID, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Appointment, error) {
		return scanAppointment(row)
	})
}

type bookingTx struct {
	tx     pgx.Tx
	outbox *outbox.Repository
}

func (t *bookingTx) ActiveAppointments(ctx context.Context, providerID string, window scheduling.Interval) ([]model.Appointment, error) {
	return activeAppointments(ctx, t.tx, providerID, window)
}

// LockProvider takes a transaction-scoped advisory lock keyed by provider id.
func (t *bookingTx) LockProvider(ctx context.Context, providerID string) error {
	_, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, providerID)
	return err
}

func (t *bookingTx) AppointmentForUpdate(ctx context.Context, id string) (model.Appointment, bool, error) {
	if !validID(id) {
		return model.Appointment{}, false, nil
	}
	row := t.tx.QueryRow(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 FOR UPDATE`, id)
	return scanOptional(row, scanAppointment)
}

func (t *bookingTx) CreateAppointment(ctx context.Context, appt model.Appointment) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO appointments
			(id, provider_id, client_id, service_id, start_time, end_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, appt.ID, appt.ProviderID, appt.ClientID, appt.ServiceID, appt.Date, appt.EndTime,
		string(appt.Status), appt.CreatedAt, appt.UpdatedAt)
	return mapWriteError(err)
}

func (t *bookingTx) UpdateAppointment(ctx context.Context, appt model.Appointment) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE appointments
		SET start_time = $2,
			end_time = $3,
			status = $4,
			updated_at = $5
		WHERE id = $1
	`, appt.ID, appt.Date, appt.EndTime, string(appt.Status), appt.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return booking.ErrAppointmentNotFound
	}
	return nil
}

func (t *bookingTx) LockIdempotencyKey(ctx context.Context, scope, key string) (string, error) {
	if _, err := t.tx.Exec(ctx, `
		INSERT INTO booking_idempotency_keys (scope, idempotency_key)
		VALUES ($1, $2)
		ON CONFLICT (scope, idempotency_key) DO NOTHING
	`, scope, key); err != nil {
		return "", err
	}

	var appointmentID string
	err := t.tx.QueryRow(ctx, `
		SELECT COALESCE(appointment_id::text, '')
		FROM booking_idempotency_keys
		WHERE scope = $1 AND idempotency_key = $2
		FOR UPDATE
	`, scope, key).Scan(&appointmentID)
	return appointmentID, err
}

func (t *bookingTx) CompleteIdempotencyKey(ctx context.Context, scope, key, appointmentID string) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE booking_idempotency_keys
		SET appointment_id = $3,
			updated_at = now()
		WHERE scope = $1 AND idempotency_key = $2
	`, scope, key, appointmentID)
	return err
}

func (t *bookingTx) AppendEvent(ctx context.Context, evt outbox.Event) error {
	return t.outbox.Insert(ctx, t.tx, evt)
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var (
		appt   model.Appointment
		status string
	)
	err := row.Scan(
		&appt.ID,
		&appt.ProviderID,
		&appt.ClientID,
		&appt.ServiceID,
		&appt.Date,
		&appt.EndTime,
		&status,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.Status = model.Status(status)
	appt.Date = appt.Date.UTC()
	appt.EndTime = appt.EndTime.UTC()
	return appt, nil
}

func scanOptional[T any](row pgx.Row, scan func(pgx.Row) (T, error)) (T, bool, error) {
	v, err := scan(row)
	if err != nil {
		var zero T
		if db.IsNotFound(err) {
			return zero, false, nil
		}
		return zero, false, err
	}
	return v, true, nil
}

// mapWriteError reports a rejected overlapping row as ErrSlotUnavailable.
func mapWriteError(err error) error {
	if db.IsExclusionViolation(err) {
		return booking.ErrSlotUnavailable
	}
	return err
}

// validID filters out ids Postgres would reject as malformed uuids; such ids
// can never match a row.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
