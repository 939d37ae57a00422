// Package booking implements the appointment lifecycle: scheduling a slot
// with a provider, rescheduling or closing it later, and the read side that
// goes with it.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/scheduling"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Recorder receives lifecycle outcomes for metrics.
type Recorder interface {
	Scheduled()
	Conflict()
	Updated(status model.Status)
}

type nopRecorder struct{}

func (nopRecorder) Scheduled()           {}
func (nopRecorder) Conflict()            {}
func (nopRecorder) Updated(model.Status) {}

type Options struct {
	// EnforceWorkHours rejects slots outside the provider's declared windows.
	EnforceWorkHours bool
	// SlotStep is the spacing between candidate starts in AvailableSlots.
	SlotStep time.Duration
	Logger   *slog.Logger
	Recorder Recorder
	Now      func() time.Time
}

type Manager struct {
	store            Store
	services         ServiceLookup
	enforceWorkHours bool
	slotStep         time.Duration
	logger           *slog.Logger
	recorder         Recorder
	now              func() time.Time
	tracer           trace.Tracer
}

func NewManager(store Store, services ServiceLookup, opts Options) *Manager {
	m := &Manager{
		store:            store,
		services:         services,
		enforceWorkHours: opts.EnforceWorkHours,
		slotStep:         opts.SlotStep,
		logger:           opts.Logger,
		recorder:         opts.Recorder,
		now:              opts.Now,
		tracer:           otel.Tracer("booking-service/booking"),
	}
	if m.slotStep <= 0 {
		m.slotStep = 15 * time.Minute
	}
	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}
	if m.recorder == nil {
		m.recorder = nopRecorder{}
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

type ScheduleRequest struct {
	ProviderID string
	ClientID   string
	ServiceID  string
	Date       time.Time
	// IdempotencyKey, when set, makes retries of the same request return the
	// appointment created by the first attempt.
	IdempotencyKey string
}

// Schedule books a new appointment after checking the provider is free for
// the whole service duration.
func (m *Manager) Schedule(ctx context.Context, req ScheduleRequest) (appt model.Appointment, err error) {
	ctx, span := m.tracer.Start(ctx, "booking.schedule", trace.WithAttributes(
		attribute.String("provider_id", req.ProviderID),
		attribute.String("service_id", req.ServiceID),
	))
	defer func() { endSpan(span, err) }()

	req.ProviderID = strings.TrimSpace(req.ProviderID)
	req.ClientID = strings.TrimSpace(req.ClientID)
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	req.IdempotencyKey = strings.TrimSpace(req.IdempotencyKey)
	if missing := missingScheduleFields(req); len(missing) > 0 {
		return model.Appointment{}, fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}

	provider, ok, err := m.store.Provider(ctx, req.ProviderID)
	if err != nil {
		return model.Appointment{}, fmt.Errorf("lookup provider: %w", err)
	}
	if !ok || !provider.Active {
		return model.Appointment{}, ErrProviderNotFound
	}

	slot, err := m.slotFor(ctx, req.ServiceID, req.Date)
	if err != nil {
		return model.Appointment{}, err
	}
	if err := m.checkWorkHours(provider, slot); err != nil {
		return model.Appointment{}, err
	}

	now := m.now().UTC()
	appt = model.Appointment{
		ID:         uuid.NewString(),
		ProviderID: req.ProviderID,
		ClientID:   req.ClientID,
		ServiceID:  req.ServiceID,
		Date:       slot.Start,
		EndTime:    slot.End,
		Status:     model.StatusScheduled,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	replayed := false
	err = m.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.LockProvider(ctx, req.ProviderID); err != nil {
			return fmt.Errorf("lock provider: %w", err)
		}

		if req.IdempotencyKey != "" {
			prevID, err := tx.LockIdempotencyKey(ctx, req.ClientID, req.IdempotencyKey)
			if err != nil {
				return fmt.Errorf("lock idempotency key: %w", err)
			}
			if prevID != "" {
				prev, ok, err := tx.AppointmentForUpdate(ctx, prevID)
				if err != nil {
					return fmt.Errorf("load replayed appointment: %w", err)
				}
				if !ok {
					return ErrAppointmentNotFound
				}
				appt = prev
				replayed = true
				return nil
			}
		}

		conflict, found, err := FindConflict(ctx, tx, req.ProviderID, slot, "")
		if err != nil {
			return fmt.Errorf("check conflicts: %w", err)
		}
		if found {
			m.logger.InfoContext(ctx, "appointment conflict",
				"provider_id", req.ProviderID,
				"conflicting_appointment_id", conflict.ID,
			)
			return ErrSlotUnavailable
		}

		if err := tx.CreateAppointment(ctx, appt); err != nil {
			return err
		}
		evt, err := appointmentEvent(scheduledEvent, appt)
		if err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, evt); err != nil {
			return fmt.Errorf("append event: %w", err)
		}
		if req.IdempotencyKey != "" {
			if err := tx.CompleteIdempotencyKey(ctx, req.ClientID, req.IdempotencyKey, appt.ID); err != nil {
				return fmt.Errorf("complete idempotency key: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSlotUnavailable) {
			m.recorder.Conflict()
		}
		return model.Appointment{}, err
	}

	if replayed {
		m.logger.InfoContext(ctx, "appointment schedule replayed", "appointment_id", appt.ID)
		return appt, nil
	}
	m.recorder.Scheduled()
	m.logger.InfoContext(ctx, "appointment scheduled",
		"appointment_id", appt.ID,
		"provider_id", appt.ProviderID,
		"start", appt.Date.Format(time.RFC3339),
	)
	return appt, nil
}

// UpdateRequest lists the fields an update may touch. Nil means unchanged.
type UpdateRequest struct {
	Status *model.Status
	Date   *time.Time
}

// Update applies a status change and/or a reschedule to an appointment.
// A status-only change never consults other appointments; a date change
// re-runs the slot pipeline with the appointment excluded from the conflict set.
func (m *Manager) Update(ctx context.Context, id string, req UpdateRequest) (appt model.Appointment, err error) {
	ctx, span := m.tracer.Start(ctx, "booking.update", trace.WithAttributes(attribute.String("appointment_id", id)))
	defer func() { endSpan(span, err) }()

	id = strings.TrimSpace(id)
	if id == "" {
		return model.Appointment{}, fmt.Errorf("%w: appointment id", ErrMissingField)
	}
	if req.Status != nil {
		if _, ok := model.ParseStatus(string(*req.Status)); !ok {
			return model.Appointment{}, fmt.Errorf("%w: %q", ErrInvalidStatus, *req.Status)
		}
	}
	if req.Date != nil && req.Date.IsZero() {
		return model.Appointment{}, fmt.Errorf("%w: date", ErrMissingField)
	}

	changed := false
	err = m.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		current, ok, err := tx.AppointmentForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("load appointment: %w", err)
		}
		if !ok {
			return ErrAppointmentNotFound
		}
		appt = current

		if req.Status != nil && *req.Status != appt.Status {
			if !appt.Status.CanTransitionTo(*req.Status) {
				return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appt.Status, *req.Status)
			}
			appt.Status = *req.Status
			changed = true
		}

		if req.Date != nil {
			moved, err := m.reschedule(ctx, tx, &appt, *req.Date)
			if err != nil {
				return err
			}
			changed = changed || moved
		}

		if !changed {
			return nil
		}
		appt.UpdatedAt = m.now().UTC()
		if err := tx.UpdateAppointment(ctx, appt); err != nil {
			return err
		}
		evt, err := appointmentEvent(updatedEvent, appt)
		if err != nil {
			return err
		}
		return tx.AppendEvent(ctx, evt)
	})
	if err != nil {
		if errors.Is(err, ErrSlotUnavailable) {
			m.recorder.Conflict()
		}
		return model.Appointment{}, err
	}

	if changed {
		m.recorder.Updated(appt.Status)
		m.logger.InfoContext(ctx, "appointment updated",
			"appointment_id", appt.ID,
			"status", string(appt.Status),
			"start", appt.Date.Format(time.RFC3339),
		)
	}
	return appt, nil
}

// reschedule moves appt to start at date. It reports whether the slot changed.
func (m *Manager) reschedule(ctx context.Context, tx Tx, appt *model.Appointment, date time.Time) (bool, error) {
	if appt.Status != model.StatusScheduled {
		if date.Equal(appt.Date) {
			return false, nil
		}
		return false, fmt.Errorf("%w: cannot reschedule a %s appointment", ErrInvalidTransition, appt.Status)
	}

	slot, err := m.slotFor(ctx, appt.ServiceID, date)
	if err != nil {
		return false, err
	}
	provider, ok, err := m.store.Provider(ctx, appt.ProviderID)
	if err != nil {
		return false, fmt.Errorf("lookup provider: %w", err)
	}
	if !ok || !provider.Active {
		return false, ErrProviderNotFound
	}
	if err := m.checkWorkHours(provider, slot); err != nil {
		return false, err
	}

	if err := tx.LockProvider(ctx, appt.ProviderID); err != nil {
		return false, fmt.Errorf("lock provider: %w", err)
	}
	conflict, found, err := FindConflict(ctx, tx, appt.ProviderID, slot, appt.ID)
	if err != nil {
		return false, fmt.Errorf("check conflicts: %w", err)
	}
	if found {
		m.logger.InfoContext(ctx, "appointment conflict",
			"appointment_id", appt.ID,
			"conflicting_appointment_id", conflict.ID,
		)
		return false, ErrSlotUnavailable
	}

	moved := !slot.Start.Equal(appt.Date) || !slot.End.Equal(appt.EndTime)
	appt.Date = slot.Start
	appt.EndTime = slot.End
	return moved, nil
}

// slotFor resolves the service and returns the interval a booking at start occupies.
func (m *Manager) slotFor(ctx context.Context, serviceID string, start time.Time) (scheduling.Interval, error) {
	svc, ok, err := m.services.Service(ctx, serviceID)
	if err != nil {
		return scheduling.Interval{}, fmt.Errorf("lookup service: %w", err)
	}
	if !ok {
		return scheduling.Interval{}, ErrServiceNotFound
	}
	elapsed, err := scheduling.ParseDuration(svc.Duration)
	if err != nil {
		return scheduling.Interval{}, fmt.Errorf("%w: service %s: %v", ErrCorruptService, svc.ID, err)
	}
	return scheduling.ComputeSlot(start.UTC(), elapsed), nil
}

func (m *Manager) checkWorkHours(provider model.Provider, slot scheduling.Interval) error {
	if !m.enforceWorkHours {
		return nil
	}
	ok, err := scheduling.WithinWorkHours(provider.WorkHours, slot)
	if err != nil {
		return fmt.Errorf("%w: provider %s work hours: %v", ErrCorruptService, provider.ID, err)
	}
	if !ok {
		return ErrOutsideWorkHours
	}
	return nil
}

func missingScheduleFields(req ScheduleRequest) []string {
	var missing []string
	if req.ProviderID == "" {
		missing = append(missing, "provider_id")
	}
	if req.ClientID == "" {
		missing = append(missing, "client_id")
	}
	if req.ServiceID == "" {
		missing = append(missing, "service_id")
	}
	if req.Date.IsZero() {
		missing = append(missing, "date")
	}
	return missing
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
