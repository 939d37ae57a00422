package booking

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/scheduling"
)

// AppointmentDetails is an appointment with its references resolved. A
// reference that no longer resolves is left nil.
type AppointmentDetails struct {
	model.Appointment
	Provider *model.Provider
	Client   *model.Client
	Service  *model.Service
}

// ListByProvider returns every appointment of providerID, canceled ones
// included, ordered by start time.
func (m *Manager) ListByProvider(ctx context.Context, providerID string) ([]model.Appointment, error) {
	providerID = strings.TrimSpace(providerID)
	if providerID == "" {
		return nil, fmt.Errorf("%w: provider id", ErrMissingField)
	}
	if _, ok, err := m.store.Provider(ctx, providerID); err != nil {
		return nil, fmt.Errorf("lookup provider: %w", err)
	} else if !ok {
		return nil, ErrProviderNotFound
	}

	appts, err := m.store.AppointmentsByProvider(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	sort.SliceStable(appts, func(i, j int) bool { return appts[i].Date.Before(appts[j].Date) })
	return appts, nil
}

func (m *Manager) Get(ctx context.Context, id string) (AppointmentDetails, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return AppointmentDetails{}, fmt.Errorf("%w: appointment id", ErrMissingField)
	}
	appt, ok, err := m.store.Appointment(ctx, id)
	if err != nil {
		return AppointmentDetails{}, fmt.Errorf("load appointment: %w", err)
	}
	if !ok {
		return AppointmentDetails{}, ErrAppointmentNotFound
	}

	details := AppointmentDetails{Appointment: appt}
	if p, ok, err := m.store.Provider(ctx, appt.ProviderID); err != nil {
		return AppointmentDetails{}, fmt.Errorf("lookup provider: %w", err)
	} else if ok {
		details.Provider = &p
	}
	if c, ok, err := m.store.Client(ctx, appt.ClientID); err != nil {
		return AppointmentDetails{}, fmt.Errorf("lookup client: %w", err)
	} else if ok {
		details.Client = &c
	}
	if s, ok, err := m.services.Service(ctx, appt.ServiceID); err != nil {
		return AppointmentDetails{}, fmt.Errorf("lookup service: %w", err)
	} else if ok {
		details.Service = &s
	}
	return details, nil
}

func (m *Manager) ListProviders(ctx context.Context) ([]model.Provider, error) {
	providers, err := m.store.ActiveProviders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	return providers, nil
}

// AvailableSlots lists the free starts for serviceID with providerID on the
// UTC date of day. Providers without declared work hours are treated as
// available all day.
func (m *Manager) AvailableSlots(ctx context.Context, providerID, serviceID string, day time.Time) ([]scheduling.Interval, error) {
	providerID = strings.TrimSpace(providerID)
	serviceID = strings.TrimSpace(serviceID)
	var missing []string
	if providerID == "" {
		missing = append(missing, "provider_id")
	}
	if serviceID == "" {
		missing = append(missing, "service_id")
	}
	if day.IsZero() {
		missing = append(missing, "date")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}

	provider, ok, err := m.store.Provider(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("lookup provider: %w", err)
	}
	if !ok || !provider.Active {
		return nil, ErrProviderNotFound
	}
	probe, err := m.slotFor(ctx, serviceID, day)
	if err != nil {
		return nil, err
	}
	length := probe.Duration()

	day = day.UTC()
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	whole := scheduling.Interval{Start: midnight, End: midnight.Add(24 * time.Hour)}

	windows := []scheduling.Interval{whole}
	if len(provider.WorkHours) > 0 {
		windows, err = scheduling.WindowsOn(provider.WorkHours, midnight)
		if err != nil {
			return nil, fmt.Errorf("%w: provider %s work hours: %v", ErrCorruptService, provider.ID, err)
		}
	}

	existing, err := m.store.ActiveAppointments(ctx, providerID, whole)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	busy := make([]scheduling.Interval, 0, len(existing))
	for _, appt := range existing {
		if appt.Status.Occupies() {
			busy = append(busy, scheduling.Interval{Start: appt.Date, End: appt.EndTime})
		}
	}

	now := m.now().UTC()
	var out []scheduling.Interval
	for _, w := range windows {
		out = append(out, scheduling.AvailableSlots(w, length, m.slotStep, busy, now)...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}
