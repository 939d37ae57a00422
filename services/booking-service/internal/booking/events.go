package booking

import (
	"fmt"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/outbox"
)

const (
	scheduledEvent = outbox.AppointmentScheduled
	updatedEvent   = outbox.AppointmentUpdated
)

// AppointmentPayload is the body of booking.appointment.* events.
type AppointmentPayload struct {
	AppointmentID string    `json:"appointment_id"`
	ProviderID    string    `json:"provider_id"`
	ClientID      string    `json:"client_id"`
	ServiceID     string    `json:"service_id"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// ServicePayload is the body of booking.service.created.v1.
type ServicePayload struct {
	ServiceID  string    `json:"service_id"`
	Name       string    `json:"name"`
	Price      float64   `json:"price"`
	Duration   string    `json:"duration"`
	CreatedBy  string    `json:"created_by"`
	OccurredAt time.Time `json:"occurred_at"`
}

func appointmentEvent(eventType string, appt model.Appointment) (outbox.Event, error) {
	evt, err := outbox.NewEvent("appointment", appt.ID, eventType, AppointmentPayload{
		AppointmentID: appt.ID,
		ProviderID:    appt.ProviderID,
		ClientID:      appt.ClientID,
		ServiceID:     appt.ServiceID,
		Start:         appt.Date,
		End:           appt.EndTime,
		Status:        string(appt.Status),
		OccurredAt:    appt.UpdatedAt,
	})
	if err != nil {
		return outbox.Event{}, fmt.Errorf("encode %s: %w", eventType, err)
	}
	return evt, nil
}

func serviceEvent(svc model.Service) (outbox.Event, error) {
	evt, err := outbox.NewEvent("service", svc.ID, outbox.ServiceCreated, ServicePayload{
		ServiceID:  svc.ID,
		Name:       svc.Name,
		Price:      svc.Price,
		Duration:   svc.Duration,
		CreatedBy:  svc.CreatedBy,
		OccurredAt: svc.CreatedAt,
	})
	if err != nil {
		return outbox.Event{}, fmt.Errorf("encode %s: %w", outbox.ServiceCreated, err)
	}
	return evt, nil
}
