package account

import (
	"fmt"

	"github.com/md-rashed-zaman/barberbook/services/auth-service/internal/outbox"
)

// ProviderPayload is the body of auth.provider.* events. booking-service
// projects it into its provider directory.
type ProviderPayload struct {
	ProviderID string     `json:"provider_id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone"`
	Active     bool       `json:"active"`
	WorkHours  []WorkHour `json:"work_hours"`
	Version    int64      `json:"version"`
}

type ClientPayload struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

func providerEvent(eventType string, a Account) (outbox.Event, error) {
	hours := a.WorkHours
	if hours == nil {
		hours = []WorkHour{}
	}
	evt, err := outbox.NewEvent("provider", a.ID, eventType, ProviderPayload{
		ProviderID: a.ID,
		Name:       a.Name,
		Email:      a.Email,
		Phone:      a.Phone,
		Active:     a.Active,
		WorkHours:  hours,
		Version:    a.Version,
	})
	if err != nil {
		return outbox.Event{}, fmt.Errorf("encode %s: %w", eventType, err)
	}
	return evt, nil
}

func clientEvent(a Account) (outbox.Event, error) {
	evt, err := outbox.NewEvent("client", a.ID, outbox.ClientRegistered, ClientPayload{
		ClientID: a.ID,
		Name:     a.Name,
		Email:    a.Email,
	})
	if err != nil {
		return outbox.Event{}, fmt.Errorf("encode %s: %w", outbox.ClientRegistered, err)
	}
	return evt, nil
}
