package booking

import (
	"context"
	"errors"
	"testing"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/outbox"
)

func TestCreateService(t *testing.T) {
	store := newMemServices()
	catalog := NewCatalog(store, nil)
	ctx := context.Background()
	owner := Subject{ID: providerID, Role: RoleProvider}

	svc, err := catalog.CreateService(ctx, owner, CreateServiceRequest{
		Name:        "Beard trim",
		Price:       12.5,
		Duration:    "00:20",
		Description: "Shape and line up",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if svc.ID == "" || svc.CreatedBy != providerID {
		t.Fatalf("unexpected service %+v", svc)
	}
	if len(store.events) != 1 || store.events[0].EventType != outbox.ServiceCreated {
		t.Fatalf("expected a service.created event, got %+v", store.events)
	}

	got, err := catalog.GetService(ctx, svc.ID)
	if err != nil || got.Name != "Beard trim" {
		t.Fatalf("get: %+v %v", got, err)
	}

	_, err = catalog.CreateService(ctx, owner, CreateServiceRequest{
		Name: "beard TRIM", Price: 10, Duration: "00:15", Description: "again",
	})
	if !errors.Is(err, ErrDuplicateService) {
		t.Fatalf("expected ErrDuplicateService, got %v", err)
	}
}

func TestCreateServiceValidation(t *testing.T) {
	catalog := NewCatalog(newMemServices(), nil)
	ctx := context.Background()
	owner := Subject{ID: providerID, Role: RoleProvider}
	valid := CreateServiceRequest{Name: "Cut", Price: 20, Duration: "00:30", Description: "Classic"}

	cases := []struct {
		name    string
		subject Subject
		mutate  func(*CreateServiceRequest)
		want    error
	}{
		{"anonymous", Subject{}, func(*CreateServiceRequest) {}, ErrUnauthorized},
		{"client role", Subject{ID: clientID, Role: "client"}, func(*CreateServiceRequest) {}, ErrForbidden},
		{"missing name", owner, func(r *CreateServiceRequest) { r.Name = " " }, ErrMissingField},
		{"missing description", owner, func(r *CreateServiceRequest) { r.Description = "" }, ErrMissingField},
		{"negative price", owner, func(r *CreateServiceRequest) { r.Price = -1 }, ErrInvalidFormat},
		{"bad duration", owner, func(r *CreateServiceRequest) { r.Duration = "0:30" }, ErrInvalidFormat},
		{"zero duration", owner, func(r *CreateServiceRequest) { r.Duration = "00:00" }, ErrInvalidFormat},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)
			if _, err := catalog.CreateService(ctx, tc.subject, req); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if _, err := catalog.GetService(ctx, "99999999-9999-9999-9999-999999999999"); !errors.Is(err, ErrServiceNotFound) {
		t.Fatalf("expected ErrServiceNotFound, got %v", err)
	}
}
