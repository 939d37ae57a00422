package booking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/scheduling"
)

// Subject is the authenticated caller as forwarded by the gateway.
type Subject struct {
	ID   string
	Role string
}

const RoleProvider = "provider"

type CreateServiceRequest struct {
	Name        string
	Price       float64
	Duration    string
	Description string
}

// Catalog manages the services providers offer.
type Catalog struct {
	store  ServiceStore
	logger *slog.Logger
	now    func() time.Time
}

func NewCatalog(store ServiceStore, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Catalog{store: store, logger: logger, now: time.Now}
}

func (c *Catalog) CreateService(ctx context.Context, subject Subject, req CreateServiceRequest) (model.Service, error) {
	if subject.ID == "" {
		return model.Service{}, ErrUnauthorized
	}
	if subject.Role != RoleProvider {
		return model.Service{}, ErrForbidden
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Duration = strings.TrimSpace(req.Duration)
	req.Description = strings.TrimSpace(req.Description)
	var missing []string
	if req.Name == "" {
		missing = append(missing, "name")
	}
	if req.Price == 0 {
		missing = append(missing, "price")
	}
	if req.Duration == "" {
		missing = append(missing, "duration")
	}
	if req.Description == "" {
		missing = append(missing, "description")
	}
	if len(missing) > 0 {
		return model.Service{}, fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	if req.Price < 0 {
		return model.Service{}, fmt.Errorf("%w: price must be positive", ErrInvalidFormat)
	}
	elapsed, err := scheduling.ParseDuration(req.Duration)
	if err != nil {
		return model.Service{}, err
	}
	if elapsed <= 0 {
		return model.Service{}, fmt.Errorf("%w: duration must be positive", ErrInvalidFormat)
	}

	svc := model.Service{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Price:       req.Price,
		Duration:    req.Duration,
		Description: req.Description,
		CreatedBy:   subject.ID,
		CreatedAt:   c.now().UTC(),
	}
	evt, err := serviceEvent(svc)
	if err != nil {
		return model.Service{}, err
	}
	if err := c.store.CreateService(ctx, svc, evt); err != nil {
		return model.Service{}, err
	}
	c.logger.InfoContext(ctx, "service created", "service_id", svc.ID, "created_by", svc.CreatedBy)
	return svc, nil
}

func (c *Catalog) ListServices(ctx context.Context) ([]model.Service, error) {
	services, err := c.store.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return services, nil
}

func (c *Catalog) GetService(ctx context.Context, id string) (model.Service, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.Service{}, fmt.Errorf("%w: service id", ErrMissingField)
	}
	svc, ok, err := c.store.Service(ctx, id)
	if err != nil {
		return model.Service{}, fmt.Errorf("lookup service: %w", err)
	}
	if !ok {
		return model.Service{}, ErrServiceNotFound
	}
	return svc, nil
}
