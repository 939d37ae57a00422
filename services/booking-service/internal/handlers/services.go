package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

type Catalog interface {
	CreateService(ctx context.Context, subject booking.Subject, req booking.CreateServiceRequest) (model.Service, error)
	ListServices(ctx context.Context) ([]model.Service, error)
	GetService(ctx context.Context, id string) (model.Service, error)
}

type ServiceHandler struct {
	catalog Catalog
	logger  *slog.Logger
}

func NewServiceHandler(catalog Catalog, logger *slog.Logger) *ServiceHandler {
	return &ServiceHandler{catalog: catalog, logger: logger}
}

type createServiceRequest struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Duration    string  `json:"duration"`
	Description string  `json:"description"`
}

func (h *ServiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}

	var req createServiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	svc, err := h.catalog.CreateService(r.Context(), subject, booking.CreateServiceRequest{
		Name:        req.Name,
		Price:       req.Price,
		Duration:    req.Duration,
		Description: req.Description,
	})
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "service created",
		"service": svc,
	})
}

func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request) {
	services, err := h.catalog.ListServices(r.Context())
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	if services == nil {
		services = []model.Service{}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"services": services})
}

func (h *ServiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	svc, err := h.catalog.GetService(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, svc)
}
