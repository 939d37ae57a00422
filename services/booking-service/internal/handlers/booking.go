package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/scheduling"
)

// Appointments is the lifecycle surface the HTTP layer drives.
type Appointments interface {
	Schedule(ctx context.Context, req booking.ScheduleRequest) (model.Appointment, error)
	Update(ctx context.Context, id string, req booking.UpdateRequest) (model.Appointment, error)
	Get(ctx context.Context, id string) (booking.AppointmentDetails, error)
	ListByProvider(ctx context.Context, providerID string) ([]model.Appointment, error)
	ListProviders(ctx context.Context) ([]model.Provider, error)
	AvailableSlots(ctx context.Context, providerID, serviceID string, day time.Time) ([]scheduling.Interval, error)
}

type BookingHandler struct {
	appointments Appointments
	logger       *slog.Logger
}

func NewBookingHandler(appointments Appointments, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{appointments: appointments, logger: logger}
}

type scheduleRequest struct {
	ProviderID string `json:"provider_id"`
	ClientID   string `json:"client_id"`
	ServiceID  string `json:"service_id"`
	Date       string `json:"date"`
}

type updateRequest struct {
	Status *string `json:"status"`
	Date   *string `json:"date"`
}

type appointmentResponse struct {
	ID         string `json:"id"`
	ProviderID string `json:"provider_id"`
	ClientID   string `json:"client_id"`
	ServiceID  string `json:"service_id"`
	Date       string `json:"date"`
	EndTime    string `json:"end_time"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type providerResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Email     string           `json:"email,omitempty"`
	Phone     string           `json:"phone,omitempty"`
	WorkHours []model.WorkHour `json:"work_hours"`
}

type clientResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type appointmentDetailsResponse struct {
	appointmentResponse
	Provider *providerResponse `json:"provider"`
	Client   *clientResponse   `json:"client"`
	Service  *model.Service    `json:"service"`
}

type slotResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (h *BookingHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	subject, ok := requireSubject(w, r)
	if !ok {
		return
	}

	var req scheduleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}

	clientID := strings.TrimSpace(req.ClientID)
	if subject.Role == roleClient {
		if clientID == "" {
			clientID = subject.ID
		}
		if clientID != subject.ID {
			writeDomainError(w, r, h.logger, booking.ErrForbidden)
			return
		}
	}

	var start time.Time
	if strings.TrimSpace(req.Date) != "" {
		parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(req.Date))
		if err != nil {
			httpx.WriteError(w, r, http.StatusBadRequest, "date must be an RFC 3339 timestamp")
			return
		}
		start = parsed
	}

	appt, err := h.appointments.Schedule(r.Context(), booking.ScheduleRequest{
		ProviderID:     req.ProviderID,
		ClientID:       clientID,
		ServiceID:      req.ServiceID,
		Date:           start,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"message":     "appointment scheduled",
		"appointment": toAppointmentResponse(appt),
	})
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireSubject(w, r); !ok {
		return
	}

	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid json body: only status and date may be updated")
		return
	}
	if req.Status == nil && req.Date == nil {
		writeDomainError(w, r, h.logger, fmt.Errorf("%w: status or date", booking.ErrMissingField))
		return
	}

	var upd booking.UpdateRequest
	if req.Status != nil {
		status := model.Status(strings.TrimSpace(*req.Status))
		upd.Status = &status
	}
	if req.Date != nil {
		parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(*req.Date))
		if err != nil {
			httpx.WriteError(w, r, http.StatusBadRequest, "date must be an RFC 3339 timestamp")
			return
		}
		upd.Date = &parsed
	}

	appt, err := h.appointments.Update(r.Context(), r.PathValue("id"), upd)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message":     "appointment updated",
		"appointment": toAppointmentResponse(appt),
	})
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireSubject(w, r); !ok {
		return
	}

	details, err := h.appointments.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}

	resp := appointmentDetailsResponse{
		appointmentResponse: toAppointmentResponse(details.Appointment),
		Service:             details.Service,
	}
	if p := details.Provider; p != nil {
		pr := toProviderResponse(*p)
		resp.Provider = &pr
	}
	if c := details.Client; c != nil {
		resp.Client = &clientResponse{ID: c.ID, Name: c.Name, Email: c.Email}
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *BookingHandler) ListByProvider(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireSubject(w, r); !ok {
		return
	}

	appts, err := h.appointments.ListByProvider(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	items := make([]appointmentResponse, 0, len(appts))
	for _, appt := range appts {
		items = append(items, toAppointmentResponse(appt))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"appointments": items})
}

func (h *BookingHandler) Providers(w http.ResponseWriter, r *http.Request) {
	providers, err := h.appointments.ListProviders(r.Context())
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	items := make([]providerResponse, 0, len(providers))
	for _, p := range providers {
		pr := toProviderResponse(p)
		pr.Email = ""
		pr.Phone = ""
		items = append(items, pr)
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"providers": items})
}

func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var day time.Time
	if raw := strings.TrimSpace(q.Get("date")); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			httpx.WriteError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	slots, err := h.appointments.AvailableSlots(r.Context(), q.Get("provider_id"), q.Get("service_id"), day)
	if err != nil {
		writeDomainError(w, r, h.logger, err)
		return
	}
	items := make([]slotResponse, 0, len(slots))
	for _, s := range slots {
		items = append(items, slotResponse{Start: s.Start.Format(time.RFC3339), End: s.End.Format(time.RFC3339)})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"slots": items})
}

func toAppointmentResponse(a model.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:         a.ID,
		ProviderID: a.ProviderID,
		ClientID:   a.ClientID,
		ServiceID:  a.ServiceID,
		Date:       a.Date.UTC().Format(time.RFC3339),
		EndTime:    a.EndTime.UTC().Format(time.RFC3339),
		Status:     string(a.Status),
		CreatedAt:  a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toProviderResponse(p model.Provider) providerResponse {
	hours := p.WorkHours
	if hours == nil {
		hours = []model.WorkHour{}
	}
	return providerResponse{ID: p.ID, Name: p.Name, Email: p.Email, Phone: p.Phone, WorkHours: hours}
}
