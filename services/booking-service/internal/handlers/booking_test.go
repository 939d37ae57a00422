package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/httpx"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/scheduling"
)

type stubAppointments struct {
	scheduled  booking.ScheduleRequest
	updated    booking.UpdateRequest
	updatedID  string
	err        error
	details    booking.AppointmentDetails
	slotsDay   time.Time
	slotsCalls int
}

func (s *stubAppointments) Schedule(_ context.Context, req booking.ScheduleRequest) (model.Appointment, error) {
	s.scheduled = req
	if s.err != nil {
		return model.Appointment{}, s.err
	}
	return model.Appointment{
		ID:         "a1",
		ProviderID: req.ProviderID,
		ClientID:   req.ClientID,
		ServiceID:  req.ServiceID,
		Date:       req.Date,
		EndTime:    req.Date.Add(30 * time.Minute),
		Status:     model.StatusScheduled,
	}, nil
}

func (s *stubAppointments) Update(_ context.Context, id string, req booking.UpdateRequest) (model.Appointment, error) {
	s.updatedID = id
	s.updated = req
	if s.err != nil {
		return model.Appointment{}, s.err
	}
	appt := model.Appointment{ID: id, Status: model.StatusScheduled}
	if req.Status != nil {
		appt.Status = *req.Status
	}
	return appt, nil
}

func (s *stubAppointments) Get(context.Context, string) (booking.AppointmentDetails, error) {
	return s.details, s.err
}

func (s *stubAppointments) ListByProvider(context.Context, string) ([]model.Appointment, error) {
	return []model.Appointment{{ID: "a1", Status: model.StatusCanceled}}, s.err
}

func (s *stubAppointments) ListProviders(context.Context) ([]model.Provider, error) {
	return []model.Provider{{ID: "p1", Name: "Sam", Email: "sam@example.com", Active: true}}, s.err
}

func (s *stubAppointments) AvailableSlots(_ context.Context, _, _ string, day time.Time) ([]scheduling.Interval, error) {
	s.slotsCalls++
	s.slotsDay = day
	start := day.Add(9 * time.Hour)
	return []scheduling.Interval{scheduling.ComputeSlot(start, 30*time.Minute)}, s.err
}

type stubCatalog struct {
	subject booking.Subject
	err     error
}

func (c *stubCatalog) CreateService(_ context.Context, subject booking.Subject, req booking.CreateServiceRequest) (model.Service, error) {
	c.subject = subject
	if c.err != nil {
		return model.Service{}, c.err
	}
	return model.Service{ID: "s1", Name: req.Name, Price: req.Price, Duration: req.Duration}, nil
}

func (c *stubCatalog) ListServices(context.Context) ([]model.Service, error) { return nil, c.err }

func (c *stubCatalog) GetService(_ context.Context, id string) (model.Service, error) {
	if id != "s1" {
		return model.Service{}, booking.ErrServiceNotFound
	}
	return model.Service{ID: "s1", Name: "Cut"}, c.err
}

func newServer(appts *stubAppointments, catalog *stubCatalog) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mux := http.NewServeMux()
	Register(mux, NewBookingHandler(appts, logger), NewServiceHandler(catalog, logger))
	return httpx.WithRequestID(mux)
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

var clientHeaders = map[string]string{"X-User-Id": "c1", "X-Role": "client"}

func TestScheduleCreated(t *testing.T) {
	appts := &stubAppointments{}
	h := newServer(appts, &stubCatalog{})

	headers := map[string]string{"X-User-Id": "c1", "X-Role": "client", "Idempotency-Key": "k1"}
	rec := do(t, h, http.MethodPost, "/api/v1/appointments",
		`{"provider_id":"p1","service_id":"s1","date":"2024-10-10T14:00:00Z"}`, headers)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Message     string              `json:"message"`
		Appointment appointmentResponse `json:"appointment"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Message == "" || body.Appointment.Status != "scheduled" || body.Appointment.EndTime != "2024-10-10T14:30:00Z" {
		t.Fatalf("unexpected body %+v", body)
	}
	if appts.scheduled.ClientID != "c1" || appts.scheduled.IdempotencyKey != "k1" {
		t.Fatalf("expected client id and key to be forwarded, got %+v", appts.scheduled)
	}
}

func TestScheduleRejections(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		headers map[string]string
		err     error
		want    int
	}{
		{"no subject", `{}`, nil, nil, http.StatusUnauthorized},
		{"bad json", `{`, clientHeaders, nil, http.StatusBadRequest},
		{"bad date", `{"provider_id":"p1","service_id":"s1","date":"tomorrow"}`, clientHeaders, nil, http.StatusBadRequest},
		{"booking for someone else", `{"provider_id":"p1","client_id":"c2","service_id":"s1"}`, clientHeaders, nil, http.StatusForbidden},
		{"missing field", `{"provider_id":"p1"}`, clientHeaders, booking.ErrMissingField, http.StatusBadRequest},
		{"unknown provider", `{"provider_id":"p9","service_id":"s1","date":"2024-10-10T14:00:00Z"}`, clientHeaders, booking.ErrProviderNotFound, http.StatusNotFound},
		{"conflict", `{"provider_id":"p1","service_id":"s1","date":"2024-10-10T14:15:00Z"}`, clientHeaders, booking.ErrSlotUnavailable, http.StatusConflict},
		{"outside hours", `{"provider_id":"p1","service_id":"s1","date":"2024-10-10T23:00:00Z"}`, clientHeaders, booking.ErrOutsideWorkHours, http.StatusUnprocessableEntity},
		{"internal", `{"provider_id":"p1","service_id":"s1","date":"2024-10-10T14:00:00Z"}`, clientHeaders, errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newServer(&stubAppointments{err: tc.err}, &stubCatalog{})
			rec := do(t, h, http.MethodPost, "/api/v1/appointments", tc.body, tc.headers)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
			var env httpx.ErrorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("expected JSON error envelope: %v", err)
			}
			if env.Status != tc.want || env.RequestID == "" {
				t.Fatalf("unexpected envelope %+v", env)
			}
			if tc.want == http.StatusInternalServerError && strings.Contains(env.Message, "connection reset") {
				t.Fatal("internal error details must not leak")
			}
		})
	}
}

func TestUpdateAllowList(t *testing.T) {
	appts := &stubAppointments{}
	h := newServer(appts, &stubCatalog{})

	rec := do(t, h, http.MethodPatch, "/api/v1/appointments/a1", `{"status":"canceled"}`, clientHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if appts.updatedID != "a1" || appts.updated.Status == nil || *appts.updated.Status != model.StatusCanceled || appts.updated.Date != nil {
		t.Fatalf("unexpected update %+v", appts.updated)
	}

	rec = do(t, h, http.MethodPatch, "/api/v1/appointments/a1", `{"provider_id":"p2"}`, clientHeaders)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected unknown field to be rejected, got %d", rec.Code)
	}
	rec = do(t, h, http.MethodPatch, "/api/v1/appointments/a1", `{}`, clientHeaders)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected empty update to be rejected, got %d", rec.Code)
	}
}

func TestUpdateErrors(t *testing.T) {
	for err, want := range map[error]int{
		booking.ErrInvalidStatus:       http.StatusBadRequest,
		booking.ErrInvalidTransition:   http.StatusConflict,
		booking.ErrAppointmentNotFound: http.StatusNotFound,
	} {
		h := newServer(&stubAppointments{err: err}, &stubCatalog{})
		rec := do(t, h, http.MethodPatch, "/api/v1/appointments/a1", `{"date":"2024-10-10T15:00:00Z"}`, clientHeaders)
		if rec.Code != want {
			t.Fatalf("%v: expected %d, got %d", err, want, rec.Code)
		}
	}
}

func TestGetDetails(t *testing.T) {
	appts := &stubAppointments{details: booking.AppointmentDetails{
		Appointment: model.Appointment{ID: "a1", Status: model.StatusScheduled},
		Provider:    &model.Provider{ID: "p1", Name: "Sam"},
		Service:     &model.Service{ID: "s1", Name: "Cut"},
	}}
	h := newServer(appts, &stubCatalog{})

	rec := do(t, h, http.MethodGet, "/api/v1/appointments/a1", "", clientHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["id"] != "a1" || body["provider"] == nil || body["client"] != nil {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestPublicRoutes(t *testing.T) {
	appts := &stubAppointments{}
	h := newServer(appts, &stubCatalog{})

	rec := do(t, h, http.MethodGet, "/api/v1/public/providers", "", nil)
	if rec.Code != http.StatusOK || strings.Contains(rec.Body.String(), "sam@example.com") {
		t.Fatalf("unexpected providers response %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/v1/public/slots?provider_id=p1&service_id=s1&date=2024-10-07", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "2024-10-07T09:00:00Z") {
		t.Fatalf("unexpected slots response %d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, h, http.MethodGet, "/api/v1/public/slots?provider_id=p1&service_id=s1&date=07-10-2024", "", nil)
	if rec.Code != http.StatusBadRequest || appts.slotsCalls != 1 {
		t.Fatalf("expected bad date to be rejected before lookup, got %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/public/services", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"services":[]`) {
		t.Fatalf("unexpected services response %d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, h, http.MethodGet, "/api/v1/public/services/s9", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCreateServiceForwardsSubject(t *testing.T) {
	catalog := &stubCatalog{}
	h := newServer(&stubAppointments{}, catalog)
	provider := map[string]string{"X-User-Id": "p1", "X-Role": "provider"}

	rec := do(t, h, http.MethodPost, "/api/v1/services",
		`{"name":"Cut","price":20,"duration":"00:30","description":"Classic"}`, provider)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if catalog.subject.ID != "p1" || catalog.subject.Role != "provider" {
		t.Fatalf("unexpected subject %+v", catalog.subject)
	}

	catalog.err = booking.ErrForbidden
	rec = do(t, h, http.MethodPost, "/api/v1/services",
		`{"name":"Cut","price":20,"duration":"00:30","description":"Classic"}`, clientHeaders)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
