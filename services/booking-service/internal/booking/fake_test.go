package booking

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/scheduling"
)

// memStore is an in-memory Store. Transactions are serialized and roll back
// their appointment writes on error.
type memStore struct {
	txMu sync.Mutex

	mu           sync.RWMutex
	providers    map[string]model.Provider
	clients      map[string]model.Client
	appointments map[string]model.Appointment
	idempotency  map[string]string
	events       []outbox.Event

	finderCalls atomic.Int32
}

func newMemStore() *memStore {
	return &memStore{
		providers:    map[string]model.Provider{},
		clients:      map[string]model.Client{},
		appointments: map[string]model.Appointment{},
		idempotency:  map[string]string{},
	}
}

func (s *memStore) addProvider(p model.Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers[p.ID] = p
}

func (s *memStore) addClient(c model.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.ID] = c
}

func (s *memStore) eventTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.EventType)
	}
	return out
}

func (s *memStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := make(map[string]model.Appointment, len(s.appointments))
	for k, v := range s.appointments {
		snapshot[k] = v
	}
	events := len(s.events)
	keys := make(map[string]string, len(s.idempotency))
	for k, v := range s.idempotency {
		keys[k] = v
	}
	s.mu.RUnlock()

	if err := fn(ctx, memTx{s}); err != nil {
		s.mu.Lock()
		s.appointments = snapshot
		s.events = s.events[:events]
		s.idempotency = keys
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) ActiveAppointments(_ context.Context, providerID string, window scheduling.Interval) ([]model.Appointment, error) {
	s.finderCalls.Add(1)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Appointment
	for _, a := range s.appointments {
		if a.ProviderID != providerID || a.Status == model.StatusCanceled {
			continue
		}
		if a.Date.Before(window.End) && a.EndTime.After(window.Start) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memStore) Provider(_ context.Context, id string) (model.Provider, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.providers[id]
	return p, ok, nil
}

func (s *memStore) ActiveProviders(context.Context) ([]model.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Provider
	for _, p := range s.providers {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memStore) Client(_ context.Context, id string) (model.Client, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clients[id]
	return c, ok, nil
}

func (s *memStore) Appointment(_ context.Context, id string) (model.Appointment, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.appointments[id]
	return a, ok, nil
}

func (s *memStore) AppointmentsByProvider(_ context.Context, providerID string) ([]model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Appointment
	for _, a := range s.appointments {
		if a.ProviderID == providerID {
			out = append(out, a)
		}
	}
	return out, nil
}

type memTx struct{ s *memStore }

func (t memTx) ActiveAppointments(ctx context.Context, providerID string, window scheduling.Interval) ([]model.Appointment, error) {
	return t.s.ActiveAppointments(ctx, providerID, window)
}

func (memTx) LockProvider(context.Context, string) error { return nil }

func (t memTx) AppointmentForUpdate(ctx context.Context, id string) (model.Appointment, bool, error) {
	return t.s.Appointment(ctx, id)
}

func (t memTx) CreateAppointment(_ context.Context, appt model.Appointment) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.appointments[appt.ID] = appt
	return nil
}

func (t memTx) UpdateAppointment(_ context.Context, appt model.Appointment) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.appointments[appt.ID]; !ok {
		return ErrAppointmentNotFound
	}
	t.s.appointments[appt.ID] = appt
	return nil
}

func (t memTx) LockIdempotencyKey(_ context.Context, scope, key string) (string, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	return t.s.idempotency[scope+"/"+key], nil
}

func (t memTx) CompleteIdempotencyKey(_ context.Context, scope, key, appointmentID string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.idempotency[scope+"/"+key] = appointmentID
	return nil
}

func (t memTx) AppendEvent(_ context.Context, evt outbox.Event) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.events = append(t.s.events, evt)
	return nil
}

type memServices struct {
	mu       sync.RWMutex
	services map[string]model.Service
	events   []outbox.Event
}

func newMemServices(svcs ...model.Service) *memServices {
	m := &memServices{services: map[string]model.Service{}}
	for _, s := range svcs {
		m.services[s.ID] = s
	}
	return m
}

func (m *memServices) Service(_ context.Context, id string) (model.Service, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.services[id]
	return s, ok, nil
}

func (m *memServices) ListServices(context.Context) ([]model.Service, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Service, 0, len(m.services))
	for _, s := range m.services {
		out = append(out, s)
	}
	return out, nil
}

func (m *memServices) CreateService(_ context.Context, svc model.Service, evt outbox.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.services {
		if strings.EqualFold(existing.Name, svc.Name) {
			return ErrDuplicateService
		}
	}
	m.services[svc.ID] = svc
	m.events = append(m.events, evt)
	return nil
}

type countingRecorder struct {
	scheduled, conflicts, updates atomic.Int32
}

func (r *countingRecorder) Scheduled()           { r.scheduled.Add(1) }
func (r *countingRecorder) Conflict()            { r.conflicts.Add(1) }
func (r *countingRecorder) Updated(model.Status) { r.updates.Add(1) }
