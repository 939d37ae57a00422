package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/outbox"
	"github.com/redis/go-redis/v9"
)

type countingStore struct {
	services map[string]model.Service
	reads    int
	lists    int
}

func (s *countingStore) Service(_ context.Context, id string) (model.Service, bool, error) {
	s.reads++
	svc, ok := s.services[id]
	return svc, ok, nil
}

func (s *countingStore) ListServices(context.Context) ([]model.Service, error) {
	s.lists++
	out := make([]model.Service, 0, len(s.services))
	for _, svc := range s.services {
		out = append(out, svc)
	}
	return out, nil
}

func (s *countingStore) CreateService(_ context.Context, svc model.Service, _ outbox.Event) error {
	s.services[svc.ID] = svc
	return nil
}

func newStore() *countingStore {
	return &countingStore{services: map[string]model.Service{
		"s1": {ID: "s1", Name: "Cut", Price: 20, Duration: "00:30"},
	}}
}

func TestNilClientPassesThrough(t *testing.T) {
	store := newStore()
	c := NewServices(store, nil, time.Minute, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, ok, err := c.Service(ctx, "s1"); err != nil || !ok {
			t.Fatalf("lookup: %v %v", ok, err)
		}
	}
	if store.reads != 2 {
		t.Fatalf("expected every read to hit the store, got %d", store.reads)
	}
}

func TestUnreachableRedisFallsThrough(t *testing.T) {
	store := newStore()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	c := NewServices(store, rdb, time.Minute, nil)

	svc, ok, err := c.Service(context.Background(), "s1")
	if err != nil || !ok || svc.Name != "Cut" {
		t.Fatalf("expected fallback to store, got %+v %v %v", svc, ok, err)
	}
	if _, ok, _ := c.Service(context.Background(), "missing"); ok {
		t.Fatal("expected missing service to stay missing")
	}
}

func TestRedisReadThrough(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set; skipping Redis integration test")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	ctx := context.Background()

	store := newStore()
	c := NewServices(store, rdb, time.Minute, nil)
	c.prefix = "test:" + t.Name() + ":"
	t.Cleanup(func() { rdb.Del(ctx, c.prefix+"s1", c.prefix+listKey) })

	for i := 0; i < 3; i++ {
		if _, ok, err := c.Service(ctx, "s1"); err != nil || !ok {
			t.Fatalf("lookup: %v %v", ok, err)
		}
	}
	if store.reads != 1 {
		t.Fatalf("expected a single store read, got %d", store.reads)
	}

	if _, err := c.ListServices(ctx); err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := c.CreateService(ctx, model.Service{ID: "s2", Name: "Shave"}, outbox.Event{}); err != nil {
		t.Fatalf("create: %v", err)
	}
	list, err := c.ListServices(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || store.lists != 2 {
		t.Fatalf("expected list cache to be invalidated, got %d services after %d loads", len(list), store.lists)
	}
}
