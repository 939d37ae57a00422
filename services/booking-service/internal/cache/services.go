// Package cache puts a Redis read-through layer in front of the service catalog.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/outbox"
	"github.com/redis/go-redis/v9"
)

const listKey = "all"

// Services caches catalog reads. Redis failures are logged and the call
// falls through to the backing store; a nil client disables caching.
type Services struct {
	next   booking.ServiceStore
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

func NewServices(next booking.ServiceStore, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *Services {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Services{next: next, rdb: rdb, ttl: ttl, prefix: "booking:services:", logger: logger}
}

func (s *Services) Service(ctx context.Context, id string) (model.Service, bool, error) {
	var svc model.Service
	if s.get(ctx, id, &svc) {
		return svc, true, nil
	}
	svc, ok, err := s.next.Service(ctx, id)
	if err != nil || !ok {
		return svc, ok, err
	}
	s.set(ctx, id, svc)
	return svc, true, nil
}

func (s *Services) ListServices(ctx context.Context) ([]model.Service, error) {
	var services []model.Service
	if s.get(ctx, listKey, &services) {
		return services, nil
	}
	services, err := s.next.ListServices(ctx)
	if err != nil {
		return nil, err
	}
	s.set(ctx, listKey, services)
	return services, nil
}

func (s *Services) CreateService(ctx context.Context, svc model.Service, evt outbox.Event) error {
	if err := s.next.CreateService(ctx, svc, evt); err != nil {
		return err
	}
	if s.rdb != nil {
		if err := s.rdb.Del(ctx, s.prefix+listKey).Err(); err != nil {
			s.logger.WarnContext(ctx, "service cache invalidation failed", "err", err)
		}
	}
	return nil
}

func (s *Services) get(ctx context.Context, key string, dst any) bool {
	if s.rdb == nil {
		return false
	}
	raw, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.WarnContext(ctx, "service cache read failed", "err", err, "key", key)
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.logger.WarnContext(ctx, "service cache entry corrupt", "err", err, "key", key)
		return false
	}
	return true
}

func (s *Services) set(ctx context.Context, key string, v any) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, s.prefix+key, raw, s.ttl).Err(); err != nil {
		s.logger.WarnContext(ctx, "service cache write failed", "err", err, "key", key)
	}
}

// ReadyCheck pings Redis when caching is enabled.
func ReadyCheck(rdb *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if rdb == nil {
			return nil
		}
		return rdb.Ping(ctx).Err()
	}
}
