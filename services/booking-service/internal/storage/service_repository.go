package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/barberbook/libs/db"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/outbox"
)

const serviceColumns = `id::text, name, price::float8, duration, description, created_by::text, created_at`

// ServiceRepository is the Postgres implementation of booking.ServiceStore.
type ServiceRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewServiceRepository(pool *db.Pool, outboxRepo *outbox.Repository) *ServiceRepository {
	return &ServiceRepository{pool: pool, outbox: outboxRepo}
}

func (r *ServiceRepository) Service(ctx context.Context, id string) (model.Service, bool, error) {
	if !validID(id) {
		return model.Service{}, false, nil
	}
	row := r.pool.QueryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = $1`, id)
	return scanOptional(row, scanService)
}

func (r *ServiceRepository) ListServices(ctx context.Context) ([]model.Service, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+serviceColumns+` FROM services ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Service, error) {
		return scanService(row)
	})
}

// CreateService inserts svc and its creation event in one transaction.
func (r *ServiceRepository) CreateService(ctx context.Context, svc model.Service, evt outbox.Event) error {
	return r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO services (id, name, price, duration, description, created_by, created_at)
			VALUES ($1, $2, $3::float8, $4, $5, $6, $7)
		`, svc.ID, svc.Name, svc.Price, svc.Duration, svc.Description, svc.CreatedBy, svc.CreatedAt)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return booking.ErrDuplicateService
			}
			return err
		}
		return r.outbox.Insert(ctx, tx, evt)
	})
}

func scanService(row pgx.Row) (model.Service, error) {
	var s model.Service
	err := row.Scan(&s.ID, &s.Name, &s.Price, &s.Duration, &s.Description, &s.CreatedBy, &s.CreatedAt)
	return s, err
}
