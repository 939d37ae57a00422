package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

const providerColumns = `id::text, name, email, phone, active, work_hours, version, updated_at`

func (r *BookingRepository) Provider(ctx context.Context, id string) (model.Provider, bool, error) {
	if !validID(id) {
		return model.Provider{}, false, nil
	}
	row := r.pool.QueryRow(ctx, `SELECT `+providerColumns+` FROM providers WHERE id = $1`, id)
	return scanOptional(row, scanProvider)
}

func (r *BookingRepository) ActiveProviders(ctx context.Context) ([]model.Provider, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+providerColumns+`
		FROM providers
		WHERE active
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Provider, error) {
		return scanProvider(row)
	})
}

func (r *BookingRepository) Client(ctx context.Context, id string) (model.Client, bool, error) {
	if !validID(id) {
		return model.Client{}, false, nil
	}
	row := r.pool.QueryRow(ctx, `SELECT id::text, name, email, updated_at FROM clients WHERE id = $1`, id)
	return scanOptional(row, func(row pgx.Row) (model.Client, error) {
		var c model.Client
		err := row.Scan(&c.ID, &c.Name, &c.Email, &c.UpdatedAt)
		return c, err
	})
}

// UpsertProvider stores a provider projection unless the stored row carries
// a higher version. Provider events arrive on separate topics, so an older
// event may be delivered after a newer one.
func (r *BookingRepository) UpsertProvider(ctx context.Context, tx pgx.Tx, p model.Provider) (bool, error) {
	hours := p.WorkHours
	if hours == nil {
		hours = []model.WorkHour{}
	}
	raw, err := json.Marshal(hours)
	if err != nil {
		return false, fmt.Errorf("encode work hours: %w", err)
	}
	tag, err := tx.Exec(ctx, `
		INSERT INTO providers (id, name, email, phone, active, work_hours, version, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (id)
		DO UPDATE SET name = EXCLUDED.name,
		              email = EXCLUDED.email,
		              phone = EXCLUDED.phone,
		              active = EXCLUDED.active,
		              work_hours = EXCLUDED.work_hours,
		              version = EXCLUDED.version,
		              updated_at = now()
		WHERE providers.version <= EXCLUDED.version
	`, p.ID, p.Name, p.Email, p.Phone, p.Active, raw, p.Version)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *BookingRepository) UpsertClient(ctx context.Context, tx pgx.Tx, c model.Client) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO clients (id, name, email, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (id)
		DO UPDATE SET name = EXCLUDED.name,
		              email = EXCLUDED.email,
		              updated_at = now()
	`, c.ID, c.Name, c.Email)
	return err
}

func scanProvider(row pgx.Row) (model.Provider, error) {
	var (
		p     model.Provider
		hours []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Phone, &p.Active, &hours, &p.Version, &p.UpdatedAt); err != nil {
		return model.Provider{}, err
	}
	if len(hours) > 0 {
		if err := json.Unmarshal(hours, &p.WorkHours); err != nil {
			return model.Provider{}, fmt.Errorf("decode work hours for %s: %w", p.ID, err)
		}
	}
	return p, nil
}
