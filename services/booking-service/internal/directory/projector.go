// Package directory keeps the local copy of provider and client accounts
// owned by auth-service up to date from its Kafka events.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/barberbook/libs/kafkax"
	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
	"github.com/segmentio/kafka-go"
)

const (
	ProviderRegistered = "auth.provider.registered.v1"
	ProviderUpdated    = "auth.provider.updated.v1"
	ClientRegistered   = "auth.client.registered.v1"
)

// Topics lists every event type the projector understands.
var Topics = []string{ProviderRegistered, ProviderUpdated, ClientRegistered}

var errMalformed = errors.New("malformed directory event")

type ProviderPayload struct {
	ProviderID string           `json:"provider_id"`
	Name       string           `json:"name"`
	Email      string           `json:"email"`
	Phone      string           `json:"phone"`
	Active     bool             `json:"active"`
	WorkHours  []model.WorkHour `json:"work_hours"`
	Version    int64            `json:"version"`
}

type ClientPayload struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// Change is a decoded directory event. Exactly one of Provider or Client is set.
type Change struct {
	Provider *model.Provider
	Client   *model.Client
}

// Decode turns a Kafka message into a Change.
func Decode(eventType string, value []byte) (Change, error) {
	switch eventType {
	case ProviderRegistered, ProviderUpdated:
		var p ProviderPayload
		if err := json.Unmarshal(value, &p); err != nil {
			return Change{}, fmt.Errorf("%w: %v", errMalformed, err)
		}
		if strings.TrimSpace(p.ProviderID) == "" {
			return Change{}, fmt.Errorf("%w: provider_id is required", errMalformed)
		}
		return Change{Provider: &model.Provider{
			ID:        p.ProviderID,
			Name:      p.Name,
			Email:     p.Email,
			Phone:     p.Phone,
			Active:    p.Active,
			WorkHours: p.WorkHours,
			Version:   p.Version,
		}}, nil
	case ClientRegistered:
		var c ClientPayload
		if err := json.Unmarshal(value, &c); err != nil {
			return Change{}, fmt.Errorf("%w: %v", errMalformed, err)
		}
		if strings.TrimSpace(c.ClientID) == "" {
			return Change{}, fmt.Errorf("%w: client_id is required", errMalformed)
		}
		return Change{Client: &model.Client{ID: c.ClientID, Name: c.Name, Email: c.Email}}, nil
	default:
		return Change{}, fmt.Errorf("%w: unsupported event type %q", errMalformed, eventType)
	}
}

type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type Writer interface {
	// UpsertProvider reports false when the stored row already reflects a
	// newer version of the provider.
	UpsertProvider(ctx context.Context, tx pgx.Tx, p model.Provider) (bool, error)
	UpsertClient(ctx context.Context, tx pgx.Tx, c model.Client) error
}

type Inbox interface {
	Record(ctx context.Context, tx pgx.Tx, eventID, eventType string) (bool, error)
}

type Projector struct {
	db     TxRunner
	writer Writer
	inbox  Inbox
	logger *slog.Logger
}

func NewProjector(db TxRunner, writer Writer, inbox Inbox, logger *slog.Logger) *Projector {
	return &Projector{db: db, writer: writer, inbox: inbox, logger: logger}
}

// Handle applies one message. Malformed messages are logged and dropped;
// storage errors are returned so the consumer retries.
func (p *Projector) Handle(ctx context.Context, msg kafka.Message) error {
	meta := kafkax.ExtractEventMeta(msg)
	change, err := Decode(meta.EventType, msg.Value)
	if err != nil {
		p.logger.ErrorContext(ctx, "dropping directory event", "err", err, "event_id", meta.EventID, "topic", msg.Topic)
		return nil
	}

	return p.db.WithTx(ctx, func(tx pgx.Tx) error {
		fresh, err := p.inbox.Record(ctx, tx, meta.EventID, meta.EventType)
		if err != nil {
			return fmt.Errorf("inbox record: %w", err)
		}
		if !fresh {
			p.logger.InfoContext(ctx, "duplicate event ignored", "event_id", meta.EventID, "event_type", meta.EventType)
			return nil
		}

		switch {
		case change.Provider != nil:
			applied, err := p.writer.UpsertProvider(ctx, tx, *change.Provider)
			if err != nil {
				return fmt.Errorf("upsert provider: %w", err)
			}
			if !applied {
				p.logger.InfoContext(ctx, "stale provider event ignored",
					"provider_id", change.Provider.ID, "version", change.Provider.Version, "event_type", meta.EventType)
				return nil
			}
			p.logger.InfoContext(ctx, "provider projected", "provider_id", change.Provider.ID, "active", change.Provider.Active)
		case change.Client != nil:
			if err := p.writer.UpsertClient(ctx, tx, *change.Client); err != nil {
				return fmt.Errorf("upsert client: %w", err)
			}
			p.logger.InfoContext(ctx, "client projected", "client_id", change.Client.ID)
		}
		return nil
	})
}
