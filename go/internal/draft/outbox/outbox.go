// Package outbox relays committed draft events from the draft_outbox table
// to JetStream, and consumes them back on every replica.
package outbox

//go:generate mockgen -package=mocks -destination=mocks/mock_publisher.go github.com/mcdev12/bbdraft/go/internal/draft/outbox Publisher

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/bbdraft/go/internal/draft/events"
	"github.com/mcdev12/bbdraft/go/internal/draft/store/postgres"
)

// ErrNotFound is returned by Repository.FetchByID for an unknown id.
var ErrNotFound = errors.New("outbox event not found")

// Repository reads and acknowledges pending outbox rows.
type Repository interface {
	FetchUnsent(ctx context.Context, limit int32) ([]events.Envelope, error)
	FetchByID(ctx context.Context, id uuid.UUID) (events.Envelope, bool, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
}

// Publisher pushes one event to the message bus.
type Publisher interface {
	Publish(ctx context.Context, env events.Envelope) error
}

// PostgresRepository serves the relay from the draft_outbox table.
type PostgresRepository struct {
	queries *postgres.Queries
}

func NewPostgresRepository(queries *postgres.Queries) *PostgresRepository {
	return &PostgresRepository{queries: queries}
}

func (r *PostgresRepository) FetchUnsent(ctx context.Context, limit int32) ([]events.Envelope, error) {
	rows, err := r.queries.FetchUnsentOutbox(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}
	out := make([]events.Envelope, 0, len(rows))
	for _, row := range rows {
		out = append(out, toEnvelope(row))
	}
	return out, nil
}

// FetchByID returns the row and whether it still needs publishing.
func (r *PostgresRepository) FetchByID(ctx context.Context, id uuid.UUID) (events.Envelope, bool, error) {
	row, err := r.queries.FetchOutboxByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return events.Envelope{}, false, ErrNotFound
		}
		return events.Envelope{}, false, fmt.Errorf("failed to fetch outbox event: %w", err)
	}
	return toEnvelope(row), !row.SentAt.Valid, nil
}

func (r *PostgresRepository) MarkSent(ctx context.Context, id uuid.UUID) error {
	if err := r.queries.MarkOutboxSent(ctx, id); err != nil {
		return fmt.Errorf("failed to mark outbox event %s as sent: %w", id, err)
	}
	return nil
}

func toEnvelope(row postgres.OutboxRow) events.Envelope {
	return events.Envelope{
		ID:        row.ID,
		DraftID:   row.DraftID,
		Type:      events.Type(row.EventType),
		Timestamp: row.CreatedAt.UTC(),
		Data:      row.Payload,
	}
}
