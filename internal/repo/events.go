package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thryvyng/club-api/internal/events"
)

// EventRepo is the Postgres outbox behind the event bus.
type EventRepo struct {
	Pool *pgxpool.Pool
}

// InsertEvent appends a domain event to the outbox.
func (r EventRepo) InsertEvent(ctx context.Context, topic, aggregateID string, payload []byte) (events.Event, error) {
	ev := events.Event{
		ID:          uuid.NewString(),
		Topic:       topic,
		AggregateID: aggregateID,
		Payload:     payload,
	}
	err := r.Pool.QueryRow(ctx, `
		INSERT INTO domain_events (id, topic, aggregate_id, payload, occurred_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING occurred_at`,
		ev.ID, ev.Topic, ev.AggregateID, ev.Payload).Scan(&ev.OccurredAt)
	if err != nil {
		return events.Event{}, fmt.Errorf("insert domain event: %w", err)
	}
	return ev, nil
}
