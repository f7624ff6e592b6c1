package river

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/riverqueue/river"

	"github.com/ministryofjustice/hmpps-temporary-accommodation-ui-sub000/internal/domain"
)

// QueueEvents is the queue domain events are delivered on.
const QueueEvents = "events"

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// EventJobArgs carries a domain event through River's job table as JSON.
// It is a snapshot taken when the change was stored, so the worker never
// needs to query the database.
type EventJobArgs struct {
	Event       string    `json:"event"`
	EntityID    string    `json:"entity_id"`
	PremisesID  string    `json:"premises_id,omitempty"`
	BedspaceID  string    `json:"bedspace_id,omitempty"`
	Status      string    `json:"status,omitempty"`
	EffectiveOn string    `json:"effective_on,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (EventJobArgs) Kind() string { return "event.published" }

// InsertOpts routes every event job to the events queue.
func (EventJobArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: QueueEvents, MaxAttempts: 5}
}

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.EventPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues a domain event as an async job in River.
func (p *Publisher) Publish(ctx context.Context, event domain.DomainEvent) error {
	_, err := p.client.Insert(ctx, EventJobArgs{
		Event:       string(event.Name),
		EntityID:    event.EntityID,
		PremisesID:  event.PremisesID,
		BedspaceID:  event.BedspaceID,
		Status:      event.Status,
		EffectiveOn: event.EffectiveOn,
		OccurredAt:  event.OccurredAt,
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing %s event job: %w", event.Name, err)
	}
	return nil
}
