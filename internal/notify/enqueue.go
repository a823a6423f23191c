package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	dbgen "github.com/spontis/backend-spontis/internal/db/gen"
	"github.com/spontis/backend-spontis/internal/queue"
)

const emailTask = "notification-email"

// EmailTask returns the queue kind used for email notifications.
func EmailTask() string {
	return emailTask
}

// queuedEvent is the wire form of a domain event travelling through the queue.
type queuedEvent struct {
	Topic       string          `json:"topic"`
	AggregateID string          `json:"aggregate_id"`
	Payload     json.RawMessage `json:"payload"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// QueueNotifier defers email sending to the worker by enqueuing a task per
// event. Implements events.Notifier.
type QueueNotifier struct {
	Queue       queue.Enqueuer
	MaxAttempts int
}

// Notify implements the events.Notifier interface.
func (n QueueNotifier) Notify(ctx context.Context, event dbgen.DomainEvent) error {
	aggregate := ""
	if event.AggregateID.Valid {
		if value, err := event.AggregateID.Value(); err == nil {
			aggregate, _ = value.(string)
		}
	}
	eventID := ""
	if event.ID.Valid {
		if value, err := event.ID.Value(); err == nil {
			eventID, _ = value.(string)
		}
	}
	raw, err := json.Marshal(queuedEvent{
		Topic:       event.Topic,
		AggregateID: aggregate,
		Payload:     event.Payload,
		OccurredAt:  event.OccurredAt.Time,
	})
	if err != nil {
		return fmt.Errorf("notify: encode queued event: %w", err)
	}
	return n.Queue.Enqueue(ctx, queue.Task{
		Kind:           emailTask,
		Payload:        raw,
		IdempotencyKey: eventID,
		MaxAttempts:    n.MaxAttempts,
	})
}
