package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	dbgen "github.com/spontis/backend-spontis/internal/db/gen"
	"github.com/spontis/backend-spontis/internal/events"
	"github.com/spontis/backend-spontis/internal/queue"
)

// EmailWorker processes queued notification tasks by sending the email.
type EmailWorker struct {
	Notifier EmailNotifier
}

// Handle decodes one queued event and dispatches it to the email notifier.
func (w EmailWorker) Handle(ctx context.Context, payload []byte) error {
	var queued queuedEvent
	if err := json.Unmarshal(payload, &queued); err != nil {
		return fmt.Errorf("notify: decode queued event: %w", err)
	}
	event := dbgen.DomainEvent{
		Topic:      queued.Topic,
		Payload:    queued.Payload,
		OccurredAt: pgtype.Timestamptz{Time: queued.OccurredAt, Valid: true},
	}
	if queued.AggregateID != "" {
		_ = event.AggregateID.Scan(queued.AggregateID)
	}
	return w.Notifier.Notify(ctx, event)
}

const warmDistanceTask = "geo-warm-distance"

// WarmDistanceTask returns the queue kind used to pre-warm the distance cache.
func WarmDistanceTask() string {
	return warmDistanceTask
}

type warmDistancePayload struct {
	OriginPlaceID      string `json:"origin_place_id"`
	DestinationPlaceID string `json:"destination_place_id"`
}

// EnqueueWarmDistance schedules a distance cache warm-up for a place pair.
func EnqueueWarmDistance(ctx context.Context, q queue.Enqueuer, origin, destination string) error {
	raw, err := json.Marshal(warmDistancePayload{OriginPlaceID: origin, DestinationPlaceID: destination})
	if err != nil {
		return err
	}
	return q.Enqueue(ctx, queue.Task{
		Kind:           warmDistanceTask,
		Payload:        raw,
		IdempotencyKey: origin + ":" + destination,
	})
}

// WarmNotifier schedules a distance warm-up for the return leg of freshly
// posted mandates so carriers planning the trip back hit a hot cache.
// Implements events.Notifier.
type WarmNotifier struct {
	Queue queue.Enqueuer
}

// Notify implements the events.Notifier interface.
func (n WarmNotifier) Notify(ctx context.Context, event dbgen.DomainEvent) error {
	if event.Topic != events.TopicMandatCreated {
		return nil
	}
	var p struct {
		PickupPlaceID   string `json:"pickup_place_id"`
		DeliveryPlaceID string `json:"delivery_place_id"`
	}
	if err := json.Unmarshal(event.Payload, &p); err != nil || p.PickupPlaceID == "" || p.DeliveryPlaceID == "" {
		return nil
	}
	return EnqueueWarmDistance(ctx, n.Queue, p.DeliveryPlaceID, p.PickupPlaceID)
}

// DistanceResolver is the slice of the geo client the warmer needs.
type DistanceResolver interface {
	DistanceKm(ctx context.Context, originPlaceID, destinationPlaceID string) (decimal.Decimal, error)
}

// DistanceWarmer resolves a distance so the cached value is hot before the
// first quote request needs it.
type DistanceWarmer struct {
	Geo DistanceResolver
}

// Handle processes one warm-up task.
func (w DistanceWarmer) Handle(ctx context.Context, payload []byte) error {
	var task warmDistancePayload
	if err := json.Unmarshal(payload, &task); err != nil {
		return fmt.Errorf("notify: decode warm distance task: %w", err)
	}
	if task.OriginPlaceID == "" || task.DestinationPlaceID == "" {
		return nil
	}
	if _, err := w.Geo.DistanceKm(ctx, task.OriginPlaceID, task.DestinationPlaceID); err != nil {
		return fmt.Errorf("notify: warm distance: %w", err)
	}
	return nil
}
