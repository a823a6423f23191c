package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	dbgen "github.com/spontis/backend-spontis/internal/db/gen"
	"github.com/spontis/backend-spontis/internal/events"
)

type stubStore struct {
	lastParams dbgen.InsertDomainEventParams
}

func (s *stubStore) InsertDomainEvent(_ context.Context, arg dbgen.InsertDomainEventParams) (dbgen.DomainEvent, error) {
	s.lastParams = arg
	return dbgen.DomainEvent{
		ID:          pgtype.UUID{Bytes: uuid.New(), Valid: true},
		Topic:       arg.Topic,
		AggregateID: arg.AggregateID,
		Payload:     arg.Payload,
		OccurredAt:  pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}, nil
}

type captureNotifier struct {
	events []dbgen.DomainEvent
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, event dbgen.DomainEvent) error {
	c.events = append(c.events, event)
	return c.err
}

func toUUID(u uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: u, Valid: true}
}

func TestEmitPersistsEvent(t *testing.T) {
	store := &stubStore{}
	notifier := &captureNotifier{}
	bus := events.Bus{Store: store, Notifiers: []events.Notifier{notifier}}

	event, err := bus.Emit(context.Background(), events.TopicMandatCreated, toUUID(uuid.New()), map[string]any{"mandatId": "123"})
	require.NoError(t, err)

	require.Equal(t, events.TopicMandatCreated, store.lastParams.Topic)
	require.JSONEq(t, `{"mandatId":"123"}`, string(store.lastParams.Payload))
	require.Len(t, notifier.events, 1)
	require.Equal(t, event.ID, notifier.events[0].ID)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	require.Equal(t, "123", decoded["mandatId"])
}

func TestEmitValidatesInput(t *testing.T) {
	bus := events.Bus{Store: &stubStore{}}

	_, err := bus.Emit(context.Background(), "  ", toUUID(uuid.New()), nil)
	require.Error(t, err, "blank topic is rejected")

	_, err = bus.Emit(context.Background(), events.TopicMandatCreated, pgtype.UUID{}, nil)
	require.Error(t, err, "aggregate id is mandatory")

	_, err = bus.Emit(context.Background(), events.TopicMandatCreated, toUUID(uuid.New()), json.RawMessage(`{"broken"`))
	require.Error(t, err, "malformed raw payloads are rejected")
}

func TestEmitSurvivesNotifierFailure(t *testing.T) {
	store := &stubStore{}
	failing := &captureNotifier{err: errors.New("smtp down")}
	ok := &captureNotifier{}
	bus := events.Bus{Store: store, Notifiers: []events.Notifier{failing, ok}}

	_, err := bus.Emit(context.Background(), events.TopicMandatAccepted, toUUID(uuid.New()), nil)
	require.Error(t, err, "notifier failures are surfaced")
	require.Len(t, ok.events, 1, "remaining notifiers still run")
	require.JSONEq(t, `{}`, string(store.lastParams.Payload), "event is persisted regardless")
}
