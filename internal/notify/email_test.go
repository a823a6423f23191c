package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/spontis/backend-spontis/internal/common"
	dbgen "github.com/spontis/backend-spontis/internal/db/gen"
	"github.com/spontis/backend-spontis/internal/events"
)

func domainEvent(t *testing.T, topic string, payload map[string]any) dbgen.DomainEvent {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return dbgen.DomainEvent{
		Topic:      topic,
		Payload:    raw,
		OccurredAt: pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
}

func TestEmailNotifierSendsForMandateAccepted(t *testing.T) {
	outbox := &common.InMemoryEmail{}
	n := EmailNotifier{Mail: outbox, Enabled: true}

	event := domainEvent(t, events.TopicMandatAccepted, map[string]any{
		"email":     "shipper@spontis.ch",
		"mandat_id": "m-1",
		"status":    "accepted",
	})
	require.NoError(t, n.Notify(context.Background(), event))
	require.Len(t, outbox.Outbox, 1)
	require.Equal(t, "shipper@spontis.ch", outbox.Outbox[0].To)
	require.Contains(t, outbox.Outbox[0].Subject, "accepté")
	require.Contains(t, outbox.Outbox[0].HTML, "m-1")
}

func TestEmailNotifierSkipsWithoutRecipient(t *testing.T) {
	outbox := &common.InMemoryEmail{}
	n := EmailNotifier{Mail: outbox, Enabled: true}

	event := domainEvent(t, events.TopicMandatCreated, map[string]any{"mandat_id": "m-1"})
	require.NoError(t, n.Notify(context.Background(), event))
	require.Empty(t, outbox.Outbox)
}

func TestEmailNotifierHonoursToggles(t *testing.T) {
	outbox := &common.InMemoryEmail{}
	n := EmailNotifier{
		Mail:         outbox,
		Enabled:      true,
		TopicToggles: map[string]bool{events.TopicMandatCreated: false},
	}

	event := domainEvent(t, events.TopicMandatCreated, map[string]any{"email": "a@b.ch"})
	require.NoError(t, n.Notify(context.Background(), event))
	require.Empty(t, outbox.Outbox)
}

func TestEmailWorkerRoundtrip(t *testing.T) {
	outbox := &common.InMemoryEmail{}
	worker := EmailWorker{Notifier: EmailNotifier{Mail: outbox, Enabled: true}}

	raw, err := json.Marshal(queuedEvent{
		Topic:      events.TopicInvitationCreated,
		Payload:    json.RawMessage(`{"email":"new@spontis.ch","invitation_id":"i-1"}`),
		OccurredAt: time.Now(),
	})
	require.NoError(t, err)

	require.NoError(t, worker.Handle(context.Background(), raw))
	require.Len(t, outbox.Outbox, 1)
	require.Contains(t, outbox.Outbox[0].Subject, "Invitation")
}
