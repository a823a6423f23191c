package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spontis/backend-spontis/internal/common"
	dbgen "github.com/spontis/backend-spontis/internal/db/gen"
	"github.com/spontis/backend-spontis/internal/events"
)

var subjects = map[string]string{
	events.TopicMandatCreated:     "Votre mandat de transport est publié",
	events.TopicMandatAccepted:    "Votre mandat a été accepté par un transporteur",
	events.TopicMandatInTransit:   "Votre marchandise est en route",
	events.TopicMandatDelivered:   "Votre marchandise a été livrée",
	events.TopicMandatSuspended:   "Votre mandat a été suspendu",
	events.TopicMandatCancelled:   "Votre mandat a été annulé",
	events.TopicInvitationCreated: "Invitation à rejoindre une entreprise sur Spontis",
}

// recipientKeys are checked in order; event emitters are not consistent about
// which one they use.
var recipientKeys = []string{"email", "recipient", "userEmail"}

// EmailNotifier sends transactional emails for selected topics.
type EmailNotifier struct {
	Mail         common.EmailSender
	Enabled      bool
	From         string
	TopicToggles map[string]bool
}

// Notify implements the events.Notifier interface. Events without a resolvable
// recipient are skipped silently since not every event targets a person.
func (n EmailNotifier) Notify(_ context.Context, event dbgen.DomainEvent) error {
	if !n.Enabled || n.Mail == nil {
		return nil
	}
	if enabled, ok := n.TopicToggles[event.Topic]; ok && !enabled {
		return nil
	}

	payload := map[string]any{}
	if len(event.Payload) > 0 {
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("email notify: decode payload: %w", err)
		}
	}
	to := extractRecipient(payload)
	if to == "" {
		return nil
	}
	return n.Mail.Send(to, subjectFor(event.Topic), bodyFor(event.Topic, payload, event.OccurredAt.Time))
}

func extractRecipient(payload map[string]any) string {
	for _, key := range recipientKeys {
		if s, ok := payload[key].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

func subjectFor(topic string) string {
	if subject, ok := subjects[topic]; ok {
		return subject
	}
	return "Notification " + topic
}

func bodyFor(topic string, payload map[string]any, occurred time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Événement %s survenu le %s.", topic, occurred.Format(time.RFC3339))

	appendField := func(label, key string) {
		if v, ok := payload[key].(string); ok && v != "" {
			fmt.Fprintf(&b, "\n%s: %s", label, v)
		}
	}
	appendField("Mandat", "mandat_id")
	appendField("Statut", "status")
	appendField("Invitation", "invitation_id")
	if note, ok := payload["message"].(string); ok && note != "" {
		b.WriteString("\n" + note)
	}
	return b.String()
}
