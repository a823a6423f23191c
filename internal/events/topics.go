package events

// Topic constants for domain events emitted by the platform.
const (
	TopicMandatCreated     = "mandat.created"
	TopicMandatAccepted    = "mandat.accepted"
	TopicMandatInTransit   = "mandat.in_transit"
	TopicMandatDelivered   = "mandat.delivered"
	TopicMandatSuspended   = "mandat.suspended"
	TopicMandatCancelled   = "mandat.cancelled"
	TopicInvitationCreated = "invitation.created"
	TopicPricingActivated  = "pricing.activated"
)

// DefaultTopics returns the canonical list of topics that support notifications.
func DefaultTopics() []string {
	return []string{
		TopicMandatCreated,
		TopicMandatAccepted,
		TopicMandatInTransit,
		TopicMandatDelivered,
		TopicMandatSuspended,
		TopicMandatCancelled,
		TopicInvitationCreated,
		TopicPricingActivated,
	}
}
