package events

// Topic constants for domain events emitted by the platform.
const (
	TopicInvitationAccepted = "invitation.accepted"
	TopicAnswersSubmitted   = "invitation.answers_submitted"
	TopicCheckoutCreated    = "checkout.session_created"
	TopicCheckoutCompleted  = "checkout.session_completed"
	TopicCheckoutFailed     = "checkout.session_failed"
)

// DefaultTopics returns the canonical list of topics that support notifications.
func DefaultTopics() []string {
	return []string{
		TopicInvitationAccepted,
		TopicAnswersSubmitted,
		TopicCheckoutCreated,
		TopicCheckoutCompleted,
		TopicCheckoutFailed,
	}
}
