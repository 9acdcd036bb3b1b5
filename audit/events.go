package audit

// Audit event actions. Each constant corresponds to one lifecycle hook
// and becomes the Action field of the audit event.
const (
	ActionMessageEnqueued     = "message.enqueued"
	ActionMessageStarted      = "message.started"
	ActionMessageCompleted    = "message.completed"
	ActionMessageDeadLettered = "message.dead_lettered"
)

// CategoryMessage groups all message lifecycle actions.
const CategoryMessage = "requeue.message"

// ResourceMessage is the Resource field of every event this extension emits.
const ResourceMessage = "message"

// AllActions returns every action this extension can emit.
func AllActions() []string {
	return []string{
		ActionMessageEnqueued,
		ActionMessageStarted,
		ActionMessageCompleted,
		ActionMessageDeadLettered,
	}
}
