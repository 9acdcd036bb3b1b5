package message

import (
	"context"

	"github.com/groundwire/requeue/id"
)

// Store defines the persistence contract for queue messages. All
// operations must be safe for concurrent use against the same instance.
type Store interface {
	// Enqueue persists a new message in pending status.
	Enqueue(ctx context.Context, m *Message) error

	// Dequeue atomically claims up to limit messages that are pending
	// and due (NextRetryAt unset or in the past), flips them to
	// processing, and returns them. A claimed message must not be
	// returned by a concurrent Dequeue call until it is released via
	// Update or MoveToDLQ.
	Dequeue(ctx context.Context, limit int) ([]*Message, error)

	// Get retrieves a message by ID.
	Get(ctx context.Context, msgID id.MessageID) (*Message, error)

	// Update persists the full message state (status, retry count,
	// next retry time, last error).
	Update(ctx context.Context, m *Message) error

	// MoveToDLQ records the message as dead-lettered and removes it
	// from the eligible-for-dequeue set.
	MoveToDLQ(ctx context.Context, m *Message) error

	// ListDLQ returns up to limit dead-lettered messages in a stable
	// order (oldest dead-lettered first). Zero limit means no limit.
	ListDLQ(ctx context.Context, limit int) ([]*Message, error)

	// RequeueFromDLQ atomically moves a dead-lettered message back to
	// pending with its retry count reset to zero and NextRetryAt
	// cleared. Returns false if the ID is not in the dead letter queue.
	RequeueFromDLQ(ctx context.Context, msgID id.MessageID) (bool, error)
}
