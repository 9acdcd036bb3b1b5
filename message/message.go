package message

import (
	"time"

	"github.com/groundwire/requeue/id"
)

// Status represents the lifecycle state of a message.
type Status string

const (
	// StatusPending means the message is waiting to be claimed. A pending
	// message with NextRetryAt in the future is mid-backoff.
	StatusPending Status = "pending"
	// StatusProcessing means a worker has claimed the message and is
	// executing its handler.
	StatusProcessing Status = "processing"
	// StatusCompleted means the handler finished successfully. Terminal.
	StatusCompleted Status = "completed"
	// StatusDeadLetter means the message exhausted its retry budget or
	// was marked non-retryable. Terminal until an operator requeues it.
	StatusDeadLetter Status = "dead_letter"
)

// Message represents a unit of work and its retry state.
type Message struct {
	ID          id.MessageID      `json:"id"`
	Handler     string            `json:"handler"`
	Payload     []byte            `json:"payload"`
	Status      Status            `json:"status"`
	RetryCount  int               `json:"retry_count"`
	MaxRetries  int               `json:"max_retries"`
	NextRetryAt *time.Time        `json:"next_retry_at,omitempty"`
	LastError   string            `json:"last_error,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Timeout     time.Duration     `json:"timeout,omitempty"`

	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	DeadLetteredAt *time.Time `json:"dead_lettered_at,omitempty"`
}

// New constructs a pending message for the named handler with a fresh ID
// and creation timestamp. Retry policy fields come from opts.
func New(handlerName string, payload []byte, opts Options) *Message {
	now := time.Now().UTC()
	m := &Message{
		ID:         id.NewMessageID(),
		Handler:    handlerName,
		Payload:    payload,
		Status:     StatusPending,
		MaxRetries: opts.MaxRetries,
		Metadata:   opts.Metadata,
		Timeout:    opts.Timeout,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if opts.Delay > 0 {
		due := now.Add(opts.Delay)
		m.NextRetryAt = &due
	}
	return m
}

// Due reports whether the message is eligible for dequeue at the given
// time: pending status and no future NextRetryAt.
func (m *Message) Due(now time.Time) bool {
	if m.Status != StatusPending {
		return false
	}
	return m.NextRetryAt == nil || !m.NextRetryAt.After(now)
}

// Clone returns a copy of the message. The metadata map is copied so
// stores never hand out aliased mutable state; the payload is shared
// because it is immutable after enqueue.
func (m *Message) Clone() *Message {
	cp := *m
	if m.Metadata != nil {
		cp.Metadata = make(map[string]string, len(m.Metadata))
		for k, v := range m.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}
