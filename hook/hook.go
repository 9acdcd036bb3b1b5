// Package hook defines the lifecycle extension points for the engine.
// Hooks are notified synchronously as messages move through processing —
// auditing, metrics, alerting on dead letters, etc. They are side-effect
// only: a hook error or panic is logged and swallowed, and never alters
// message state or control flow.
//
// Each extension point is a separate interface so hooks opt in only to
// the events they care about. Bare closures can be adapted with
// [BeforeProcessFunc] and friends.
package hook

import (
	"context"

	"github.com/groundwire/requeue/message"
)

// Extension is the base interface all hooks must implement.
type Extension interface {
	// Name returns a unique human-readable name for the hook.
	Name() string
}

// Enqueued is called after a message is successfully enqueued.
type Enqueued interface {
	OnEnqueued(ctx context.Context, m *message.Message) error
}

// BeforeProcess is called after a message is claimed, before its handler
// runs.
type BeforeProcess interface {
	OnBeforeProcess(ctx context.Context, m *message.Message) error
}

// AfterProcess is called after a message completes successfully.
type AfterProcess interface {
	OnAfterProcess(ctx context.Context, m *message.Message) error
}

// DeadLettered is called when a message is moved to the dead letter
// queue. cause is the terminal failure.
type DeadLettered interface {
	OnDeadLettered(ctx context.Context, m *message.Message, cause error) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
