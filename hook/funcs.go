package hook

import (
	"context"

	"github.com/groundwire/requeue/message"
)

// MessageFunc is a bare callback receiving the message for an event.
type MessageFunc func(ctx context.Context, m *message.Message) error

// enqueuedFunc adapts a MessageFunc to the Enqueued interface.
type enqueuedFunc struct {
	name string
	fn   MessageFunc
}

func (f *enqueuedFunc) Name() string { return f.name }

func (f *enqueuedFunc) OnEnqueued(ctx context.Context, m *message.Message) error {
	return f.fn(ctx, m)
}

// EnqueuedFunc wraps a closure as an Enqueued hook.
func EnqueuedFunc(name string, fn MessageFunc) Extension {
	return &enqueuedFunc{name: name, fn: fn}
}

// beforeProcessFunc adapts a MessageFunc to the BeforeProcess interface.
type beforeProcessFunc struct {
	name string
	fn   MessageFunc
}

func (f *beforeProcessFunc) Name() string { return f.name }

func (f *beforeProcessFunc) OnBeforeProcess(ctx context.Context, m *message.Message) error {
	return f.fn(ctx, m)
}

// BeforeProcessFunc wraps a closure as a BeforeProcess hook.
func BeforeProcessFunc(name string, fn MessageFunc) Extension {
	return &beforeProcessFunc{name: name, fn: fn}
}

// afterProcessFunc adapts a MessageFunc to the AfterProcess interface.
type afterProcessFunc struct {
	name string
	fn   MessageFunc
}

func (f *afterProcessFunc) Name() string { return f.name }

func (f *afterProcessFunc) OnAfterProcess(ctx context.Context, m *message.Message) error {
	return f.fn(ctx, m)
}

// AfterProcessFunc wraps a closure as an AfterProcess hook.
func AfterProcessFunc(name string, fn MessageFunc) Extension {
	return &afterProcessFunc{name: name, fn: fn}
}

// deadLetteredFunc adapts a closure to the DeadLettered interface.
type deadLetteredFunc struct {
	name string
	fn   func(ctx context.Context, m *message.Message, cause error) error
}

func (f *deadLetteredFunc) Name() string { return f.name }

func (f *deadLetteredFunc) OnDeadLettered(ctx context.Context, m *message.Message, cause error) error {
	return f.fn(ctx, m, cause)
}

// DeadLetteredFunc wraps a closure as a DeadLettered hook.
func DeadLetteredFunc(name string, fn func(ctx context.Context, m *message.Message, cause error) error) Extension {
	return &deadLetteredFunc{name: name, fn: fn}
}
