package hook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/groundwire/requeue/message"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type enqueuedEntry struct {
	name string
	hook Enqueued
}

type beforeProcessEntry struct {
	name string
	hook BeforeProcess
}

type afterProcessEntry struct {
	name string
	hook AfterProcess
}

type deadLetteredEntry struct {
	name string
	hook DeadLettered
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered hooks and dispatches lifecycle events to
// them. It type-caches hooks at registration time so emit calls iterate
// only over hooks that implement the relevant extension point. Hooks
// are invoked in registration order.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	enqueued      []enqueuedEntry
	beforeProcess []beforeProcessEntry
	afterProcess  []afterProcessEntry
	deadLettered  []deadLetteredEntry
	shutdown      []shutdownEntry
}

// NewRegistry creates a hook registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds a hook and type-asserts it into all applicable extension
// point caches.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(Enqueued); ok {
		r.enqueued = append(r.enqueued, enqueuedEntry{name, h})
	}
	if h, ok := e.(BeforeProcess); ok {
		r.beforeProcess = append(r.beforeProcess, beforeProcessEntry{name, h})
	}
	if h, ok := e.(AfterProcess); ok {
		r.afterProcess = append(r.afterProcess, afterProcessEntry{name, h})
	}
	if h, ok := e.(DeadLettered); ok {
		r.deadLettered = append(r.deadLettered, deadLetteredEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered hooks.
func (r *Registry) Extensions() []Extension { return r.extensions }

// ──────────────────────────────────────────────────
// Event emitters
// ──────────────────────────────────────────────────

// EmitEnqueued notifies all hooks that implement Enqueued.
func (r *Registry) EmitEnqueued(ctx context.Context, m *message.Message) {
	for _, e := range r.enqueued {
		r.invoke("OnEnqueued", e.name, func() error {
			return e.hook.OnEnqueued(ctx, m)
		})
	}
}

// EmitBeforeProcess notifies all hooks that implement BeforeProcess.
func (r *Registry) EmitBeforeProcess(ctx context.Context, m *message.Message) {
	for _, e := range r.beforeProcess {
		r.invoke("OnBeforeProcess", e.name, func() error {
			return e.hook.OnBeforeProcess(ctx, m)
		})
	}
}

// EmitAfterProcess notifies all hooks that implement AfterProcess.
func (r *Registry) EmitAfterProcess(ctx context.Context, m *message.Message) {
	for _, e := range r.afterProcess {
		r.invoke("OnAfterProcess", e.name, func() error {
			return e.hook.OnAfterProcess(ctx, m)
		})
	}
}

// EmitDeadLettered notifies all hooks that implement DeadLettered.
func (r *Registry) EmitDeadLettered(ctx context.Context, m *message.Message, cause error) {
	for _, e := range r.deadLettered {
		r.invoke("OnDeadLettered", e.name, func() error {
			return e.hook.OnDeadLettered(ctx, m, cause)
		})
	}
}

// EmitShutdown notifies all hooks that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		r.invoke("OnShutdown", e.name, func() error {
			return e.hook.OnShutdown(ctx)
		})
	}
}

// invoke runs a single hook call, converting panics to errors and
// logging any failure. Hook failures are never propagated — they must
// not affect message processing.
func (r *Registry) invoke(hookName, extName string, fn func() error) {
	err := func() (retErr error) {
		defer func() {
			if rec := recover(); rec != nil {
				retErr = fmt.Errorf("panic: %v", rec)
			}
		}()
		return fn()
	}()

	if err != nil {
		r.logger.Warn("hook error",
			slog.String("hook", hookName),
			slog.String("extension", extName),
			slog.String("error", err.Error()),
		)
	}
}
