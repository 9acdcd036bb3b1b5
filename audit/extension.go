package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/groundwire/requeue/hook"
	"github.com/groundwire/requeue/message"
)

// Compile-time interface checks.
var (
	_ hook.Extension     = (*Extension)(nil)
	_ hook.Enqueued      = (*Extension)(nil)
	_ hook.BeforeProcess = (*Extension)(nil)
	_ hook.AfterProcess  = (*Extension)(nil)
	_ hook.DeadLettered  = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement. It is
// defined locally so the audit package carries no dependency on any
// particular trail store; callers inject the concrete backend at
// wiring time.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *Event) error
}

// Event is the structured record emitted for each lifecycle action.
type Event struct {
	// What happened
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	// Details
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *Event) error

func (f RecorderFunc) Record(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// Severity constants.
const (
	SeverityInfo     = "info"
	SeverityCritical = "critical"
)

// Outcome constants.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Extension bridges message lifecycle events to an audit trail backend.
// Each lifecycle hook emits a structured audit event through the [Recorder].
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided
// Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements hook.Extension.
func (e *Extension) Name() string { return "audit" }

// OnEnqueued implements hook.Enqueued.
func (e *Extension) OnEnqueued(ctx context.Context, m *message.Message) error {
	return e.record(ctx, ActionMessageEnqueued, SeverityInfo, OutcomeSuccess,
		m.ID.String(), nil,
		"handler", m.Handler,
		"max_retries", m.MaxRetries,
	)
}

// OnBeforeProcess implements hook.BeforeProcess.
func (e *Extension) OnBeforeProcess(ctx context.Context, m *message.Message) error {
	return e.record(ctx, ActionMessageStarted, SeverityInfo, OutcomeSuccess,
		m.ID.String(), nil,
		"handler", m.Handler,
		"retry_count", m.RetryCount,
	)
}

// OnAfterProcess implements hook.AfterProcess.
func (e *Extension) OnAfterProcess(ctx context.Context, m *message.Message) error {
	return e.record(ctx, ActionMessageCompleted, SeverityInfo, OutcomeSuccess,
		m.ID.String(), nil,
		"handler", m.Handler,
		"retry_count", m.RetryCount,
	)
}

// OnDeadLettered implements hook.DeadLettered.
func (e *Extension) OnDeadLettered(ctx context.Context, m *message.Message, cause error) error {
	return e.record(ctx, ActionMessageDeadLettered, SeverityCritical, OutcomeFailure,
		m.ID.String(), cause,
		"handler", m.Handler,
		"retry_count", m.RetryCount,
		"max_retries", m.MaxRetries,
	)
}

// record builds and sends an audit event if the action is enabled.
// The kvPairs argument is a list of key-value pairs added to Metadata.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resourceID string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &Event{
		Action:     action,
		Resource:   ResourceMessage,
		Category:   CategoryMessage,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
