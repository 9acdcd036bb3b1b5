// Package audit is a hook extension that bridges message lifecycle
// events to an audit trail backend.
//
// Every lifecycle hook emits a structured audit event through the
// [Recorder] interface. The extension assigns appropriate severity
// levels (info for normal operations, critical for dead letters) and
// metadata (handler name, retry counts, errors).
//
// # Usage
//
//	eng := engine.New(s, engine.WithHook(
//	    audit.New(audit.RecorderFunc(func(ctx context.Context, evt *audit.Event) error {
//	        return trail.Append(ctx, evt.Action, evt.ResourceID, evt.Metadata)
//	    })),
//	))
//
// # Selective filtering
//
//	audit.New(recorder,
//	    audit.WithActions(
//	        audit.ActionMessageDeadLettered,
//	    ),
//	)
package audit
