// Package handler defines the processing outcome type, typed handler
// definitions, and the registry consulted by the engine per message.
//
// # Result
//
// A handler reports its outcome as a structured [Result] rather than a
// bare error: success, a retryable failure ([Fail]), or a permanent
// failure that skips the remaining retry budget ([Reject] — e.g. a
// validation error that will never succeed). Panics inside handlers are
// converted to retryable failures by the engine's middleware chain; they
// never escape message processing.
//
// # Defining a Handler
//
// Use [Definition] with a typed function. The payload is JSON-serialized
// at enqueue time and deserialized before the handler runs:
//
//	var SendEmail = handler.NewDefinition("send_email",
//	    func(ctx context.Context, input EmailInput) handler.Result {
//	        if err := mailer.Send(input.To, input.Subject); err != nil {
//	            return handler.Fail(err)
//	        }
//	        return handler.OK()
//	    },
//	)
//
// # Registry
//
// [Registry] maps handler names to type-erased [Func] values plus the
// per-handler default options consulted at enqueue time. Register
// definitions at startup via [Register]; the engine package provides
// higher-level engine.Register and engine.Enqueue wrappers.
package handler
