// Package middleware provides composable middleware for message processing.
// Middleware wraps handler calls synchronously and can modify a processing
// attempt (recover from panics, enforce timeouts, log, add tracing, etc.).
package middleware

import (
	"context"

	"github.com/groundwire/requeue/handler"
	"github.com/groundwire/requeue/message"
)

// Handler is the terminal function that runs the message's handler logic
// and reports the outcome of the attempt.
type Handler func(ctx context.Context) handler.Result

// Middleware wraps a Handler with cross-cutting logic.
// It receives the current context, the message being processed, and the
// next handler to call. Middleware MUST call next to continue the chain
// (unless short-circuiting with its own Result).
type Middleware func(ctx context.Context, m *message.Message, next Handler) handler.Result

// Chain composes multiple middleware into a single Middleware.
// Middleware are applied right-to-left: the first middleware in the
// list is the outermost wrapper.
//
// Example: Chain(logging, recover, timeout) executes as:
//
//	logging → recover → timeout → handler
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, m *message.Message, next Handler) handler.Result {
		// Build the chain from the end backwards.
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context) handler.Result {
				return mw(ctx, m, prev)
			}
		}
		return h(ctx)
	}
}
