package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/groundwire/requeue/handler"
	"github.com/groundwire/requeue/message"
)

// Recover returns middleware that recovers from panics in the handler chain.
// Panics are logged with a stack trace and converted to a retryable failure,
// so a panicking handler is treated the same as one returning a transient
// error.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, m *message.Message, next Handler) (res handler.Result) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("message handler panicked",
					slog.String("handler", m.Handler),
					slog.String("message_id", m.ID.String()),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				res = handler.Failf(fmt.Sprintf("panic in handler %s: %v", m.Handler, r))
			}
		}()
		return next(ctx)
	}
}
