package middleware

import (
	"context"
	"log/slog"

	"github.com/groundwire/requeue/handler"
	"github.com/groundwire/requeue/message"
)

// Timeout returns middleware that enforces a per-message processing deadline.
// If the message has a non-zero Timeout, a context.WithTimeout wraps the
// handler call. When the deadline is exceeded the context is cancelled and
// the handler is expected to observe ctx.Done and fail the attempt.
func Timeout(logger *slog.Logger) Middleware {
	return func(ctx context.Context, m *message.Message, next Handler) handler.Result {
		if m.Timeout > 0 {
			logger.Debug("message timeout set",
				slog.String("message_id", m.ID.String()),
				slog.Duration("timeout", m.Timeout),
			)
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, m.Timeout)
			defer cancel()
		}
		return next(ctx)
	}
}
