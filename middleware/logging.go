package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/groundwire/requeue/handler"
	"github.com/groundwire/requeue/message"
)

// Logging returns middleware that logs the start and outcome of each
// processing attempt.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, m *message.Message, next Handler) handler.Result {
		logger.Info("message processing started",
			slog.String("handler", m.Handler),
			slog.String("message_id", m.ID.String()),
			slog.Int("retry_count", m.RetryCount),
		)

		start := time.Now()
		res := next(ctx)
		elapsed := time.Since(start)

		if res.Success {
			logger.Info("message processed",
				slog.String("handler", m.Handler),
				slog.String("message_id", m.ID.String()),
				slog.Duration("elapsed", elapsed),
			)
		} else {
			logger.Error("message processing failed",
				slog.String("handler", m.Handler),
				slog.String("message_id", m.ID.String()),
				slog.Duration("elapsed", elapsed),
				slog.Bool("retryable", res.Retry),
				slog.String("error", res.Err),
			)
		}

		return res
	}
}
