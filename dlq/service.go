package dlq

import (
	"context"
	"log/slog"

	"github.com/groundwire/requeue/id"
	"github.com/groundwire/requeue/message"
)

// Service provides operator-facing dead letter queue operations over a
// message store.
type Service struct {
	store  message.Store
	logger *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a DLQ service over the given store.
func NewService(store message.Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Messages returns up to limit dead-lettered messages, oldest first.
// Zero limit means no limit.
func (s *Service) Messages(ctx context.Context, limit int) ([]*message.Message, error) {
	return s.store.ListDLQ(ctx, limit)
}

// Requeue moves a dead-lettered message back onto the queue with a
// fresh retry budget. It returns false when the ID is not in the dead
// letter queue; that is not an error.
func (s *Service) Requeue(ctx context.Context, msgID id.MessageID) (bool, error) {
	ok, err := s.store.RequeueFromDLQ(ctx, msgID)
	if err != nil {
		return false, err
	}
	if ok {
		s.logger.Info("message requeued from dead letter queue",
			slog.String("message_id", msgID.String()),
		)
	}
	return ok, nil
}
