package postgres

import (
	"context"
	"fmt"

	"github.com/groundwire/requeue"
	"github.com/groundwire/requeue/id"
	"github.com/groundwire/requeue/message"
)

// MoveToDLQ marks the message dead-lettered, removing it from the
// eligible-for-dequeue set.
func (s *Store) MoveToDLQ(ctx context.Context, m *message.Message) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE requeue_messages SET
			status = 'dead_letter',
			retry_count = $2,
			last_error = $3,
			next_retry_at = NULL,
			dead_lettered_at = NOW(),
			updated_at = NOW()
		WHERE id = $1`,
		m.ID.String(), m.RetryCount, m.LastError,
	)
	if err != nil {
		return fmt.Errorf("requeue/postgres: move to dlq: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return requeue.ErrMessageNotFound
	}
	return nil
}

// ListDLQ returns up to limit dead-lettered messages, oldest first.
// Zero limit means no limit.
func (s *Store) ListDLQ(ctx context.Context, limit int) ([]*message.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM requeue_messages
		WHERE status = 'dead_letter'
		ORDER BY dead_lettered_at ASC
		LIMIT $1`,
		limitParam(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("requeue/postgres: list dlq: %w", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

// RequeueFromDLQ atomically moves a dead-lettered message back to
// pending with a fresh retry budget. Returns false if the ID is not in
// the DLQ.
func (s *Store) RequeueFromDLQ(ctx context.Context, msgID id.MessageID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE requeue_messages SET
			status = 'pending',
			retry_count = 0,
			next_retry_at = NULL,
			last_error = '',
			dead_lettered_at = NULL,
			updated_at = NOW()
		WHERE id = $1 AND status = 'dead_letter'`,
		msgID.String(),
	)
	if err != nil {
		return false, fmt.Errorf("requeue/postgres: requeue from dlq: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
