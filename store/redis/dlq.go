package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/groundwire/requeue"
	"github.com/groundwire/requeue/id"
	"github.com/groundwire/requeue/message"
)

// MoveToDLQ marks the message dead-lettered: the hash is rewritten with
// the terminal status and the ID moves from the ready set to the DLQ
// sorted set, scored by the dead-letter time.
func (s *Store) MoveToDLQ(ctx context.Context, m *message.Message) error {
	mID := m.ID.String()
	key := msgKey(mID)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("requeue/redis: move to dlq exists: %w", err)
	}
	if exists == 0 {
		return requeue.ErrMessageNotFound
	}

	now := time.Now().UTC()
	dead := m.Clone()
	dead.Status = message.StatusDeadLetter
	dead.NextRetryAt = nil
	dead.DeadLetteredAt = &now
	dead.UpdatedAt = now

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, messageToMap(dead))
	pipe.ZRem(ctx, readyKey, mID)
	pipe.ZAdd(ctx, dlqKey, goredis.Z{Score: float64(now.UnixMilli()), Member: mID})
	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("requeue/redis: move to dlq: %w", err)
	}
	return nil
}

// ListDLQ returns up to limit dead-lettered messages, oldest first.
// Zero limit means no limit.
func (s *Store) ListDLQ(ctx context.Context, limit int) ([]*message.Message, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	ids, err := s.client.ZRange(ctx, dlqKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("requeue/redis: list dlq: %w", err)
	}

	msgs := make([]*message.Message, 0, len(ids))
	for _, mID := range ids {
		m, getErr := s.getByKey(ctx, msgKey(mID))
		if getErr != nil {
			if errors.Is(getErr, requeue.ErrMessageNotFound) {
				continue
			}
			return nil, getErr
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// RequeueFromDLQ moves a dead-lettered message back to pending with a
// fresh retry budget. Returns false if the ID is not in the DLQ.
func (s *Store) RequeueFromDLQ(ctx context.Context, msgID id.MessageID) (bool, error) {
	mID := msgID.String()

	if err := s.client.ZScore(ctx, dlqKey, mID).Err(); err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("requeue/redis: requeue dlq zscore: %w", err)
	}

	m, err := s.getByKey(ctx, msgKey(mID))
	if err != nil {
		return false, err
	}

	now := time.Now().UTC()
	m.Status = message.StatusPending
	m.RetryCount = 0
	m.NextRetryAt = nil
	m.LastError = ""
	m.DeadLetteredAt = nil
	m.UpdatedAt = now

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, msgKey(mID))
	pipe.HSet(ctx, msgKey(mID), messageToMap(m))
	pipe.ZRem(ctx, dlqKey, mID)
	pipe.ZAdd(ctx, readyKey, goredis.Z{Score: float64(now.UnixMilli()), Member: mID})
	_, err = pipe.Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("requeue/redis: requeue dlq: %w", err)
	}
	return true, nil
}
