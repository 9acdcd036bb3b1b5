package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/groundwire/requeue"
	"github.com/groundwire/requeue/id"
	"github.com/groundwire/requeue/message"
)

// Enqueue stores the message as a Hash and adds it to the ready Sorted Set
// scored by its due time.
func (s *Store) Enqueue(ctx context.Context, m *message.Message) error {
	mID := m.ID.String()
	key := msgKey(mID)

	// Check for duplicate.
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("requeue/redis: enqueue check exists: %w", err)
	}
	if exists > 0 {
		return requeue.ErrMessageExists
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, messageToMap(m))
	pipe.SAdd(ctx, msgIDsKey, mID)
	pipe.ZAdd(ctx, readyKey, goredis.Z{Score: dueScore(m), Member: mID})

	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("requeue/redis: enqueue message: %w", err)
	}
	return nil
}

// Dequeue atomically pops up to limit due messages from the ready set.
// ZPopMin claims members in due-time order; a popped member whose score
// is still in the future is pushed back, and since scores ascend no
// later member can be due either.
func (s *Store) Dequeue(ctx context.Context, limit int) ([]*message.Message, error) {
	now := time.Now().UTC()
	nowScore := float64(now.UnixMilli())

	count := int64(limit)
	if limit <= 0 {
		var err error
		count, err = s.client.ZCard(ctx, readyKey).Result()
		if err != nil {
			return nil, fmt.Errorf("requeue/redis: dequeue zcard: %w", err)
		}
		if count == 0 {
			return nil, nil
		}
	}

	members, err := s.client.ZPopMin(ctx, readyKey, count).Result()
	if err != nil {
		return nil, fmt.Errorf("requeue/redis: dequeue zpopmin: %w", err)
	}

	var msgs []*message.Message
	var pushBack []goredis.Z
	for i, z := range members {
		mID, ok := z.Member.(string)
		if !ok {
			continue
		}
		if z.Score > nowScore {
			pushBack = append(pushBack, z)
			continue
		}

		key := msgKey(mID)
		_, err = s.client.HSet(ctx, key,
			"status", string(message.StatusProcessing),
			"started_at", now.Format(time.RFC3339Nano),
			"updated_at", now.Format(time.RFC3339Nano),
		).Result()
		if err != nil {
			// ZPopMin already removed these members; put the unclaimed
			// ones back so they are not orphaned out of the ready set.
			s.restore(ctx, append(pushBack, members[i:]...))
			return nil, fmt.Errorf("requeue/redis: dequeue claim: %w", err)
		}

		m, getErr := s.getByKey(ctx, key)
		if getErr != nil {
			s.restore(ctx, append(pushBack, members[i:]...))
			return nil, getErr
		}
		msgs = append(msgs, m)
	}

	if len(pushBack) > 0 {
		if err := s.client.ZAdd(ctx, readyKey, pushBack...).Err(); err != nil {
			return nil, fmt.Errorf("requeue/redis: dequeue push back: %w", err)
		}
	}

	return msgs, nil
}

// Get retrieves a message by ID.
func (s *Store) Get(ctx context.Context, msgID id.MessageID) (*message.Message, error) {
	return s.getByKey(ctx, msgKey(msgID.String()))
}

// Update persists the full message state and reconciles the ready set:
// a pending message is (re)scheduled at its due time, any other status
// is removed from the ready set.
func (s *Store) Update(ctx context.Context, m *message.Message) error {
	mID := m.ID.String()
	key := msgKey(mID)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("requeue/redis: update exists: %w", err)
	}
	if exists == 0 {
		return requeue.ErrMessageNotFound
	}

	fields := messageToMap(m)
	fields["updated_at"] = time.Now().UTC().Format(time.RFC3339Nano)

	pipe := s.client.TxPipeline()
	// Rewrite the whole hash so cleared optional fields (next_retry_at,
	// dead_lettered_at) don't linger from earlier states.
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	if m.Status == message.StatusPending {
		pipe.ZAdd(ctx, readyKey, goredis.Z{Score: dueScore(m), Member: mID})
	} else {
		pipe.ZRem(ctx, readyKey, mID)
	}
	_, err = pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("requeue/redis: update message: %w", err)
	}
	return nil
}

// restore re-adds popped members to the ready set after a dequeue
// failure. A failure here is logged, not returned: the caller is
// already propagating the original error.
func (s *Store) restore(ctx context.Context, members []goredis.Z) {
	if len(members) == 0 {
		return
	}
	if err := s.client.ZAdd(ctx, readyKey, members...).Err(); err != nil {
		s.logger.Error("failed to restore ready set after dequeue error",
			"members", len(members),
			"error", err.Error(),
		)
	}
}

// ── helpers ──

// dueScore computes the ready-set score for a message: its NextRetryAt
// when set, otherwise its CreatedAt, in unix milliseconds. Lower score =
// dequeued first, which gives FIFO for immediately-eligible messages.
func dueScore(m *message.Message) float64 {
	if m.NextRetryAt != nil {
		return float64(m.NextRetryAt.UnixMilli())
	}
	return float64(m.CreatedAt.UnixMilli())
}

func messageToMap(m *message.Message) map[string]interface{} {
	fields := map[string]interface{}{
		"id":          m.ID.String(),
		"handler":     m.Handler,
		"payload":     string(m.Payload),
		"status":      string(m.Status),
		"retry_count": strconv.Itoa(m.RetryCount),
		"max_retries": strconv.Itoa(m.MaxRetries),
		"last_error":  m.LastError,
		"timeout":     strconv.FormatInt(int64(m.Timeout), 10),
		"created_at":  m.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":  m.UpdatedAt.Format(time.RFC3339Nano),
	}
	if len(m.Metadata) > 0 {
		fields["metadata"] = marshalJSON(m.Metadata)
	}
	if m.NextRetryAt != nil {
		fields["next_retry_at"] = m.NextRetryAt.Format(time.RFC3339Nano)
	}
	if m.StartedAt != nil {
		fields["started_at"] = m.StartedAt.Format(time.RFC3339Nano)
	}
	if m.CompletedAt != nil {
		fields["completed_at"] = m.CompletedAt.Format(time.RFC3339Nano)
	}
	if m.DeadLetteredAt != nil {
		fields["dead_lettered_at"] = m.DeadLetteredAt.Format(time.RFC3339Nano)
	}
	return fields
}

func (s *Store) getByKey(ctx context.Context, key string) (*message.Message, error) {
	vals, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("requeue/redis: get message: %w", err)
	}
	if len(vals) == 0 {
		return nil, requeue.ErrMessageNotFound
	}
	return mapToMessage(vals)
}

func mapToMessage(vals map[string]string) (*message.Message, error) {
	mID, err := id.ParseMessageID(vals["id"])
	if err != nil {
		return nil, fmt.Errorf("requeue/redis: parse message id: %w", err)
	}

	retryCount, _ := strconv.Atoi(vals["retry_count"])        //nolint:errcheck // best-effort parse from trusted Redis data
	maxRetries, _ := strconv.Atoi(vals["max_retries"])        //nolint:errcheck // best-effort parse from trusted Redis data
	timeout, _ := strconv.ParseInt(vals["timeout"], 10, 64)   //nolint:errcheck // best-effort parse from trusted Redis data
	createdAt, _ := time.Parse(time.RFC3339Nano, vals["created_at"]) //nolint:errcheck // best-effort parse from trusted Redis data
	updatedAt, _ := time.Parse(time.RFC3339Nano, vals["updated_at"]) //nolint:errcheck // best-effort parse from trusted Redis data

	m := &message.Message{
		ID:         mID,
		Handler:    vals["handler"],
		Payload:    []byte(vals["payload"]),
		Status:     message.Status(vals["status"]),
		RetryCount: retryCount,
		MaxRetries: maxRetries,
		LastError:  vals["last_error"],
		Metadata:   unmarshalMap(vals["metadata"]),
		Timeout:    time.Duration(timeout),
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}

	if v := vals["next_retry_at"]; v != "" {
		t, _ := time.Parse(time.RFC3339Nano, v) //nolint:errcheck // best-effort parse from trusted Redis data
		m.NextRetryAt = &t
	}
	if v := vals["started_at"]; v != "" {
		t, _ := time.Parse(time.RFC3339Nano, v) //nolint:errcheck // best-effort parse from trusted Redis data
		m.StartedAt = &t
	}
	if v := vals["completed_at"]; v != "" {
		t, _ := time.Parse(time.RFC3339Nano, v) //nolint:errcheck // best-effort parse from trusted Redis data
		m.CompletedAt = &t
	}
	if v := vals["dead_lettered_at"]; v != "" {
		t, _ := time.Parse(time.RFC3339Nano, v) //nolint:errcheck // best-effort parse from trusted Redis data
		m.DeadLetteredAt = &t
	}

	return m, nil
}

// marshalJSON is a helper to marshal to JSON string.
func marshalJSON(v interface{}) string {
	b, _ := json.Marshal(v) //nolint:errcheck // marshal should not fail for basic types
	return string(b)
}

// unmarshalMap parses a JSON map.
func unmarshalMap(s string) map[string]string {
	if s == "" || s == "null" {
		return nil
	}
	out := make(map[string]string)
	_ = json.Unmarshal([]byte(s), &out) //nolint:errcheck // best-effort parse from trusted Redis data
	return out
}
