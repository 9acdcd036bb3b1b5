package engine

import (
	"context"
	"errors"
	"time"

	"github.com/groundwire/requeue"
	"github.com/groundwire/requeue/handler"
	"github.com/groundwire/requeue/id"
	"github.com/groundwire/requeue/message"
)

// ProcessOne claims at most one eligible message and runs it to an
// outcome. It returns true when a message was claimed, regardless of
// whether the handler succeeded. Handler failures are absorbed into the
// message's retry state; only store errors are returned.
func (eng *Engine) ProcessOne(ctx context.Context) (bool, error) {
	if eng.store == nil {
		return false, requeue.ErrNoStore
	}
	if !eng.running.Load() {
		return false, nil
	}

	msgs, err := eng.store.Dequeue(ctx, 1)
	if err != nil {
		return false, err
	}
	if len(msgs) == 0 {
		return false, nil
	}

	return true, eng.process(ctx, msgs[0])
}

// ProcessBatch calls ProcessOne up to batchSize times, stopping early
// when the queue is empty or the engine is stopped. It returns the
// number of messages actually processed.
func (eng *Engine) ProcessBatch(ctx context.Context, batchSize int) (int, error) {
	processed := 0
	for i := 0; i < batchSize; i++ {
		if !eng.running.Load() {
			break
		}
		ok, err := eng.ProcessOne(ctx)
		if ok {
			processed++
		}
		if err != nil {
			return processed, err
		}
		if !ok {
			break
		}
	}
	return processed, nil
}

// DLQMessages returns up to limit dead-lettered messages for operator
// inspection.
func (eng *Engine) DLQMessages(ctx context.Context, limit int) ([]*message.Message, error) {
	if eng.store == nil {
		return nil, requeue.ErrNoStore
	}
	return eng.dlqService.Messages(ctx, limit)
}

// RequeueFromDLQ moves a dead-lettered message back to pending with a
// fresh retry budget. It returns false when the message is not in the
// dead letter queue.
func (eng *Engine) RequeueFromDLQ(ctx context.Context, msgID id.MessageID) (bool, error) {
	if eng.store == nil {
		return false, requeue.ErrNoStore
	}
	return eng.dlqService.Requeue(ctx, msgID)
}

// ── Processing internals ──────────────────────────────────────────────

// process runs a claimed message through the middleware chain and
// applies the retry policy to the result.
func (eng *Engine) process(ctx context.Context, m *message.Message) error {
	eng.hooks.EmitBeforeProcess(ctx, m)

	res := eng.chain(ctx, m, func(ctx context.Context) handler.Result {
		fn, ok := eng.registry.Get(m.Handler)
		if !ok {
			// An unregistered handler is a permanent failure: no retry
			// attempt can succeed until the process restarts with the
			// handler registered, and at that point the operator can
			// requeue it from the DLQ.
			return handler.Result{Err: "Handler not found"}
		}
		return fn(ctx, m.Payload)
	})

	if res.Success {
		return eng.complete(ctx, m)
	}
	return eng.fail(ctx, m, res)
}

// complete marks the message as successfully finished and notifies
// after-process hooks.
func (eng *Engine) complete(ctx context.Context, m *message.Message) error {
	now := time.Now().UTC()
	m.Status = message.StatusCompleted
	m.CompletedAt = &now
	m.NextRetryAt = nil

	if err := eng.store.Update(ctx, m); err != nil {
		return err
	}

	eng.hooks.EmitAfterProcess(ctx, m)
	eng.logger.Debug("message completed",
		"message_id", m.ID.String(),
		"handler", m.Handler,
		"retry_count", m.RetryCount,
	)
	return nil
}

// fail records a failed attempt: schedule a backoff retry while budget
// remains and the failure is retryable, otherwise dead-letter the
// message.
func (eng *Engine) fail(ctx context.Context, m *message.Message, res handler.Result) error {
	m.RetryCount++
	m.LastError = res.Err

	if !res.Retry || m.RetryCount > m.MaxRetries {
		now := time.Now().UTC()
		m.Status = message.StatusDeadLetter
		m.NextRetryAt = nil
		m.DeadLetteredAt = &now
		if err := eng.store.MoveToDLQ(ctx, m); err != nil {
			return err
		}
		eng.hooks.EmitDeadLettered(ctx, m, errors.New(res.Err))
		eng.logger.Warn("message dead lettered",
			"message_id", m.ID.String(),
			"handler", m.Handler,
			"retry_count", m.RetryCount,
			"retryable", res.Retry,
			"error", res.Err,
		)
		return nil
	}

	delay := eng.bo.Delay(m.RetryCount)
	next := time.Now().UTC().Add(delay)
	m.Status = message.StatusPending
	m.NextRetryAt = &next

	if err := eng.store.Update(ctx, m); err != nil {
		return err
	}

	eng.logger.Debug("message scheduled for retry",
		"message_id", m.ID.String(),
		"handler", m.Handler,
		"retry_count", m.RetryCount,
		"delay", delay,
		"error", res.Err,
	)
	return nil
}
