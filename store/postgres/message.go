package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/groundwire/requeue"
	"github.com/groundwire/requeue/id"
	"github.com/groundwire/requeue/message"
)

const messageColumns = `
	id, handler, payload, status, retry_count, max_retries,
	next_retry_at, last_error, metadata, timeout,
	created_at, updated_at, started_at, completed_at, dead_lettered_at`

// Enqueue persists a new message in pending status.
func (s *Store) Enqueue(ctx context.Context, m *message.Message) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO requeue_messages (
			id, handler, payload, status, retry_count, max_retries,
			next_retry_at, last_error, metadata, timeout,
			created_at, updated_at, started_at, completed_at, dead_lettered_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, $12, $13, $14, $15
		)`,
		m.ID.String(), m.Handler, m.Payload, string(m.Status),
		m.RetryCount, m.MaxRetries,
		m.NextRetryAt, m.LastError, metadataParam(m.Metadata), m.Timeout.Nanoseconds(),
		m.CreatedAt, m.UpdatedAt, m.StartedAt, m.CompletedAt, m.DeadLetteredAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return requeue.ErrMessageExists
		}
		return fmt.Errorf("requeue/postgres: enqueue message: %w", err)
	}
	return nil
}

// Dequeue atomically claims up to limit pending, due messages in FIFO
// order, sets them to processing, and returns them. Uses SELECT FOR
// UPDATE SKIP LOCKED for concurrent-safe dequeue.
func (s *Store) Dequeue(ctx context.Context, limit int) ([]*message.Message, error) {
	rows, err := s.pool.Query(ctx, `
		WITH claimed AS (
			UPDATE requeue_messages
			SET status = 'processing', started_at = NOW(), updated_at = NOW()
			WHERE id IN (
				SELECT id FROM requeue_messages
				WHERE status = 'pending'
				  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
				ORDER BY created_at ASC
				FOR UPDATE SKIP LOCKED
				LIMIT $1
			)
			RETURNING `+messageColumns+`
		)
		SELECT * FROM claimed ORDER BY created_at ASC`,
		limitParam(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("requeue/postgres: dequeue messages: %w", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

// Get retrieves a message by ID.
func (s *Store) Get(ctx context.Context, msgID id.MessageID) (*message.Message, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+messageColumns+`
		FROM requeue_messages
		WHERE id = $1`,
		msgID.String(),
	)

	m, err := scanMessage(row)
	if err != nil {
		if isNoRows(err) {
			return nil, requeue.ErrMessageNotFound
		}
		return nil, fmt.Errorf("requeue/postgres: get message: %w", err)
	}
	return m, nil
}

// Update persists the full message state.
func (s *Store) Update(ctx context.Context, m *message.Message) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE requeue_messages SET
			handler = $2, payload = $3, status = $4,
			retry_count = $5, max_retries = $6,
			next_retry_at = $7, last_error = $8, metadata = $9,
			timeout = $10, started_at = $11, completed_at = $12,
			dead_lettered_at = $13, updated_at = NOW()
		WHERE id = $1`,
		m.ID.String(), m.Handler, m.Payload, string(m.Status),
		m.RetryCount, m.MaxRetries,
		m.NextRetryAt, m.LastError, metadataParam(m.Metadata),
		m.Timeout.Nanoseconds(), m.StartedAt, m.CompletedAt,
		m.DeadLetteredAt,
	)
	if err != nil {
		return fmt.Errorf("requeue/postgres: update message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return requeue.ErrMessageNotFound
	}
	return nil
}

// ── helpers ──

// limitParam converts a Go limit to a SQL LIMIT argument; non-positive
// means no limit (LIMIT NULL).
func limitParam(limit int) interface{} {
	if limit <= 0 {
		return nil
	}
	return limit
}

// metadataParam converts the metadata map to a JSONB parameter, NULL
// when empty.
func metadataParam(md map[string]string) interface{} {
	if len(md) == 0 {
		return nil
	}
	b, _ := json.Marshal(md) //nolint:errcheck // marshal cannot fail for string maps
	return b
}

// scanMessage scans a single message row.
func scanMessage(row pgx.Row) (*message.Message, error) {
	var (
		m         message.Message
		idStr     string
		statusStr string
		metaRaw   []byte
		timeoutNs int64
	)
	err := row.Scan(
		&idStr, &m.Handler, &m.Payload, &statusStr,
		&m.RetryCount, &m.MaxRetries,
		&m.NextRetryAt, &m.LastError, &metaRaw, &timeoutNs,
		&m.CreatedAt, &m.UpdatedAt, &m.StartedAt, &m.CompletedAt, &m.DeadLetteredAt,
	)
	if err != nil {
		return nil, err
	}

	m.Status = message.Status(statusStr)
	m.Timeout = time.Duration(timeoutNs)

	parsedID, parseErr := id.ParseMessageID(idStr)
	if parseErr != nil {
		return nil, fmt.Errorf("requeue/postgres: parse message id %q: %w", idStr, parseErr)
	}
	m.ID = parsedID

	if len(metaRaw) > 0 {
		md := make(map[string]string)
		if umErr := json.Unmarshal(metaRaw, &md); umErr == nil {
			m.Metadata = md
		}
	}

	return &m, nil
}

// collectMessages collects all messages from query rows.
func collectMessages(rows pgx.Rows) ([]*message.Message, error) {
	var msgs []*message.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("requeue/postgres: scan message row: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("requeue/postgres: iterate message rows: %w", err)
	}
	return msgs, nil
}
