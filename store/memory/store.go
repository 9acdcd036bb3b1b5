// Package memory provides a fully in-memory message store. Safe for
// concurrent access. Intended for unit testing and development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/groundwire/requeue"
	"github.com/groundwire/requeue/id"
	"github.com/groundwire/requeue/message"
	"github.com/groundwire/requeue/store"
)

var (
	_ message.Store = (*Store)(nil)
	_ store.Store   = (*Store)(nil)
)

// Store holds all messages in a single map guarded by a RWMutex.
// Messages are copied on the way in and out so callers never share
// mutable state with the store.
type Store struct {
	mu       sync.RWMutex
	messages map[string]*message.Message
	closed   bool
}

// New returns a new empty Store.
func New() *Store {
	return &Store{
		messages: make(map[string]*message.Message),
	}
}

// ──────────────────────────────────────────────────
// Lifecycle — Migrate / Ping / Close
// ──────────────────────────────────────────────────

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping succeeds while the store is open.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return requeue.ErrStoreClosed
	}
	return nil
}

// Close marks the store closed. All subsequent operations return
// ErrStoreClosed. Closing twice is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// ──────────────────────────────────────────────────
// Queue operations
// ──────────────────────────────────────────────────

// Enqueue persists a new message in pending status.
func (s *Store) Enqueue(_ context.Context, m *message.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return requeue.ErrStoreClosed
	}
	key := m.ID.String()
	if _, exists := s.messages[key]; exists {
		return requeue.ErrMessageExists
	}
	s.messages[key] = m.Clone()
	return nil
}

// Dequeue atomically claims up to limit pending, due messages in FIFO
// order (oldest CreatedAt first), flips them to processing, and returns
// copies. Claimed messages are invisible to concurrent Dequeue calls
// until released via Update or MoveToDLQ.
func (s *Store) Dequeue(_ context.Context, limit int) ([]*message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, requeue.ErrStoreClosed
	}
	now := time.Now().UTC()

	candidates := make([]*message.Message, 0, len(s.messages))
	for _, m := range s.messages {
		if m.Due(now) {
			candidates = append(candidates, m)
		}
	}

	sort.Slice(candidates, func(i, k int) bool {
		return candidates[i].CreatedAt.Before(candidates[k].CreatedAt)
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	result := make([]*message.Message, len(candidates))
	for i, m := range candidates {
		m.Status = message.StatusProcessing
		n := now
		m.StartedAt = &n
		m.UpdatedAt = now
		result[i] = m.Clone()
	}

	return result, nil
}

// Get retrieves a message by ID.
func (s *Store) Get(_ context.Context, msgID id.MessageID) (*message.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, requeue.ErrStoreClosed
	}
	m, ok := s.messages[msgID.String()]
	if !ok {
		return nil, requeue.ErrMessageNotFound
	}
	return m.Clone(), nil
}

// Update persists the full message state.
func (s *Store) Update(_ context.Context, m *message.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return requeue.ErrStoreClosed
	}
	key := m.ID.String()
	if _, ok := s.messages[key]; !ok {
		return requeue.ErrMessageNotFound
	}
	cp := m.Clone()
	cp.UpdatedAt = time.Now().UTC()
	s.messages[key] = cp
	return nil
}

// ──────────────────────────────────────────────────
// Dead letter queue
// ──────────────────────────────────────────────────

// MoveToDLQ marks the message dead-lettered, removing it from the
// eligible-for-dequeue set.
func (s *Store) MoveToDLQ(_ context.Context, m *message.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return requeue.ErrStoreClosed
	}
	key := m.ID.String()
	if _, ok := s.messages[key]; !ok {
		return requeue.ErrMessageNotFound
	}

	now := time.Now().UTC()
	cp := m.Clone()
	cp.Status = message.StatusDeadLetter
	cp.NextRetryAt = nil
	cp.DeadLetteredAt = &now
	cp.UpdatedAt = now
	s.messages[key] = cp
	return nil
}

// ListDLQ returns up to limit dead-lettered messages, oldest
// dead-lettered first. Zero limit means no limit.
func (s *Store) ListDLQ(_ context.Context, limit int) ([]*message.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, requeue.ErrStoreClosed
	}
	result := make([]*message.Message, 0, len(s.messages))
	for _, m := range s.messages {
		if m.Status == message.StatusDeadLetter {
			result = append(result, m.Clone())
		}
	}

	sort.Slice(result, func(i, k int) bool {
		ti, tk := deadLetteredAt(result[i]), deadLetteredAt(result[k])
		if ti.Equal(tk) {
			return result[i].ID.String() < result[k].ID.String()
		}
		return ti.Before(tk)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

// RequeueFromDLQ moves a dead-lettered message back to pending with a
// fresh retry budget. Returns false if the ID is not in the DLQ.
func (s *Store) RequeueFromDLQ(_ context.Context, msgID id.MessageID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, requeue.ErrStoreClosed
	}
	m, ok := s.messages[msgID.String()]
	if !ok || m.Status != message.StatusDeadLetter {
		return false, nil
	}

	m.Status = message.StatusPending
	m.RetryCount = 0
	m.NextRetryAt = nil
	m.LastError = ""
	m.DeadLetteredAt = nil
	m.UpdatedAt = time.Now().UTC()
	return true, nil
}

func deadLetteredAt(m *message.Message) time.Time {
	if m.DeadLetteredAt != nil {
		return *m.DeadLetteredAt
	}
	return m.UpdatedAt
}
