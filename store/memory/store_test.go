package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/groundwire/requeue"
	"github.com/groundwire/requeue/id"
	"github.com/groundwire/requeue/message"
)

// ──────────────────────────────────────────────────
// Lifecycle tests
// ──────────────────────────────────────────────────

func TestLifecycle(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	tests := []struct {
		name string
		fn   func() error
	}{
		{"Migrate", func() error { return s.Migrate(ctx) }},
		{"Ping", func() error { return s.Ping(ctx) }},
		{"Close", func() error { return s.Close() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); err != nil {
				t.Fatalf("%s returned error: %v", tt.name, err)
			}
		})
	}
}

func TestClose_RejectsOperations(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	m := newMessage("too-late")
	if err := s.Enqueue(ctx, m); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Closing twice is a no-op.
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	tests := []struct {
		name string
		fn   func() error
	}{
		{"Ping", func() error { return s.Ping(ctx) }},
		{"Enqueue", func() error { return s.Enqueue(ctx, newMessage("x")) }},
		{"Dequeue", func() error { _, err := s.Dequeue(ctx, 1); return err }},
		{"Get", func() error { _, err := s.Get(ctx, m.ID); return err }},
		{"Update", func() error { return s.Update(ctx, m) }},
		{"MoveToDLQ", func() error { return s.MoveToDLQ(ctx, m) }},
		{"ListDLQ", func() error { _, err := s.ListDLQ(ctx, 0); return err }},
		{"RequeueFromDLQ", func() error { _, err := s.RequeueFromDLQ(ctx, m.ID); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, requeue.ErrStoreClosed) {
				t.Errorf("%s after Close = %v, want ErrStoreClosed", tt.name, err)
			}
		})
	}
}

// ──────────────────────────────────────────────────
// Queue tests
// ──────────────────────────────────────────────────

func newMessage(handlerName string) *message.Message {
	return message.New(handlerName, []byte(`{"test":true}`), message.DefaultOptions())
}

func TestEnqueueAndGet(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	m := newMessage("send-email")

	tests := []struct {
		name    string
		fn      func() error
		wantErr error
	}{
		{
			name:    "enqueue new message",
			fn:      func() error { return s.Enqueue(ctx, m) },
			wantErr: nil,
		},
		{
			name:    "enqueue duplicate message",
			fn:      func() error { return s.Enqueue(ctx, m) },
			wantErr: requeue.ErrMessageExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got error %v, want %v", err, tt.wantErr)
			}
		})
	}

	// Verify Get.
	got, err := s.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Handler != m.Handler {
		t.Fatalf("got handler %q, want %q", got.Handler, m.Handler)
	}

	// Get non-existent.
	_, err = s.Get(ctx, id.NewMessageID())
	if !errors.Is(err, requeue.ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}
}

func TestDequeue_ClaimsFIFO(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	m1 := newMessage("first")
	m2 := newMessage("second")
	m3 := newMessage("third")
	m1.CreatedAt = time.Now().UTC().Add(-3 * time.Second)
	m2.CreatedAt = time.Now().UTC().Add(-2 * time.Second)
	m3.CreatedAt = time.Now().UTC().Add(-time.Second)

	for _, m := range []*message.Message{m3, m1, m2} {
		if err := s.Enqueue(ctx, m); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	claimed, err := s.Dequeue(ctx, 2)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if len(claimed) != 2 {
		t.Fatalf("claimed %d messages, want 2", len(claimed))
	}
	if claimed[0].Handler != "first" || claimed[1].Handler != "second" {
		t.Errorf("claim order = [%s, %s], want [first, second]", claimed[0].Handler, claimed[1].Handler)
	}
	for _, m := range claimed {
		if m.Status != message.StatusProcessing {
			t.Errorf("claimed message status = %q, want %q", m.Status, message.StatusProcessing)
		}
		if m.StartedAt == nil {
			t.Error("claimed message has no StartedAt")
		}
	}

	// Remaining message still dequeuable.
	rest, err := s.Dequeue(ctx, 10)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if len(rest) != 1 || rest[0].Handler != "third" {
		t.Fatalf("second Dequeue = %v, want [third]", rest)
	}
}

func TestDequeue_SkipsFutureRetry(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	due := newMessage("due")
	backing := newMessage("backing-off")
	future := time.Now().UTC().Add(time.Hour)
	backing.NextRetryAt = &future

	for _, m := range []*message.Message{due, backing} {
		if err := s.Enqueue(ctx, m); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	claimed, err := s.Dequeue(ctx, 10)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if len(claimed) != 1 {
		t.Fatalf("claimed %d messages, want 1", len(claimed))
	}
	if claimed[0].Handler != "due" {
		t.Errorf("claimed %q, want %q", claimed[0].Handler, "due")
	}

	// A past NextRetryAt makes the message eligible again.
	past := time.Now().UTC().Add(-time.Minute)
	backing.NextRetryAt = &past
	if err := s.Update(ctx, backing); err != nil {
		t.Fatalf("Update: %v", err)
	}
	claimed, err = s.Dequeue(ctx, 10)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if len(claimed) != 1 || claimed[0].Handler != "backing-off" {
		t.Fatalf("expected backing-off message to become due, got %v", claimed)
	}
}

func TestDequeue_NoDoubleClaim(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	const total = 50
	for i := 0; i < total; i++ {
		if err := s.Enqueue(ctx, newMessage("concurrent")); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	var mu sync.Mutex
	seen := make(map[string]int)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				claimed, err := s.Dequeue(ctx, 3)
				if err != nil {
					t.Errorf("Dequeue: %v", err)
					return
				}
				if len(claimed) == 0 {
					return
				}
				mu.Lock()
				for _, m := range claimed {
					seen[m.ID.String()]++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != total {
		t.Fatalf("claimed %d distinct messages, want %d", len(seen), total)
	}
	for idStr, n := range seen {
		if n != 1 {
			t.Errorf("message %s claimed %d times, want exactly once", idStr, n)
		}
	}
}

func TestUpdate(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	m := newMessage("update-me")
	if err := s.Enqueue(ctx, m); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	m.Status = message.StatusCompleted
	m.RetryCount = 2
	m.LastError = "transient failure"
	if err := s.Update(ctx, m); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := s.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != message.StatusCompleted {
		t.Errorf("Status = %q, want %q", got.Status, message.StatusCompleted)
	}
	if got.RetryCount != 2 {
		t.Errorf("RetryCount = %d, want 2", got.RetryCount)
	}
	if got.LastError != "transient failure" {
		t.Errorf("LastError = %q, want %q", got.LastError, "transient failure")
	}

	// Update non-existent.
	missing := newMessage("ghost")
	if err := s.Update(ctx, missing); !errors.Is(err, requeue.ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}
}

func TestStoreIsolation(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	m := newMessage("isolated")
	m.Metadata = map[string]string{"k": "v"}
	if err := s.Enqueue(ctx, m); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	m.Metadata["k"] = "mutated"
	m.Handler = "mutated"

	got, err := s.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Handler != "isolated" {
		t.Errorf("Handler = %q, want %q", got.Handler, "isolated")
	}
	if got.Metadata["k"] != "v" {
		t.Errorf("Metadata[k] = %q, want %q", got.Metadata["k"], "v")
	}
}

// ──────────────────────────────────────────────────
// DLQ tests
// ──────────────────────────────────────────────────

func TestMoveToDLQAndList(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	m1 := newMessage("dead-1")
	m2 := newMessage("dead-2")
	live := newMessage("alive")
	for _, m := range []*message.Message{m1, m2, live} {
		if err := s.Enqueue(ctx, m); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	m1.LastError = "boom"
	if err := s.MoveToDLQ(ctx, m1); err != nil {
		t.Fatalf("MoveToDLQ: %v", err)
	}
	time.Sleep(time.Millisecond) // distinct DeadLetteredAt ordering
	if err := s.MoveToDLQ(ctx, m2); err != nil {
		t.Fatalf("MoveToDLQ: %v", err)
	}

	entries, err := s.ListDLQ(ctx, 0)
	if err != nil {
		t.Fatalf("ListDLQ: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ListDLQ returned %d entries, want 2", len(entries))
	}
	if entries[0].Handler != "dead-1" || entries[1].Handler != "dead-2" {
		t.Errorf("DLQ order = [%s, %s], want oldest first", entries[0].Handler, entries[1].Handler)
	}
	if entries[0].Status != message.StatusDeadLetter {
		t.Errorf("Status = %q, want %q", entries[0].Status, message.StatusDeadLetter)
	}
	if entries[0].DeadLetteredAt == nil {
		t.Error("DeadLetteredAt not set")
	}
	if entries[0].LastError != "boom" {
		t.Errorf("LastError = %q, want %q", entries[0].LastError, "boom")
	}

	// Limit applies.
	limited, err := s.ListDLQ(ctx, 1)
	if err != nil {
		t.Fatalf("ListDLQ: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("ListDLQ(1) returned %d entries, want 1", len(limited))
	}

	// Dead-lettered messages are never dequeued.
	claimed, err := s.Dequeue(ctx, 10)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if len(claimed) != 1 || claimed[0].Handler != "alive" {
		t.Fatalf("Dequeue after DLQ = %v, want only the live message", claimed)
	}
}

func TestListDLQ_EqualTimestampsOrderByID(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	a := newMessage("tied-a")
	b := newMessage("tied-b")
	for _, m := range []*message.Message{a, b} {
		if err := s.Enqueue(ctx, m); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
		if err := s.MoveToDLQ(ctx, m); err != nil {
			t.Fatalf("MoveToDLQ: %v", err)
		}
	}

	// Pin both to the same DeadLetteredAt so only the ID tie-break
	// can decide the order.
	tied := time.Now().UTC().Truncate(time.Second)
	for _, m := range []*message.Message{a, b} {
		got, err := s.Get(ctx, m.ID)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		got.DeadLetteredAt = &tied
		if err := s.Update(ctx, got); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}

	wantFirst, wantSecond := a.ID.String(), b.ID.String()
	if wantSecond < wantFirst {
		wantFirst, wantSecond = wantSecond, wantFirst
	}

	for i := 0; i < 5; i++ {
		entries, err := s.ListDLQ(ctx, 0)
		if err != nil {
			t.Fatalf("ListDLQ: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("ListDLQ returned %d entries, want 2", len(entries))
		}
		if entries[0].ID.String() != wantFirst || entries[1].ID.String() != wantSecond {
			t.Fatalf("order = [%s, %s], want [%s, %s]",
				entries[0].ID.String(), entries[1].ID.String(), wantFirst, wantSecond)
		}
	}
}

func TestRequeueFromDLQ(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	m := newMessage("revive-me")
	if err := s.Enqueue(ctx, m); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	m.RetryCount = 3
	m.LastError = "exhausted"
	if err := s.MoveToDLQ(ctx, m); err != nil {
		t.Fatalf("MoveToDLQ: %v", err)
	}

	ok, err := s.RequeueFromDLQ(ctx, m.ID)
	if err != nil {
		t.Fatalf("RequeueFromDLQ: %v", err)
	}
	if !ok {
		t.Fatal("RequeueFromDLQ returned false for a dead-lettered message")
	}

	got, err := s.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != message.StatusPending {
		t.Errorf("Status = %q, want %q", got.Status, message.StatusPending)
	}
	if got.RetryCount != 0 {
		t.Errorf("RetryCount = %d, want 0", got.RetryCount)
	}
	if got.NextRetryAt != nil {
		t.Error("NextRetryAt not cleared")
	}
	if got.DeadLetteredAt != nil {
		t.Error("DeadLetteredAt not cleared")
	}

	// Requeued message is immediately dequeuable.
	claimed, err := s.Dequeue(ctx, 10)
	if err != nil {
		t.Fatalf("Dequeue: %v", err)
	}
	if len(claimed) != 1 {
		t.Fatalf("Dequeue after requeue claimed %d messages, want 1", len(claimed))
	}
}

func TestRequeueFromDLQ_NotDead(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	// Unknown ID.
	ok, err := s.RequeueFromDLQ(ctx, id.NewMessageID())
	if err != nil {
		t.Fatalf("RequeueFromDLQ: %v", err)
	}
	if ok {
		t.Error("RequeueFromDLQ returned true for unknown ID")
	}

	// Pending message is not in the DLQ.
	m := newMessage("still-pending")
	if err := s.Enqueue(ctx, m); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	ok, err = s.RequeueFromDLQ(ctx, m.ID)
	if err != nil {
		t.Fatalf("RequeueFromDLQ: %v", err)
	}
	if ok {
		t.Error("RequeueFromDLQ returned true for a pending message")
	}
}
