package message_test

import (
	"testing"
	"time"

	"github.com/groundwire/requeue/message"
)

func TestNew(t *testing.T) {
	opts := message.DefaultOptions()
	opts.Metadata = map[string]string{"trace_id": "abc"}
	opts.Timeout = 30 * time.Second

	m := message.New("send-email", []byte(`{"to":"a@b.c"}`), opts)

	if m.ID.IsNil() {
		t.Error("ID is nil, want a fresh message ID")
	}
	if m.Handler != "send-email" {
		t.Errorf("Handler = %q, want %q", m.Handler, "send-email")
	}
	if m.Status != message.StatusPending {
		t.Errorf("Status = %q, want %q", m.Status, message.StatusPending)
	}
	if m.RetryCount != 0 {
		t.Errorf("RetryCount = %d, want 0", m.RetryCount)
	}
	if m.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", m.MaxRetries)
	}
	if m.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", m.Timeout)
	}
	if m.NextRetryAt != nil {
		t.Errorf("NextRetryAt = %v, want nil without a delay", m.NextRetryAt)
	}
	if m.CreatedAt.IsZero() || m.UpdatedAt.IsZero() {
		t.Error("CreatedAt/UpdatedAt not stamped")
	}
}

func TestNew_WithDelay(t *testing.T) {
	opts := message.DefaultOptions()
	opts.Delay = time.Minute

	m := message.New("send-email", nil, opts)

	if m.NextRetryAt == nil {
		t.Fatal("NextRetryAt is nil, want scheduled first attempt")
	}
	if !m.NextRetryAt.After(time.Now()) {
		t.Errorf("NextRetryAt = %v, want a future time", m.NextRetryAt)
	}
}

func TestDue(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name        string
		status      message.Status
		nextRetryAt *time.Time
		want        bool
	}{
		{"pending no schedule", message.StatusPending, nil, true},
		{"pending past schedule", message.StatusPending, &past, true},
		{"pending mid-backoff", message.StatusPending, &future, false},
		{"pending due exactly now", message.StatusPending, &now, true},
		{"processing", message.StatusProcessing, nil, false},
		{"completed", message.StatusCompleted, nil, false},
		{"dead letter", message.StatusDeadLetter, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := message.New("h", nil, message.DefaultOptions())
			m.Status = tt.status
			m.NextRetryAt = tt.nextRetryAt
			if got := m.Due(now); got != tt.want {
				t.Errorf("Due() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClone(t *testing.T) {
	opts := message.DefaultOptions()
	opts.Metadata = map[string]string{"k": "v"}
	m := message.New("h", []byte("payload"), opts)

	cp := m.Clone()

	if cp == m {
		t.Fatal("Clone() returned the same pointer")
	}
	if cp.ID != m.ID || cp.Handler != m.Handler {
		t.Errorf("Clone() = %+v, want field-equal copy of %+v", cp, m)
	}

	cp.Metadata["k"] = "mutated"
	if m.Metadata["k"] != "v" {
		t.Error("mutating the clone's metadata leaked into the original")
	}

	cp.Status = message.StatusProcessing
	if m.Status != message.StatusPending {
		t.Error("mutating the clone's status leaked into the original")
	}
}
