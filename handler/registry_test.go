package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/groundwire/requeue/handler"
)

type emailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := handler.NewRegistry()

	var got emailPayload
	def := handler.NewDefinition("send-email", func(_ context.Context, p emailPayload) handler.Result {
		got = p
		return handler.OK()
	})

	handler.Register(r, def)

	h, ok := r.Get("send-email")
	if !ok {
		t.Fatal("expected handler to be registered")
	}

	payload, _ := json.Marshal(emailPayload{To: "alice@example.com", Subject: "Hello"})
	res := h(context.Background(), payload)
	if !res.Success {
		t.Fatalf("unexpected failure: %q", res.Err)
	}
	if got.To != "alice@example.com" {
		t.Errorf("To = %q, want %q", got.To, "alice@example.com")
	}
	if got.Subject != "Hello" {
		t.Errorf("Subject = %q, want %q", got.Subject, "Hello")
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := handler.NewRegistry()
	_, ok := r.Get("nonexistent")
	if ok {
		t.Fatal("expected no handler for unregistered name")
	}
}

func TestRegistry_MalformedPayloadRejected(t *testing.T) {
	r := handler.NewRegistry()
	handler.Register(r, handler.NewDefinition("typed", func(_ context.Context, _ emailPayload) handler.Result {
		t.Fatal("handler must not run for malformed payload")
		return handler.OK()
	}))

	h, _ := r.Get("typed")
	res := h(context.Background(), []byte(`{not json`))
	if res.Success {
		t.Fatal("expected failure for malformed payload")
	}
	if res.Retry {
		t.Error("malformed payload should not be retried")
	}
	if res.Err == "" {
		t.Error("expected an error message")
	}
}

func TestRegistry_EmptyPayloadSkipsUnmarshal(t *testing.T) {
	r := handler.NewRegistry()
	handler.Register(r, handler.NewDefinition("empty", func(_ context.Context, p emailPayload) handler.Result {
		if p.To != "" {
			return handler.Failf("expected zero value payload")
		}
		return handler.OK()
	}))

	h, _ := r.Get("empty")
	if res := h(context.Background(), nil); !res.Success {
		t.Errorf("empty payload should process, got %q", res.Err)
	}
}

func TestRegistry_Defaults(t *testing.T) {
	r := handler.NewRegistry()
	handler.Register(r, handler.NewDefinition("limited",
		func(_ context.Context, _ struct{}) handler.Result { return handler.OK() },
		handler.WithMaxRetries(7),
		handler.WithTimeout(30*time.Second),
	))

	opts, ok := r.Defaults("limited")
	if !ok {
		t.Fatal("expected defaults for registered handler")
	}
	if opts.MaxRetries != 7 {
		t.Errorf("MaxRetries = %d, want 7", opts.MaxRetries)
	}
	if opts.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", opts.Timeout)
	}

	if _, ok := r.Defaults("unknown"); ok {
		t.Error("expected no defaults for unregistered handler")
	}
}

func TestRegistry_Names(t *testing.T) {
	r := handler.NewRegistry()

	handler.Register(r, handler.NewDefinition("h-a", func(_ context.Context, _ struct{}) handler.Result { return handler.OK() }))
	handler.Register(r, handler.NewDefinition("h-b", func(_ context.Context, _ struct{}) handler.Result { return handler.OK() }))
	handler.Register(r, handler.NewDefinition("h-c", func(_ context.Context, _ struct{}) handler.Result { return handler.OK() }))

	names := r.Names()
	sort.Strings(names)
	if len(names) != 3 {
		t.Fatalf("expected 3 names, got %d", len(names))
	}
	expected := []string{"h-a", "h-b", "h-c"}
	for i, want := range expected {
		if names[i] != want {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want)
		}
	}
}

func TestResultConstructors(t *testing.T) {
	if res := handler.OK(); !res.Success || res.Err != "" {
		t.Errorf("OK() = %+v, want success with no error", res)
	}

	boom := errors.New("boom")
	if res := handler.Fail(boom); res.Success || !res.Retry || res.Err != "boom" {
		t.Errorf("Fail() = %+v, want retryable failure %q", res, "boom")
	}
	if res := handler.Failf("nope"); res.Success || !res.Retry || res.Err != "nope" {
		t.Errorf("Failf() = %+v, want retryable failure %q", res, "nope")
	}
	if res := handler.Reject(boom); res.Success || res.Retry || res.Err != "boom" {
		t.Errorf("Reject() = %+v, want permanent failure %q", res, "boom")
	}
	if res := handler.Reject(nil); res.Err != "" {
		t.Errorf("Reject(nil).Err = %q, want empty", res.Err)
	}
}
