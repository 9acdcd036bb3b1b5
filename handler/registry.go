package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Func is a type-erased handler that accepts a raw JSON payload. The
// typed Definition[T] is converted to a Func at registration time by
// closing over JSON unmarshal + the typed handler.
type Func func(ctx context.Context, payload []byte) Result

// Registry maps handler names to type-erased functions and per-handler
// default options. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Func
	defaults map[string]Options
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Func),
		defaults: make(map[string]Options),
	}
}

// Register registers a typed handler definition. The generic handler is
// wrapped in a closure that JSON-unmarshals the payload into T before
// calling the typed function. An undecodable payload is rejected
// permanently: re-delivering malformed JSON can never succeed.
//
// This is a package-level generic function because Go does not allow
// generic methods on non-generic receiver types.
func Register[T any](r *Registry, def *Definition[T]) {
	fn := func(ctx context.Context, payload []byte) Result {
		var t T
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &t); err != nil {
				return Reject(fmt.Errorf("unmarshal payload for handler %q: %w", def.Name, err))
			}
		}
		return def.Handle(ctx, t)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[def.Name] = fn
	r.defaults[def.Name] = def.Opts
}

// Get returns the handler registered under the given name.
// Returns false if no handler is registered.
func (r *Registry) Get(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Defaults returns the default options registered for the given handler
// name. Returns false if no handler is registered.
func (r *Registry) Defaults(name string) (Options, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.defaults[name]
	return o, ok
}

// Names returns all registered handler names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}
