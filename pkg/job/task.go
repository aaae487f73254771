package job

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"
)

// executor runs a task from its raw JSON payload.
type executor func(ctx context.Context, payload json.RawMessage) error

type registry struct {
	mu    sync.RWMutex
	tasks map[string]executor
}

func newRegistry() *registry {
	return &registry{tasks: make(map[string]executor)}
}

func (r *registry) add(name string, fn executor) {
	r.mu.Lock()
	r.tasks[name] = fn
	r.mu.Unlock()
}

func (r *registry) lookup(name string) (executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.tasks[name]
	return fn, ok
}

func (r *registry) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// typed adapts a task with a payload type P to an executor.
// An empty payload leaves P at its zero value.
func typed[P any](handle func(context.Context, P) error) executor {
	return func(ctx context.Context, raw json.RawMessage) error {
		var payload P
		if len(raw) > 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, &payload); err != nil {
				return errors.Join(ErrInvalidPayload, err)
			}
		}
		return handle(ctx, payload)
	}
}
