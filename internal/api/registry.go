package api

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// HandlerFunc implements one API path.
type HandlerFunc func(ctx context.Context, r *Request, p Params) (any, error)

// Handle adapts a handler with a concrete result type.
func Handle[T any](fn func(ctx context.Context, r *Request, p Params) (T, error)) HandlerFunc {
	return func(ctx context.Context, r *Request, p Params) (any, error) {
		v, err := fn(ctx, r, p)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

type method struct {
	schema   Schema
	fn       HandlerFunc
	internal bool
	action   bool
}

// RegisterOption configures a registered handler.
type RegisterOption func(*method)

// Internal hides a handler from Dispatcher.Call; it stays reachable through
// Request.Query from other handlers.
func Internal() RegisterOption {
	return func(m *method) {
		m.internal = true
	}
}

// Action marks a handler that changes state. Loader calls (HTTP GET) are
// refused with wrong-method.
func Action() RegisterOption {
	return func(m *method) {
		m.action = true
	}
}

// Registry maps paths to handlers. It is filled at startup and read-only
// afterwards.
type Registry struct {
	mu      sync.RWMutex
	methods map[string]*method
}

func NewRegistry() *Registry {
	return &Registry{methods: make(map[string]*method)}
}

// Register adds a handler. It panics on duplicate paths and unknown parameter
// types, both of which are programming errors.
func (r *Registry) Register(path string, schema Schema, fn HandlerFunc, opts ...RegisterOption) {
	for name, p := range schema {
		if !p.Type.valid() {
			panic(fmt.Sprintf("api: %s: parameter %q has unknown type %q", path, name, p.Type))
		}
		if p.Type == Array && p.Items != "" && (p.Items == Array || !p.Items.valid()) {
			panic(fmt.Sprintf("api: %s: parameter %q has invalid item type %q", path, name, p.Items))
		}
	}
	if schema == nil {
		schema = Schema{}
	}

	m := &method{schema: schema, fn: fn}
	for _, opt := range opts {
		opt(m)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.methods[path]; dup {
		panic("api: duplicate handler for " + path)
	}
	r.methods[path] = m
}

// Paths returns the registered paths in sorted order.
func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	paths := make([]string, 0, len(r.methods))
	for path := range r.methods {
		paths = append(paths, path)
	}
	slices.Sort(paths)
	return paths
}

func (r *Registry) lookup(path string) (*method, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.methods[path]
	return m, ok
}
