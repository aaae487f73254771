package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is a generic key-value cache with TTL support.
//
// TTL semantics for Set:
//   - Positive duration: item expires after this duration
//   - Zero: use the cache's configured default TTL
//   - Negative: item never expires
type Cache[V any] interface {
	// Get returns ErrNotFound if the key does not exist or has expired.
	Get(ctx context.Context, key string) (V, error)
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Close() error
}

// Marshaler converts values for backends that store bytes.
type Marshaler[V any] interface {
	Marshal(v V) ([]byte, error)
	Unmarshal(data []byte) (V, error)
}

// JSONMarshaler encodes values with encoding/json.
type JSONMarshaler[V any] struct{}

func (JSONMarshaler[V]) Marshal(v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}
	return data, nil
}

func (JSONMarshaler[V]) Unmarshal(data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Join(ErrUnmarshal, err)
	}
	return v, nil
}

// RawMarshaler passes byte slices through untouched.
type RawMarshaler struct{}

func (RawMarshaler) Marshal(v []byte) ([]byte, error)      { return v, nil }
func (RawMarshaler) Unmarshal(data []byte) ([]byte, error) { return data, nil }

var sfGroup singleflight.Group

// generations counts DeleteKeys calls per cache instance and key, so a
// GetOrSet flight can tell whether its key was invalidated while it loaded.
var generations sync.Map // flightKey -> *atomic.Uint64

func flightKey[V any](c Cache[V], key string) string {
	return fmt.Sprintf("%p/%s", c, key)
}

func generation(fk string) *atomic.Uint64 {
	g, _ := generations.LoadOrStore(fk, new(atomic.Uint64))
	return g.(*atomic.Uint64)
}

type loaded[V any] struct {
	val V
	ttl time.Duration
}

// GetOrSet returns the cached value for key or computes it with fn.
// Concurrent misses on the same key share a single fn call.
// Errors from fn are returned and nothing is cached. A value loaded while
// DeleteKeys removed the key is returned to the caller but not kept.
func GetOrSet[V any](ctx context.Context, c Cache[V], key string, fn func(ctx context.Context) (V, time.Duration, error)) (V, error) {
	if v, err := c.Get(ctx, key); err == nil {
		return v, nil
	}

	// Flights are scoped to the cache instance so two caches sharing a key
	// never hand each other values.
	fk := flightKey(c, key)
	v, err, _ := sfGroup.Do(fk, func() (any, error) {
		gen := generation(fk)
		start := gen.Load()

		val, ttl, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		// Store inside the flight so followers never race a stale miss.
		_ = c.Set(ctx, key, val, ttl)
		if gen.Load() != start {
			_ = c.Delete(ctx, key)
		}
		return loaded[V]{val: val, ttl: ttl}, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}

	return v.(loaded[V]).val, nil
}

// DeleteKeys removes every key, continuing past failures. Flights of
// GetOrSet running on those keys do not store their result.
// The returned error joins all individual failures.
func DeleteKeys[V any](ctx context.Context, c Cache[V], keys ...string) error {
	var errs []error
	for _, key := range keys {
		if g, ok := generations.Load(flightKey(c, key)); ok {
			g.(*atomic.Uint64).Add(1)
		}
		if err := c.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
