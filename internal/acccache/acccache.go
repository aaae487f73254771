// Package acccache memoizes reference-data queries (game catalogs, rules,
// group permissions) and drops them again when a handler changes the
// underlying rows.
//
// Values are stored JSON-encoded so the in-process and Redis backends behave
// the same and callers never share a mutable cached value.
package acccache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/cache"
	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/logger"
)

// Well-known keys.
const (
	KeyACGames      = "acgames"
	KeyGameConsoles = "game-consoles"
	KeyGames        = "games"
	KeyGuides       = "guides"
	KeyRules        = "rules"
)

// DefaultTTL applies when CacheQuery is given a zero TTL.
const DefaultTTL = time.Hour

// redisPrefix namespaces keys in a shared Redis.
const redisPrefix = "acc"

// GuidesKey is the guide list of one game.
func GuidesKey(gameID int) string { return KeyGuides + ":" + strconv.Itoa(gameID) }

// GuideKey is a single guide.
func GuideKey(id int) string { return "guide:" + strconv.Itoa(id) }

// PermissionsKey is the permission set of a user group.
func PermissionsKey(groupID int) string { return "permissions:" + strconv.Itoa(groupID) }

// Cache wraps a byte cache backend.
type Cache struct {
	backend cache.Cache[[]byte]
	logger  *slog.Logger
}

type Option func(*Cache)

func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// New wraps backend.
func New(backend cache.Cache[[]byte], opts ...Option) *Cache {
	c := &Cache{backend: backend, logger: logger.NewNope()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewMemory returns a Cache over an in-process LRU.
func NewMemory(opts ...Option) *Cache {
	return New(cache.NewMemory[[]byte](
		cache.WithDefaultTTL(DefaultTTL),
		cache.WithMaxEntries(10_000),
		cache.WithCleanupInterval(time.Minute),
	), opts...)
}

// NewRedis returns a Cache stored in Redis under the "acc:" prefix.
func NewRedis(client redis.UniversalClient, opts ...Option) *Cache {
	return New(cache.NewRedis[[]byte](client, cache.RawMarshaler{},
		cache.WithPrefix(redisPrefix),
		cache.WithRedisDefaultTTL(DefaultTTL),
	), opts...)
}

// CacheQuery returns the value cached under key, or runs fn and caches its
// result for ttl. Concurrent misses share one fn call. Errors are not
// cached.
func CacheQuery[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if ttl == 0 {
		ttl = DefaultTTL
	}

	raw, err := cache.GetOrSet(ctx, c.backend, key, func(ctx context.Context) ([]byte, time.Duration, error) {
		v, err := fn(ctx)
		if err != nil {
			return nil, 0, err
		}
		data, err := json.Marshal(v)
		return data, ttl, err
	})
	if err != nil {
		return zero, err
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		// Entries from an older shape are dropped and reloaded.
		c.logger.WarnContext(ctx, "discarding undecodable cache entry",
			slog.String("key", key), slog.Any("error", err))
		_ = c.backend.Delete(ctx, key)
		return fn(ctx)
	}
	return out, nil
}

// Invalidate deletes every key. Failures are joined; the remaining keys are
// still deleted. A CacheQuery already loading one of the keys in this
// process returns its result without storing it.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if err := cache.DeleteKeys(ctx, c.backend, keys...); err != nil {
		c.logger.ErrorContext(ctx, "cache invalidation failed",
			slog.Any("keys", keys), slog.Any("error", err))
		return err
	}
	return nil
}

// Clear drops every cached entry.
func (c *Cache) Clear(ctx context.Context) error {
	return c.backend.Clear(ctx)
}

func (c *Cache) Close() error {
	return c.backend.Close()
}
