// Package cache provides a generic [Cache] with an in-process LRU
// implementation ([Memory]) and a Redis one ([Redis]).
//
// [GetOrSet] memoizes a loader behind singleflight so concurrent misses on
// one key run the loader once. [DeleteKeys] invalidates a set of keys.
//
//	c := cache.NewMemory[[]byte](cache.WithMaxEntries(10_000))
//	defer c.Close()
//
//	v, err := cache.GetOrSet(ctx, c, "acgames", func(ctx context.Context) ([]byte, time.Duration, error) {
//	    data, err := loadGames(ctx)
//	    return data, time.Hour, err
//	})
package cache
