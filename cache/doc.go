// Package cache provides the sharded LRU cache content providers use to
// keep measured and decoded artifacts (wrapped text layouts, decoded
// images) across tile rebuilds.
//
// Entries are spread over a fixed number of shards, each with its own lock
// and LRU list, so concurrent tile builds rarely contend:
//
//	layouts := cache.New[string, []string](128, cache.StringHasher)
//	lines, err := layouts.GetOrLoad(key, func() ([]string, error) {
//	    return wrap(text), nil
//	})
//
// Failed loads are not cached; the next lookup retries them.
package cache
