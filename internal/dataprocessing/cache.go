package dataprocessing

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheStats reports memoization effectiveness for a normalizer.
type CacheStats struct {
	Hits   int
	Misses int
}

// memo caches the output of a pure per-key computation. Errors are not cached.
// A nil memo computes every time.
type memo[K comparable, V any] struct {
	cache *lru.Cache[K, V]
	stats CacheStats
}

// newMemo returns a memo holding up to size entries, or nil when size <= 0.
func newMemo[K comparable, V any](size int) *memo[K, V] {
	if size <= 0 {
		return nil
	}
	cache, err := lru.New[K, V](size)
	if err != nil {
		return nil
	}
	return &memo[K, V]{cache: cache}
}

func (m *memo[K, V]) get(key K, compute func() (V, error)) (V, error) {
	if m == nil {
		return compute()
	}
	if v, ok := m.cache.Get(key); ok {
		m.stats.Hits++
		return v, nil
	}
	m.stats.Misses++
	v, err := compute()
	if err != nil {
		return v, err
	}
	m.cache.Add(key, v)
	return v, nil
}

func (m *memo[K, V]) snapshot() CacheStats {
	if m == nil {
		return CacheStats{}
	}
	return m.stats
}
