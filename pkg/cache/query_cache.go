// Package cache keeps fetched gallery listings until they go stale or are
// invalidated by key.
package cache

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ImagesKey is the key shared by every page of the image listing.
const ImagesKey = "images"

// Invalidator marks cached queries under key as stale.
type Invalidator interface {
	Invalidate(ctx context.Context, key string) error
}

type Fetcher[T any] func(ctx context.Context) (T, error)

type entry[T any] struct {
	value     T
	fetchedAt time.Time
}

// MaxEntries bounds the number of cached keys, the oldest entry is evicted
// to make room for a new one.
const MaxEntries = 1024

// QueryCache caches query results by key. A zero staleTime keeps entries
// until they are invalidated or evicted.
type QueryCache[T any] struct {
	mu        sync.Mutex
	staleTime time.Duration
	entries   map[string]*entry[T]
	gen       uint64
	now       func() time.Time
}

func New[T any](staleTime time.Duration) *QueryCache[T] {
	return &QueryCache[T]{
		staleTime: staleTime,
		entries:   make(map[string]*entry[T]),
		now:       time.Now,
	}
}

// PageKey builds the key of one listing page below base.
func PageKey(base, after string) string {
	if after == "" {
		return base
	}
	return base + "?" + url.Values{"after": {after}}.Encode()
}

// Fetch returns the cached value for key, calling fetch when there is none or
// it is stale. Results of a fetch that raced with an invalidation are returned
// but not cached.
func (c *QueryCache[T]) Fetch(ctx context.Context, key string, fetch Fetcher[T]) (T, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		if c.fresh(e) {
			v := e.value
			c.mu.Unlock()
			return v, nil
		}
		delete(c.entries, key)
	}
	gen := c.gen
	c.mu.Unlock()

	v, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	c.mu.Lock()
	if gen == c.gen {
		c.store(key, v)
	}
	c.mu.Unlock()
	return v, nil
}

func (c *QueryCache[T]) fresh(e *entry[T]) bool {
	return c.staleTime <= 0 || c.now().Sub(e.fetchedAt) < c.staleTime
}

// store must be called with c.mu held.
func (c *QueryCache[T]) store(key string, v T) {
	if _, ok := c.entries[key]; !ok && len(c.entries) >= MaxEntries {
		c.prune()
	}
	c.entries[key] = &entry[T]{value: v, fetchedAt: c.now()}
}

// prune drops expired entries, and the oldest one when none had expired.
func (c *QueryCache[T]) prune() {
	var oldestKey string
	var oldest time.Time
	for k, e := range c.entries {
		if !c.fresh(e) {
			delete(c.entries, k)
			continue
		}
		if oldestKey == "" || e.fetchedAt.Before(oldest) {
			oldestKey, oldest = k, e.fetchedAt
		}
	}
	if len(c.entries) >= MaxEntries {
		delete(c.entries, oldestKey)
	}
}

// Len reports the number of cached keys.
func (c *QueryCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Invalidate drops key and every page below it.
func (c *QueryCache[T]) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	for k := range c.entries {
		if k == key || strings.HasPrefix(k, key+"?") {
			delete(c.entries, k)
		}
	}
	return nil
}
