package dataset

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Key identifies one load configuration. Two loads with equal keys read the
// same files (or generate the same sample) and can share a cached result.
type Key struct {
	Policy     Policy
	Dirs       string
	Files      string
	Seed       uint64
	LeaderRule string
}

func (k Key) String() string {
	return fmt.Sprintf("%s|%s|%s|%d|%s", k.Policy, k.Dirs, k.Files, k.Seed, k.LeaderRule)
}

func joinKeyPart(parts []string) string {
	return strings.Join(parts, ",")
}

// Cache memoizes built values per Key. A Cache belongs to exactly one
// session; it is never shared.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[Key]V
}

func NewCache[V any]() *Cache[V] {
	return &Cache[V]{entries: make(map[Key]V)}
}

// Get returns the cached value for key, building it on a miss. Failed builds
// are not cached.
func (c *Cache[V]) Get(ctx context.Context, key Key, build func(context.Context) (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.entries[key]; ok {
		return v, nil
	}

	v, err := build(ctx)
	if err != nil {
		var zero V
		return zero, err
	}
	c.entries[key] = v
	return v, nil
}

func (c *Cache[V]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
