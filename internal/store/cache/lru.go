package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultLRUSize = 1024

// LRUCache bounds the number of fragments kept in memory.
type LRUCache struct {
	entries *lru.Cache[string, string]
}

func NewLRUCache(size int) (*LRUCache, error) {
	if size <= 0 {
		size = defaultLRUSize
	}
	entries, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &LRUCache{entries: entries}, nil
}

func (c *LRUCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok := c.entries.Get(key)
	return v, ok, nil
}

func (c *LRUCache) Set(ctx context.Context, key string, value string) error {
	c.entries.Add(key, value)
	return nil
}

// Has does not refresh the entry's recency.
func (c *LRUCache) Has(ctx context.Context, key string) (bool, error) {
	return c.entries.Contains(key), nil
}
