package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReportCache holds rendered per-provider report fragments keyed by
// provider name plus serialized inputs.
type ReportCache interface {
	// Get returns the fragment and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores a fragment. Implementations decide eviction and expiry.
	Set(ctx context.Context, key string, value string) error

	// Has is for callers that only need a presence check; Get already reports
	// presence alongside the value.
	Has(ctx context.Context, key string) (bool, error)
}

const (
	DriverMemory = "memory"
	DriverLRU    = "lru"
	DriverRedis  = "redis"
)

// Options selects and tunes a cache backend.
type Options struct {
	Driver string
	// Size bounds the LRU backend.
	Size int
	// TTL applies to the memory and redis backends; zero keeps entries forever.
	TTL time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// New builds the backend named by opts.Driver. An empty driver selects the
// unbounded in-memory cache.
func New(opts Options) (ReportCache, error) {
	switch opts.Driver {
	case "", DriverMemory:
		return NewMemoryCache(opts.TTL), nil
	case DriverLRU:
		return NewLRUCache(opts.Size)
	case DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		return NewRedisCache(client, opts.RedisPrefix, opts.TTL), nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", opts.Driver)
	}
}
