// Package cache stores computed layouts between runs.
//
// The CLI uses a [FileCache] under the user cache directory, the HTTP server
// can share a [RedisCache] between instances, and [NullCache] turns caching
// off. Keys come from a [Keyer] so that every backend agrees on them:
//
//	k := cache.NewDefaultKeyer()
//	key := k.LayoutKey(cache.Hash(netlist), cache.LayoutKeyOpts{Seeds: []string{"V1"}})
//	data, hit, err := c.Get(ctx, key)
package cache

import (
	"context"
	"time"
)

// DefaultTTL is how long cached layouts live unless configured otherwise.
const DefaultTTL = 7 * 24 * time.Hour

// Cache is a byte store with per-entry expiry.
//
// Get reports a miss with (nil, false, nil); errors are reserved for
// backend failures.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// NullCache never stores anything. It backs --no-cache and library use
// without a cache directory.
type NullCache struct{}

// NewNullCache returns a cache where every Get misses.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Close() error                                             { return nil }
