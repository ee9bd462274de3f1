// Package cache is a small JSON key-value cache with tag-based invalidation.
// It sits in front of slow reads (the menu, mostly) and is strictly an
// optimization: every operation degrades to a miss when the backend is down,
// it never turns a working request into a failing one.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Aurfi/pizzeria/pkg/slogx"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errMiss{}

type errMiss struct{}

func (errMiss) Error() string { return "cache: miss" }

// Backend is the raw byte store underneath the cache. Implementations map
// their own not-found onto ErrMiss.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	// Tag associates key with tag so InvalidateTag can sweep it later.
	Tag(ctx context.Context, tag, key string) error

	// TaggedKeys lists every key currently filed under tag.
	TaggedKeys(ctx context.Context, tag string) ([]string, error)
}

// Cache marshals values to JSON around a Backend.
type Cache struct {
	b Backend
}

func New(b Backend) *Cache { return &Cache{b: b} }

// Get loads key into dst. Backend failures are logged and reported as a
// miss, so callers fall through to the source of truth.
func (c *Cache) Get(ctx context.Context, key string, dst any) error {
	raw, err := c.b.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			slogx.FromContext(ctx).Warn("cache get failed, treating as miss", "key", key, "err", err)
		}
		return ErrMiss
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		// A corrupt entry is as good as absent. Drop it.
		_ = c.b.Delete(ctx, key)
		return ErrMiss
	}
	return nil
}

// Set stores value under key for ttl. Errors are logged and swallowed.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		slogx.FromContext(ctx).Warn("cache set skipped, value not marshalable", "key", key, "err", err)
		return
	}
	if err := c.b.Set(ctx, key, raw, ttl); err != nil {
		slogx.FromContext(ctx).Warn("cache set failed", "key", key, "err", err)
	}
}

// SetWithTags is Set plus filing the key under each tag.
func (c *Cache) SetWithTags(ctx context.Context, key string, value any, ttl time.Duration, tags ...string) {
	c.Set(ctx, key, value, ttl)
	for _, tag := range tags {
		if err := c.b.Tag(ctx, tag, key); err != nil {
			slogx.FromContext(ctx).Warn("cache tag failed", "key", key, "tag", tag, "err", err)
		}
	}
}

// InvalidateTag drops every key filed under tag. Best effort.
func (c *Cache) InvalidateTag(ctx context.Context, tag string) {
	keys, err := c.b.TaggedKeys(ctx, tag)
	if err != nil {
		slogx.FromContext(ctx).Warn("cache invalidate failed", "tag", tag, "err", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.b.Delete(ctx, keys...); err != nil {
		slogx.FromContext(ctx).Warn("cache invalidate delete failed", "tag", tag, "err", err)
	}
}

// Delete drops a single key. Best effort.
func (c *Cache) Delete(ctx context.Context, key string) {
	if err := c.b.Delete(ctx, key); err != nil {
		slogx.FromContext(ctx).Warn("cache delete failed", "key", key, "err", err)
	}
}
