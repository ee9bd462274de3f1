package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type menuDoc struct {
	Version int      `json:"version"`
	Pizzas  []string `json:"pizzas"`
}

func TestCacheRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := New(NewMemoryBackend())

	var got menuDoc
	require.ErrorIs(t, c.Get(ctx, "menu", &got), ErrMiss)

	want := menuDoc{Version: 3, Pizzas: []string{"margherita", "quattro stagioni"}}
	c.Set(ctx, "menu", want, time.Minute)

	require.NoError(t, c.Get(ctx, "menu", &got))
	require.Equal(t, want, got)
}

func TestCacheExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	b := NewMemoryBackend()
	now := time.Now()
	b.SetClock(func() time.Time { return now })
	c := New(b)

	c.Set(ctx, "menu", menuDoc{Version: 1}, time.Minute)

	var got menuDoc
	require.NoError(t, c.Get(ctx, "menu", &got))

	now = now.Add(2 * time.Minute)
	require.ErrorIs(t, c.Get(ctx, "menu", &got), ErrMiss)
}

func TestCacheTagInvalidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c := New(NewMemoryBackend())

	c.SetWithTags(ctx, "menu:en", menuDoc{Version: 1}, time.Hour, "menu")
	c.SetWithTags(ctx, "menu:fr", menuDoc{Version: 1}, time.Hour, "menu")
	c.Set(ctx, "unrelated", menuDoc{Version: 9}, time.Hour)

	c.InvalidateTag(ctx, "menu")

	var got menuDoc
	require.ErrorIs(t, c.Get(ctx, "menu:en", &got), ErrMiss)
	require.ErrorIs(t, c.Get(ctx, "menu:fr", &got), ErrMiss)
	require.NoError(t, c.Get(ctx, "unrelated", &got))
}

func TestCacheDegradesToMissOnBackendFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	b := NewMemoryBackend()
	c := New(b)
	c.Set(ctx, "menu", menuDoc{Version: 1}, time.Hour)

	b.Err = errors.New("backend down")

	var got menuDoc
	require.ErrorIs(t, c.Get(ctx, "menu", &got), ErrMiss)

	// Writes and invalidations don't panic or propagate either.
	c.Set(ctx, "menu", menuDoc{Version: 2}, time.Hour)
	c.InvalidateTag(ctx, "menu")
}

func TestCacheDropsCorruptEntry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	b := NewMemoryBackend()
	c := New(b)
	require.NoError(t, b.Set(ctx, "menu", []byte("{not json"), time.Hour))

	var got menuDoc
	require.ErrorIs(t, c.Get(ctx, "menu", &got), ErrMiss)

	// The bad entry is gone afterwards.
	_, err := b.Get(ctx, "menu")
	require.ErrorIs(t, err, ErrMiss)
}
