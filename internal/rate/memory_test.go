package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterExhaustsBudget(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l := NewMemoryLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		require.True(t, ok, "hit %d should pass", i)
	}

	ok, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.False(t, ok, "budget exhausted")
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l := NewMemoryLimiter(1, time.Minute)

	ok, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.False(t, ok)

	// A different client still has its own budget.
	ok, err = l.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
	require.True(t, ok)
}
