package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterWindow(t *testing.T) {
	ctx := context.Background()
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	limiter := NewMemoryLimiter(3, time.Hour).(*memoryLimiter)
	limiter.now = func() time.Time { return current }

	// The first three events pass, the fourth is denied.
	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "user-1")
		require.NoError(t, err)
		assert.True(t, ok, "event %d should be allowed", i+1)
	}
	ok, err := limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Another key has its own budget.
	ok, err = limiter.Allow(ctx, "user-2")
	require.NoError(t, err)
	assert.True(t, ok)

	// Once the window slides past the old events, the key recovers.
	current = current.Add(time.Hour + time.Minute)
	ok, err = limiter.Allow(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryLimiterPartialSlide(t *testing.T) {
	ctx := context.Background()
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	limiter := NewMemoryLimiter(2, time.Hour).(*memoryLimiter)
	limiter.now = func() time.Time { return current }

	ok, _ := limiter.Allow(ctx, "k")
	require.True(t, ok)

	// Second event half an hour later fills the budget.
	current = current.Add(30 * time.Minute)
	ok, _ = limiter.Allow(ctx, "k")
	require.True(t, ok)
	ok, _ = limiter.Allow(ctx, "k")
	require.False(t, ok)

	// 31 minutes on, only the first event has left the window: one slot free.
	current = current.Add(31 * time.Minute)
	ok, _ = limiter.Allow(ctx, "k")
	assert.True(t, ok)
	ok, _ = limiter.Allow(ctx, "k")
	assert.False(t, ok)
}
