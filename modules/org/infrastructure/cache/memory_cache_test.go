package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/orgtree/modules/org/domain/entities/labels"
)

func TestMemoryCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, time.Hour)

	_, ok, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	m := labels.DefaultMapping()
	require.NoError(t, c.Set(ctx, 7, 0, 1, m))

	got, ok, err := c.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, m, got)

	got[labels.AttendeeLabel] = "mutated"
	again, _, _ := c.Get(ctx, 1)
	assert.Equal(t, "Attendee", again[labels.AttendeeLabel])
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, 20*time.Millisecond)
	require.NoError(t, c.Set(ctx, 7, 0, 1, labels.DefaultMapping()))

	assert.Eventually(t, func() bool {
		_, ok, _ := c.Get(ctx, 1)
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryCache_InvalidateRoot(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, time.Hour)
	m := labels.DefaultMapping()
	require.NoError(t, c.Set(ctx, 7, 0, 1, m))
	require.NoError(t, c.Set(ctx, 7, 0, 2, m))
	require.NoError(t, c.Set(ctx, 8, 0, 3, m))
	require.NoError(t, c.Set(ctx, 0, 0, 4, m))

	require.NoError(t, c.InvalidateRoot(ctx, 7))

	for _, id := range []uint{1, 2} {
		_, ok, _ := c.Get(ctx, id)
		assert.False(t, ok, "user %d should be invalidated", id)
	}
	for _, id := range []uint{3, 4} {
		_, ok, _ := c.Get(ctx, id)
		assert.True(t, ok, "user %d should survive", id)
	}
}

func TestMemoryCache_MovedUserSurvivesOldRootInvalidation(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, time.Hour)
	m := labels.DefaultMapping()
	require.NoError(t, c.Set(ctx, 7, 0, 1, m))
	require.NoError(t, c.Set(ctx, 8, 0, 1, m))

	require.NoError(t, c.InvalidateRoot(ctx, 7))
	_, ok, _ := c.Get(ctx, 1)
	assert.True(t, ok)

	require.NoError(t, c.InvalidateRoot(ctx, 8))
	_, ok, _ = c.Get(ctx, 1)
	assert.False(t, ok)
}

func TestMemoryCache_SizeBound(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(2, time.Hour)
	m := labels.DefaultMapping()
	for id := uint(1); id <= 10; id++ {
		require.NoError(t, c.Set(ctx, int64(id%3)+1, 0, id, m))
	}
	assert.Equal(t, 2, c.Len())
	assert.LessOrEqual(t, c.indexed, 2*c.size)
}

func TestMemoryCache_SetAfterInvalidationIsDropped(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, time.Hour)

	gen, err := c.Generation(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), gen)

	require.NoError(t, c.InvalidateRoot(ctx, 7))
	require.NoError(t, c.Set(ctx, 7, gen, 1, labels.DefaultMapping()))
	_, ok, _ := c.Get(ctx, 1)
	assert.False(t, ok, "mapping resolved before the invalidation must not be cached")

	gen, err = c.Generation(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), gen)
	require.NoError(t, c.Set(ctx, 7, gen, 1, labels.DefaultMapping()))
	_, ok, _ = c.Get(ctx, 1)
	assert.True(t, ok)

	other, err := c.Generation(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), other)
}
