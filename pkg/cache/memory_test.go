package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetAndGet(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k1", []byte("value"), time.Minute))

	got, found, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("value"), got)
}

func TestMemoryCache_MissingKey(t *testing.T) {
	c := NewMemoryCache()

	_, found, err := c.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	current := time.Now()
	c.now = func() time.Time { return current }

	require.NoError(t, c.Set(ctx, "k1", []byte("value"), time.Minute))

	_, found, _ := c.Get(ctx, "k1")
	assert.True(t, found)

	current = current.Add(2 * time.Minute)
	_, found, _ = c.Get(ctx, "k1")
	assert.False(t, found, "entry expired")
	assert.Equal(t, 0, c.Len(), "expired entry evicted on read")
}

func TestMemoryCache_ZeroTTLNeverExpires(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	current := time.Now()
	c.now = func() time.Time { return current }

	require.NoError(t, c.Set(ctx, "k1", []byte("value"), 0))

	current = current.Add(24 * time.Hour)
	_, found, _ := c.Get(ctx, "k1")
	assert.True(t, found)
}

func TestMemoryCache_InvalidatePattern(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "eval:c1:a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "eval:c1:b", []byte("2"), 0))
	require.NoError(t, c.Set(ctx, "eval:c2:a", []byte("3"), 0))

	require.NoError(t, c.InvalidatePattern(ctx, "eval:c1:"))

	_, found, _ := c.Get(ctx, "eval:c1:a")
	assert.False(t, found)
	_, found, _ = c.Get(ctx, "eval:c2:a")
	assert.True(t, found)
	assert.Equal(t, 1, c.Len())
}
