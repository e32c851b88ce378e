package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryClient_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient()

	_, err := c.Get(ctx, "product:1")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "product:1", []byte(`{"id":"1"}`), time.Minute))
	val, err := c.Get(ctx, "product:1")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"1"}`, val)

	require.NoError(t, c.Delete(ctx, "product:1"))
	_, err = c.Get(ctx, "product:1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryClient_Expiration(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", "v", time.Second))
	now = now.Add(2 * time.Second)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryClient_IncrWindow(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	for i := int64(1); i <= 3; i++ {
		n, err := c.Incr(ctx, "rate-limit:1.2.3.4", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}

	got, err := c.GetInt(ctx, "rate-limit:1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	// A janela expira e o contador recomeça.
	now = now.Add(time.Minute)
	n, err := c.Incr(ctx, "rate-limit:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
