package cartrepo

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoestock/internal/domain"
	"shoestock/internal/pkg/cache"
	"shoestock/internal/pkg/logger"
)

func TestCartRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemoryClient()
	repo := NewCartRepository(mem, time.Hour, logger.NewDiscard())

	empty, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, empty.Items)

	cart := domain.Cart{UserID: "u1", Items: []domain.CartItem{
		{ProductID: "p1", Size: "42", Quantity: 2, Price: decimal.NewFromInt(900000)},
	}}
	require.NoError(t, repo.Save(ctx, cart))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "42", got.Items[0].Size)
	assert.True(t, decimal.NewFromInt(900000).Equal(got.Items[0].Price))

	raw, err := mem.Get(ctx, "cart:u1")
	require.NoError(t, err)
	assert.Contains(t, raw, `"product_id":"p1"`)

	require.NoError(t, repo.Clear(ctx, "u1"))
	got, err = repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got.Items)
}

func TestCartRepository_CorruptedEntry(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemoryClient()
	require.NoError(t, mem.Set(ctx, "cart:u1", "not-json", 0))

	repo := NewCartRepository(mem, time.Hour, logger.NewDiscard())
	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got.Items)
}
