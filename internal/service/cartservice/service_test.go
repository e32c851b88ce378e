package cartservice_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoestock/internal/domain"
	apperror "shoestock/internal/errors"
	"shoestock/internal/pkg/cache"
	"shoestock/internal/pkg/logger"
	"shoestock/internal/repository/cartrepo"
	"shoestock/internal/repository/memory"
	"shoestock/internal/service/cartservice"
)

func setup(t *testing.T) (*cartservice.Service, *memory.ProductStore) {
	t.Helper()
	ctx := context.Background()
	products := memory.NewProductStore()
	_, err := products.Save(ctx, domain.Product{
		ID: "runner", Name: "Runner", IsActive: true, Price: decimal.NewFromInt(1000), Discount: 10,
		Stock: domain.StockRecord{SizeTracked: true, Sizes: domain.SizePartition{"41": 1, "42": 0}, Total: 1, Version: 1},
	})
	require.NoError(t, err)
	_, err = products.Save(ctx, domain.Product{
		ID: "socks", Name: "Meias", IsActive: true, Price: decimal.NewFromInt(50),
		Stock: domain.StockRecord{Total: 3, Version: 1},
	})
	require.NoError(t, err)
	_, err = products.Save(ctx, domain.Product{ID: "old", Name: "Old", Price: decimal.NewFromInt(1)})
	require.NoError(t, err)

	carts := cartrepo.NewCartRepository(cache.NewMemoryClient(), time.Hour, logger.NewDiscard())
	return cartservice.NewService(carts, products, logger.NewDiscard()), products
}

func TestAddItem_MergesLinesAndSnapshotsPrice(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "u1", cartservice.ItemInput{ProductID: "runner", Size: "42", Quantity: 2})
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, "u1", cartservice.ItemInput{ProductID: "runner", Size: "42", Quantity: 3})
	require.NoError(t, err)
	cart, err = svc.AddItem(ctx, "u1", cartservice.ItemInput{ProductID: "socks", Quantity: 1})
	require.NoError(t, err)

	require.Len(t, cart.Items, 2)
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(900).Equal(cart.Items[0].Price))
	assert.True(t, decimal.NewFromInt(4550).Equal(cart.Subtotal()))
}

func TestAddItem_DoesNotTouchStock(t *testing.T) {
	svc, products := setup(t)
	ctx := context.Background()

	// Tamanho esgotado ainda pode ir para o carrinho; o pedido decide.
	_, err := svc.AddItem(ctx, "u1", cartservice.ItemInput{ProductID: "runner", Size: "42", Quantity: 4})
	require.NoError(t, err)

	p, err := products.FindByID(ctx, "runner")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stock.Total)
	assert.Equal(t, 1, p.Stock.Version)
}

func TestAddItem_Validation(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	cases := map[string]cartservice.ItemInput{
		"quantidade zero":     {ProductID: "runner", Size: "42"},
		"tamanho inexistente": {ProductID: "runner", Size: "50", Quantity: 1},
		"sem tamanho":         {ProductID: "runner", Quantity: 1},
		"tamanho sem grade":   {ProductID: "socks", Size: "42", Quantity: 1},
		"produto inativo":     {ProductID: "old", Quantity: 1},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.AddItem(ctx, "u1", in)
			var valErr *apperror.ValidationError
			assert.ErrorAs(t, err, &valErr)
		})
	}

	_, err := svc.AddItem(ctx, "u1", cartservice.ItemInput{ProductID: "ghost", Quantity: 1})
	var nf *apperror.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestUpdateAndRemoveItem(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "u1", cartservice.ItemInput{ProductID: "runner", Size: "41", Quantity: 1})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "u1", cartservice.ItemInput{ProductID: "runner", Size: "42", Quantity: 1})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "u1", cartservice.ItemInput{ProductID: "socks", Quantity: 1})
	require.NoError(t, err)

	cart, err := svc.UpdateItem(ctx, "u1", cartservice.ItemInput{ProductID: "runner", Size: "41", Quantity: 7})
	require.NoError(t, err)
	assert.Equal(t, 7, cart.Items[0].Quantity)

	cart, err = svc.UpdateItem(ctx, "u1", cartservice.ItemInput{ProductID: "socks", Quantity: 0})
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)

	_, err = svc.UpdateItem(ctx, "u1", cartservice.ItemInput{ProductID: "socks", Quantity: 1})
	var nf *apperror.NotFoundError
	assert.ErrorAs(t, err, &nf)

	cart, err = svc.RemoveItem(ctx, "u1", cartservice.ItemInput{ProductID: "runner"})
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	got, err := svc.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got.Items)
}

func TestClear(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	_, err := svc.AddItem(ctx, "u1", cartservice.ItemInput{ProductID: "socks", Quantity: 2})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, "u1"))

	cart, err := svc.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}
