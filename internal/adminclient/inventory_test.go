package adminclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoestock/internal/domain"
)

// gatedEditor segura cada chamada até o teste liberar a resposta.
type gatedEditor struct {
	product domain.Product
	entered chan struct{}
	release chan result
}

type result struct {
	product domain.Product
	err     error
}

func newGatedEditor(p domain.Product) *gatedEditor {
	return &gatedEditor{product: p, entered: make(chan struct{}), release: make(chan result)}
}

func (g *gatedEditor) wait() (domain.Product, error) {
	g.entered <- struct{}{}
	r := <-g.release
	return r.product, r.err
}

func (g *gatedEditor) GetProduct(context.Context, string) (domain.Product, error) {
	return g.product, nil
}

func (g *gatedEditor) UpdateStock(context.Context, string, int) (domain.Product, error) {
	return g.wait()
}

func (g *gatedEditor) UpdateSize(context.Context, string, string, int) (domain.Product, error) {
	return g.wait()
}

func (g *gatedEditor) SetSize(context.Context, string, string, int) (domain.Product, error) {
	return g.wait()
}

func runner() domain.Product {
	return domain.Product{ID: "runner", Stock: domain.StockRecord{
		SizeTracked: true, Sizes: domain.SizePartition{"41": 2, "42": 5}, Total: 7, Version: 3,
	}}
}

type outcome struct {
	record domain.StockRecord
	err    error
}

func TestInventory_OptimisticThenReconcile(t *testing.T) {
	ed := newGatedEditor(runner())
	inv := NewInventory(ed)
	_, err := inv.Load(context.Background(), "runner")
	require.NoError(t, err)

	done := make(chan outcome, 1)
	go func() {
		r, err := inv.AdjustSize(context.Background(), "runner", "42", -2)
		done <- outcome{r, err}
	}()

	<-ed.entered
	visible, ok := inv.Get("runner")
	require.True(t, ok)
	assert.Equal(t, 3, visible.Sizes["42"], "valor otimista visível antes da resposta")
	assert.Equal(t, 5, visible.Total)

	server := runner().Stock
	server.Sizes["42"] = 3
	server.Total = 5
	server.Version = 4
	ed.release <- result{product: domain.Product{ID: "runner", Stock: server}}

	out := <-done
	require.NoError(t, out.err)
	assert.Equal(t, 4, out.record.Version)
	got, _ := inv.Get("runner")
	assert.Equal(t, server, got)
}

func TestInventory_FailureRestoresSnapshotAndKeepsMessage(t *testing.T) {
	ed := newGatedEditor(runner())
	inv := NewInventory(ed)
	_, err := inv.Load(context.Background(), "runner")
	require.NoError(t, err)

	done := make(chan outcome, 1)
	go func() {
		r, err := inv.SetSize(context.Background(), "runner", "44", 9)
		done <- outcome{r, err}
	}()

	<-ed.entered
	visible, _ := inv.Get("runner")
	assert.Equal(t, 9, visible.Sizes["44"])
	assert.Equal(t, 16, visible.Total)

	ed.release <- result{err: &APIError{Status: 403, Category: "FORBIDDEN", Message: "Acesso negado: requer papel admin."}}

	out := <-done
	require.Error(t, out.err)
	assert.Equal(t, "Acesso negado: requer papel admin.", out.err.Error())

	got, _ := inv.Get("runner")
	assert.Equal(t, runner().Stock, got, "snapshot exato restaurado")
}

func TestInventory_AdjustTotalClampsLocally(t *testing.T) {
	p := domain.Product{ID: "meia", Stock: domain.StockRecord{Total: 2, Version: 1}}
	ed := newGatedEditor(p)
	inv := NewInventory(ed)
	inv.Track(p)

	done := make(chan outcome, 1)
	go func() {
		r, err := inv.AdjustTotal(context.Background(), "meia", -5)
		done <- outcome{r, err}
	}()

	<-ed.entered
	visible, _ := inv.Get("meia")
	assert.Equal(t, 0, visible.Total)

	confirmed := domain.Product{ID: "meia", Stock: domain.StockRecord{Total: 0, Version: 2}}
	ed.release <- result{product: confirmed}
	out := <-done
	require.NoError(t, out.err)
	assert.Equal(t, confirmed.Stock, out.record)
}

func TestInventory_UnknownProduct(t *testing.T) {
	inv := NewInventory(newGatedEditor(runner()))

	_, ok := inv.Get("ghost")
	assert.False(t, ok)

	_, err := inv.AdjustSize(context.Background(), "ghost", "42", 1)
	assert.Error(t, err)
}

func TestInventory_OverlappingRejectedEditsDoNotDrift(t *testing.T) {
	ed := newGatedEditor(runner())
	inv := NewInventory(ed)
	_, err := inv.Load(context.Background(), "runner")
	require.NoError(t, err)

	done := make(chan outcome, 2)
	for i := 0; i < 2; i++ {
		go func() {
			r, err := inv.AdjustSize(context.Background(), "runner", "42", 1)
			done <- outcome{r, err}
		}()
	}
	<-ed.entered
	<-ed.entered

	visible, _ := inv.Get("runner")
	assert.Equal(t, 7, visible.Sizes["42"])
	assert.Equal(t, 9, visible.Total)

	rejected := &APIError{Status: 409, Category: "CONFLICT", Message: "Conflito de estado: versão desatualizada"}
	ed.release <- result{err: rejected}
	ed.release <- result{err: rejected}
	for i := 0; i < 2; i++ {
		out := <-done
		assert.Error(t, out.err)
	}

	got, _ := inv.Get("runner")
	assert.Equal(t, runner().Stock, got, "nenhuma edição recusada sobra no registro local")
}

func TestInventory_AdjustSizeUnknownSizeNeverShowsLocally(t *testing.T) {
	ed := newGatedEditor(runner())
	inv := NewInventory(ed)
	_, err := inv.Load(context.Background(), "runner")
	require.NoError(t, err)

	// Sem tamanho 44 a chamada falha antes de chegar ao editor; um envio
	// travaria no gatedEditor.
	_, err = inv.AdjustSize(context.Background(), "runner", "44", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set-size")

	got, _ := inv.Get("runner")
	assert.False(t, got.HasSize("44"))
	assert.Equal(t, runner().Stock, got)
}

func TestInventory_AdjustSizeOnUntrackedProduct(t *testing.T) {
	p := domain.Product{ID: "meia", Stock: domain.StockRecord{Total: 2, Version: 1}}
	inv := NewInventory(newGatedEditor(p))
	inv.Track(p)

	_, err := inv.AdjustSize(context.Background(), "meia", "42", 1)
	require.Error(t, err)

	got, _ := inv.Get("meia")
	assert.Equal(t, p.Stock, got)
}
