package adminclient

import (
	"context"
	"fmt"
	"sync"

	"shoestock/internal/domain"
	"shoestock/internal/pkg/optimistic"
)

// StockEditor são as chamadas remotas usadas pelo Inventory. *Client implementa.
type StockEditor interface {
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
	UpdateStock(ctx context.Context, productID string, change int) (domain.Product, error)
	UpdateSize(ctx context.Context, productID, size string, change int) (domain.Product, error)
	SetSize(ctx context.Context, productID, size string, qty int) (domain.Product, error)
}

// Inventory é a visão local do estoque no painel. Cada edição aparece em Get
// antes da resposta do servidor; se o servidor recusar, o registro volta ao
// snapshot anterior e o erro do servidor é devolvido.
type Inventory struct {
	editor StockEditor

	mu    sync.Mutex
	cells map[string]*optimistic.Cell[domain.StockRecord]
}

// NewInventory cria a visão local vazia.
func NewInventory(editor StockEditor) *Inventory {
	return &Inventory{editor: editor, cells: make(map[string]*optimistic.Cell[domain.StockRecord])}
}

func cloneRecord(r domain.StockRecord) domain.StockRecord {
	return r.Clone()
}

// Track passa a acompanhar o estoque do produto, substituindo o registro local.
func (i *Inventory) Track(p domain.Product) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if cell, ok := i.cells[p.ID]; ok {
		cell.Set(p.Stock)
		return
	}
	i.cells[p.ID] = optimistic.NewCell(p.Stock, cloneRecord)
}

// Load busca o produto no servidor e o acompanha.
func (i *Inventory) Load(ctx context.Context, productID string) (domain.StockRecord, error) {
	p, err := i.editor.GetProduct(ctx, productID)
	if err != nil {
		return domain.StockRecord{}, err
	}
	i.Track(p)
	return p.Stock.Clone(), nil
}

// Get retorna o registro visível, incluindo edições em andamento.
func (i *Inventory) Get(productID string) (domain.StockRecord, bool) {
	cell, ok := i.cell(productID)
	if !ok {
		return domain.StockRecord{}, false
	}
	return cell.Get(), true
}

func (i *Inventory) cell(productID string) (*optimistic.Cell[domain.StockRecord], bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	cell, ok := i.cells[productID]
	return cell, ok
}

// AdjustTotal aplica um delta ao total (produtos sem controle por tamanho).
func (i *Inventory) AdjustTotal(ctx context.Context, productID string, change int) (domain.StockRecord, error) {
	return i.edit(ctx, productID, func(r domain.StockRecord) domain.StockRecord {
		r.Total = clampZero(r.Total + change)
		return r
	}, func(ctx context.Context) (domain.Product, error) {
		return i.editor.UpdateStock(ctx, productID, change)
	})
}

// AdjustSize aplica um delta a um tamanho já existente. Tamanhos novos só
// nascem por SetSize, como no servidor, então nada é exibido para eles.
func (i *Inventory) AdjustSize(ctx context.Context, productID, size string, change int) (domain.StockRecord, error) {
	if current, ok := i.Get(productID); ok {
		if !current.SizeTracked {
			return domain.StockRecord{}, fmt.Errorf("produto %s não tem controle por tamanho", productID)
		}
		if !current.HasSize(size) {
			return domain.StockRecord{}, fmt.Errorf("tamanho %s não existe em %s; use set-size para criá-lo", size, productID)
		}
	}
	return i.edit(ctx, productID, func(r domain.StockRecord) domain.StockRecord {
		r.Sizes[size] = clampZero(r.Sizes[size] + change)
		r.Recompute()
		return r
	}, func(ctx context.Context) (domain.Product, error) {
		return i.editor.UpdateSize(ctx, productID, size, change)
	})
}

// SetSize define a quantidade exata de um tamanho.
func (i *Inventory) SetSize(ctx context.Context, productID, size string, qty int) (domain.StockRecord, error) {
	return i.edit(ctx, productID, func(r domain.StockRecord) domain.StockRecord {
		if r.Sizes == nil {
			r.Sizes = domain.SizePartition{}
		}
		r.Sizes[size] = qty
		r.Recompute()
		return r
	}, func(ctx context.Context) (domain.Product, error) {
		return i.editor.SetSize(ctx, productID, size, qty)
	})
}

func (i *Inventory) edit(ctx context.Context, productID string, mutate func(domain.StockRecord) domain.StockRecord, send func(context.Context) (domain.Product, error)) (domain.StockRecord, error) {
	cell, ok := i.cell(productID)
	if !ok {
		return domain.StockRecord{}, fmt.Errorf("produto %s não está carregado no inventário local", productID)
	}
	return optimistic.Apply(ctx, cell, mutate, func(ctx context.Context) (domain.StockRecord, error) {
		p, err := send(ctx)
		if err != nil {
			return domain.StockRecord{}, err
		}
		return p.Stock, nil
	})
}

func clampZero(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
