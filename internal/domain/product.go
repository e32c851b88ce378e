package domain

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Product representa um item do catálogo (a Entidade).
// Os campos de estoque ficam agrupados em Stock e só são alterados pelo ledger.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Brand       string          `json:"brand"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	Price       decimal.Decimal `json:"price"`
	Discount    int             `json:"discount"` // Percentual 0..100
	IsActive    bool            `json:"is_active"`
	Stock       StockRecord     `json:"stock"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// EffectivePrice é o preço cobrado no pedido: Price com o desconto aplicado,
// arredondado para a unidade (VND não tem centavos).
func (p Product) EffectivePrice() decimal.Decimal {
	if p.Discount <= 0 {
		return p.Price.Round(0)
	}
	factor := decimal.NewFromInt(int64(100 - p.Discount)).Div(decimal.NewFromInt(100))
	return p.Price.Mul(factor).Round(0)
}

// SizePartition é o estoque por tamanho ("38", "42", "XL" ...).
type SizePartition map[string]int

// Sum retorna a soma de todas as entradas da partição.
func (p SizePartition) Sum() int {
	total := 0
	for _, qty := range p {
		total += qty
	}
	return total
}

// Keys retorna a lista de tamanhos conhecidos, ordenada.
func (p SizePartition) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone devolve uma cópia independente da partição.
func (p SizePartition) Clone() SizePartition {
	out := make(SizePartition, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// StockRecord agrupa os contadores de estoque de um produto.
// É a unidade de atomicidade: toda alteração passa por StockStore.MutateStock.
type StockRecord struct {
	Total       int           `json:"total"`
	Sizes       SizePartition `json:"size_stocks"`
	SizeTracked bool          `json:"size_tracked"`
	SoldCount   int           `json:"sold_count"`
	Version     int           `json:"version"`
}

// Clone devolve uma cópia profunda do registro.
func (s StockRecord) Clone() StockRecord {
	s.Sizes = s.Sizes.Clone()
	return s
}

// HasSize informa se o tamanho faz parte da partição do produto.
func (s StockRecord) HasSize(size string) bool {
	_, ok := s.Sizes[size]
	return ok
}

// Available retorna a quantidade disponível para o tamanho
// (ou o total, para produtos sem controle por tamanho).
func (s StockRecord) Available(size string) int {
	if !s.SizeTracked {
		return s.Total
	}
	return s.Sizes[size]
}

// Recompute sincroniza o total com a soma da partição quando o produto é controlado por tamanho.
func (s *StockRecord) Recompute() {
	if s.SizeTracked {
		s.Total = s.Sizes.Sum()
	}
}

// Check valida os invariantes do registro: nenhum contador negativo e,
// para produtos por tamanho, total igual à soma da partição.
func (s StockRecord) Check() error {
	if s.Total < 0 {
		return fmt.Errorf("estoque total negativo: %d", s.Total)
	}
	if s.SoldCount < 0 {
		return fmt.Errorf("contagem de vendidos negativa: %d", s.SoldCount)
	}
	for size, qty := range s.Sizes {
		if qty < 0 {
			return fmt.Errorf("estoque negativo no tamanho %s: %d", size, qty)
		}
	}
	if s.SizeTracked && s.Total != s.Sizes.Sum() {
		return fmt.Errorf("total %d difere da soma dos tamanhos %d", s.Total, s.Sizes.Sum())
	}
	return nil
}

// StockMutation altera um StockRecord dentro da seção atômica do StockStore.
// Se retornar erro, nada é persistido.
type StockMutation func(record *StockRecord) error

// StockStore é a primitiva de persistência do ledger: aplica uma mutação
// de forma atômica em relação a outros chamadores sobre o mesmo produto.
type StockStore interface {
	MutateStock(ctx context.Context, productID string, fn StockMutation) (Product, error)
}

// ProductFilter define os parâmetros de busca e paginação.
type ProductFilter struct {
	Page       int
	Limit      int
	Name       string
	ActiveOnly bool
}
