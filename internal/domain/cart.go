package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem é uma linha do carrinho. Price é apenas o snapshot exibido ao cliente:
// o pedido sempre recalcula com o preço efetivo atual do catálogo.
type CartItem struct {
	ProductID string          `json:"product_id"`
	Size      string          `json:"size,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Cart é o carrinho de um usuário.
type Cart struct {
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Find retorna o índice da linha (produto, tamanho) ou -1.
func (c *Cart) Find(productID, size string) int {
	for i, it := range c.Items {
		if it.ProductID == productID && it.Size == size {
			return i
		}
	}
	return -1
}

// Subtotal é a soma dos snapshots de preço do carrinho.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}
