package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus é o estado do pedido na máquina de estados.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusShipping  OrderStatus = "shipping"
	StatusDone      OrderStatus = "done"
	StatusCancelled OrderStatus = "cancelled"
)

// ParseOrderStatus converte uma string recebida pela API em OrderStatus.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	switch s := OrderStatus(raw); s {
	case StatusPending, StatusConfirmed, StatusShipping, StatusDone, StatusCancelled:
		return s, true
	}
	return "", false
}

// IsTerminal informa se nenhum status é alcançável a partir deste.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDone || s == StatusCancelled
}

// StockEffect é um efeito colateral no ledger disparado por uma transição.
type StockEffect int

const (
	EffectCreditSold StockEffect = iota + 1
	EffectRestore
	EffectReverseSold
)

func (e StockEffect) String() string {
	switch e {
	case EffectCreditSold:
		return "credit_sold"
	case EffectRestore:
		return "restore"
	case EffectReverseSold:
		return "reverse_sold"
	}
	return "unknown"
}

type transition struct {
	from OrderStatus
	to   OrderStatus
}

// transitions é a tabela completa da máquina de estados. A chave é o par
// (status anterior, novo status); o valor são os efeitos aplicados a cada item.
// Pares ausentes são transições inválidas.
// done é terminal: não existe done -> cancelled, então cancelar um pedido
// entregue é rejeitado e o estoque de itens entregues nunca volta.
var transitions = map[transition][]StockEffect{
	{StatusPending, StatusConfirmed}:   {EffectCreditSold},
	{StatusPending, StatusCancelled}:   {EffectRestore},
	{StatusConfirmed, StatusShipping}:  nil,
	{StatusConfirmed, StatusCancelled}: {EffectRestore, EffectReverseSold},
	{StatusShipping, StatusDone}:       nil,
	{StatusShipping, StatusCancelled}:  {EffectRestore, EffectReverseSold},
}

// TransitionEffects retorna os efeitos de estoque da transição from -> to
// e false se a transição não for permitida.
func TransitionEffects(from, to OrderStatus) ([]StockEffect, bool) {
	effects, ok := transitions[transition{from, to}]
	return effects, ok
}

// PaymentMethod identifica como o cliente paga o pedido.
type PaymentMethod string

const (
	PaymentCOD   PaymentMethod = "cod"
	PaymentVNPay PaymentMethod = "vnpay"
)

// Valid informa se o método de pagamento é suportado.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCOD || m == PaymentVNPay
}

// OrderItem é um snapshot do produto no momento da compra.
// Alterações posteriores de preço ou nome no catálogo não o afetam.
type OrderItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Size      string          `json:"size,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Subtotal é UnitPrice × Quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order representa um pedido. Pedidos nunca são apagados.
type Order struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Items         []OrderItem     `json:"items"`
	Total         decimal.Decimal `json:"total"`
	Status        OrderStatus     `json:"status"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Name          string          `json:"name"`
	Phone         string          `json:"phone"`
	Address       string          `json:"address"`
	Note          string          `json:"note"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CalculateTotal soma os subtotais dos itens. Só é chamado na criação do pedido.
func CalculateTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// OrderFilter define os filtros de listagem de pedidos.
type OrderFilter struct {
	UserID        string
	Status        OrderStatus
	CreatedBefore time.Time
	Limit         int
}

// StatusGuard recebe o status anterior, lido sob bloqueio, e decide se a escrita prossegue.
type StatusGuard func(previous OrderStatus) error
