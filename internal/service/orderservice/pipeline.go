package orderservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"shoestock/internal/domain"
	apperror "shoestock/internal/errors"
	"shoestock/internal/pkg/logger"
)

// ProductReader é o acesso de leitura ao catálogo usado na validação do pedido.
type ProductReader interface {
	FindByID(ctx context.Context, id string) (domain.Product, error)
}

// CartClearer esvazia o carrinho depois de um pedido criado.
type CartClearer interface {
	Clear(ctx context.Context, userID string) error
}

// PaymentLinker monta a URL de redirecionamento para o gateway de pagamento.
type PaymentLinker interface {
	BuildPaymentURL(order domain.Order, clientIP string) (string, error)
}

// ItemInput é uma linha pedida pelo cliente.
type ItemInput struct {
	ProductID string `json:"productId" validate:"required"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
}

// CreateOrderInput é o payload de POST /v1/orders. UserID e ClientIP vêm da requisição.
type CreateOrderInput struct {
	UserID        string               `json:"-"`
	ClientIP      string               `json:"-"`
	Name          string               `json:"name" validate:"required"`
	Phone         string               `json:"phone" validate:"required"`
	Address       string               `json:"address" validate:"required"`
	Note          string               `json:"note"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod" validate:"required"`
	Items         []ItemInput          `json:"items" validate:"required,min=1,dive"`
}

// CreateOrderResult é a resposta da criação; PaymentURL só existe para vnpay.
type CreateOrderResult struct {
	Order      domain.Order `json:"order"`
	PaymentURL string       `json:"payment_url,omitempty"`
}

// Pipeline cria pedidos: valida, reserva estoque item a item, persiste e limpa o carrinho.
// Qualquer falha depois de uma reserva desfaz as reservas já feitas.
type Pipeline struct {
	products ProductReader
	ledger   Ledger
	orders   OrderRepository
	carts    CartClearer
	payments PaymentLinker // nil desabilita vnpay
	logger   logger.Logger
	now      func() time.Time
}

// NewPipeline cria o pipeline de criação de pedidos.
func NewPipeline(products ProductReader, ledger Ledger, orders OrderRepository, carts CartClearer, payments PaymentLinker, logger logger.Logger) *Pipeline {
	return &Pipeline{
		products: products,
		ledger:   ledger,
		orders:   orders,
		carts:    carts,
		payments: payments,
		logger:   logger,
		now:      time.Now,
	}
}

type reservation struct {
	productID string
	size      string
	qty       int
}

// CreateOrder executa o pipeline completo.
func (p *Pipeline) CreateOrder(ctx context.Context, in CreateOrderInput) (CreateOrderResult, error) {
	if err := p.validateFields(in); err != nil {
		return CreateOrderResult{}, err
	}

	items, err := p.snapshotItems(ctx, in.Items)
	if err != nil {
		return CreateOrderResult{}, err
	}

	// Reserva na ordem do pedido; a reserva é a verificação autoritativa.
	reserved := make([]reservation, 0, len(items))
	for _, it := range items {
		if _, err := p.ledger.Reserve(ctx, it.ProductID, it.Size, it.Quantity); err != nil {
			p.rollback(ctx, reserved)
			return CreateOrderResult{}, err
		}
		reserved = append(reserved, reservation{it.ProductID, it.Size, it.Quantity})
	}

	now := p.now()
	order := domain.Order{
		ID:            uuid.NewString(),
		UserID:        in.UserID,
		Items:         items,
		Total:         domain.CalculateTotal(items),
		Status:        domain.StatusPending,
		PaymentMethod: in.PaymentMethod,
		Name:          strings.TrimSpace(in.Name),
		Phone:         strings.TrimSpace(in.Phone),
		Address:       strings.TrimSpace(in.Address),
		Note:          in.Note,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// A URL vem antes da persistência: sem ela não há pedido nem reserva.
	var paymentURL string
	if order.PaymentMethod == domain.PaymentVNPay {
		paymentURL, err = p.payments.BuildPaymentURL(order, in.ClientIP)
		if err != nil {
			p.logger.Error(fmt.Sprintf("Falha ao montar URL de pagamento do pedido %s; desfazendo reservas", order.ID), err)
			p.rollback(ctx, reserved)
			return CreateOrderResult{}, err
		}
	}

	saved, err := p.orders.Save(ctx, order)
	if err != nil {
		p.logger.Error(fmt.Sprintf("Falha ao persistir pedido %s; desfazendo reservas", order.ID), err)
		p.rollback(ctx, reserved)
		return CreateOrderResult{}, err
	}

	if err := p.carts.Clear(ctx, in.UserID); err != nil {
		p.logger.Warn("Pedido criado, mas o carrinho não foi limpo.", map[string]interface{}{
			"order_id": saved.ID,
			"user_id":  in.UserID,
			"error":    err.Error(),
		})
	}

	result := CreateOrderResult{Order: saved, PaymentURL: paymentURL}

	p.logger.Info("Pedido criado.", map[string]interface{}{
		"order_id":       saved.ID,
		"user_id":        saved.UserID,
		"items":          len(saved.Items),
		"total":          saved.Total.String(),
		"payment_method": saved.PaymentMethod,
	})
	return result, nil
}

func (p *Pipeline) validateFields(in CreateOrderInput) error {
	if in.UserID == "" {
		return apperror.NewUnauthorizedError("Usuário não identificado.")
	}
	var missing []string
	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(in.Phone) == "" {
		missing = append(missing, "phone")
	}
	if strings.TrimSpace(in.Address) == "" {
		missing = append(missing, "address")
	}
	if in.PaymentMethod == "" {
		missing = append(missing, "paymentMethod")
	}
	if len(in.Items) == 0 {
		missing = append(missing, "items")
	}
	if len(missing) > 0 {
		return apperror.NewValidationError("Campos obrigatórios ausentes: " + strings.Join(missing, ", "))
	}
	if !in.PaymentMethod.Valid() {
		return apperror.NewValidationError(fmt.Sprintf("Método de pagamento desconhecido: %s", in.PaymentMethod))
	}
	if in.PaymentMethod == domain.PaymentVNPay && p.payments == nil {
		return apperror.NewValidationError("Pagamento vnpay não está habilitado.")
	}
	for i, it := range in.Items {
		if it.ProductID == "" {
			return apperror.NewValidationError(fmt.Sprintf("Item %d sem productId.", i))
		}
		if it.Quantity < 1 {
			return apperror.NewValidationError(fmt.Sprintf("Item %d com quantidade inválida: %d.", i, it.Quantity))
		}
	}
	return nil
}

// snapshotItems valida produto, tamanho e disponibilidade de cada item, nessa ordem,
// e congela nome, imagem e preço efetivo no item do pedido.
func (p *Pipeline) snapshotItems(ctx context.Context, inputs []ItemInput) ([]domain.OrderItem, error) {
	items := make([]domain.OrderItem, 0, len(inputs))
	for _, in := range inputs {
		product, err := p.products.FindByID(ctx, in.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.IsActive {
			return nil, apperror.NewValidationError(fmt.Sprintf("Produto %s não está disponível para venda.", product.ID))
		}

		size := strings.TrimSpace(in.Size)
		if product.Stock.SizeTracked {
			if size == "" || !product.Stock.HasSize(size) {
				return nil, apperror.NewValidationError(fmt.Sprintf("Tamanho %q não existe para o produto %s.", size, product.ID))
			}
		} else if size != "" {
			return nil, apperror.NewValidationError(fmt.Sprintf("Produto %s não possui tamanhos.", product.ID))
		}

		if available := product.Stock.Available(size); available < in.Quantity {
			return nil, apperror.NewInsufficientStockError(product.ID, size, in.Quantity, available)
		}

		items = append(items, domain.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Image:     product.ImageURL,
			Size:      size,
			Quantity:  in.Quantity,
			UnitPrice: product.EffectivePrice(),
		})
	}
	return items, nil
}

// rollback devolve as reservas em ordem inversa. Falhas são registradas e não interrompem as demais.
func (p *Pipeline) rollback(ctx context.Context, reserved []reservation) {
	ctx = context.WithoutCancel(ctx)
	for i := len(reserved) - 1; i >= 0; i-- {
		r := reserved[i]
		if _, err := p.ledger.Restore(ctx, r.productID, r.size, r.qty); err != nil {
			p.logger.Error(fmt.Sprintf("Falha ao desfazer reserva do produto %s tamanho %s", r.productID, r.size), err)
		}
	}
}
