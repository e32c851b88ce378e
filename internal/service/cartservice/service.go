package cartservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shoestock/internal/domain"
	apperror "shoestock/internal/errors"
	"shoestock/internal/pkg/logger"
)

// CartRepository é o armazenamento de carrinhos (Redis em produção).
type CartRepository interface {
	Get(ctx context.Context, userID string) (domain.Cart, error)
	Save(ctx context.Context, cart domain.Cart) error
	Clear(ctx context.Context, userID string) error
}

// ProductReader é a leitura de catálogo usada para validar itens e congelar o preço exibido.
type ProductReader interface {
	FindByID(ctx context.Context, id string) (domain.Product, error)
}

// ItemInput é o payload de POST/PUT/DELETE /v1/cart/items.
type ItemInput struct {
	ProductID string `json:"productId" validate:"required"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

// Service mantém o carrinho. O carrinho nunca reserva estoque: a disponibilidade
// só é decidida na criação do pedido.
type Service struct {
	carts    CartRepository
	products ProductReader
	logger   logger.Logger
	now      func() time.Time
}

func NewService(carts CartRepository, products ProductReader, logger logger.Logger) *Service {
	return &Service{carts: carts, products: products, logger: logger, now: time.Now}
}

// GetCart retorna o carrinho do usuário (vazio se não existir).
func (s *Service) GetCart(ctx context.Context, userID string) (domain.Cart, error) {
	return s.carts.Get(ctx, userID)
}

// AddItem soma a quantidade à linha (produto, tamanho), criando-a se necessário.
func (s *Service) AddItem(ctx context.Context, userID string, in ItemInput) (domain.Cart, error) {
	if in.Quantity < 1 {
		return domain.Cart{}, apperror.NewValidationError("A quantidade deve ser positiva.")
	}
	size := strings.TrimSpace(in.Size)

	product, err := s.products.FindByID(ctx, in.ProductID)
	if err != nil {
		return domain.Cart{}, err
	}
	if !product.IsActive {
		return domain.Cart{}, apperror.NewValidationError(fmt.Sprintf("Produto %s não está disponível para venda.", product.ID))
	}
	if product.Stock.SizeTracked && !product.Stock.HasSize(size) {
		return domain.Cart{}, apperror.NewValidationError(fmt.Sprintf("Tamanho %q não existe para o produto %s.", size, product.ID))
	}
	if !product.Stock.SizeTracked && size != "" {
		return domain.Cart{}, apperror.NewValidationError(fmt.Sprintf("Produto %s não possui tamanhos.", product.ID))
	}

	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return domain.Cart{}, err
	}
	cart.UserID = userID

	if i := cart.Find(product.ID, size); i >= 0 {
		cart.Items[i].Quantity += in.Quantity
		cart.Items[i].Price = product.EffectivePrice()
	} else {
		cart.Items = append(cart.Items, domain.CartItem{
			ProductID: product.ID,
			Size:      size,
			Quantity:  in.Quantity,
			Price:     product.EffectivePrice(),
		})
	}
	return s.save(ctx, cart)
}

// UpdateItem define a quantidade da linha; quantidade <= 0 remove a linha.
func (s *Service) UpdateItem(ctx context.Context, userID string, in ItemInput) (domain.Cart, error) {
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return domain.Cart{}, err
	}
	i := cart.Find(in.ProductID, strings.TrimSpace(in.Size))
	if i < 0 {
		return domain.Cart{}, apperror.NewNotFoundError("Item não encontrado no carrinho.")
	}
	if in.Quantity <= 0 {
		cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
	} else {
		cart.Items[i].Quantity = in.Quantity
	}
	return s.save(ctx, cart)
}

// RemoveItem remove a linha (produto, tamanho). Sem tamanho, remove todas as linhas do produto.
func (s *Service) RemoveItem(ctx context.Context, userID string, in ItemInput) (domain.Cart, error) {
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return domain.Cart{}, err
	}
	size := strings.TrimSpace(in.Size)
	kept := cart.Items[:0]
	for _, it := range cart.Items {
		if it.ProductID == in.ProductID && (size == "" || it.Size == size) {
			continue
		}
		kept = append(kept, it)
	}
	cart.Items = kept
	return s.save(ctx, cart)
}

// Clear esvazia o carrinho; usado pelo pipeline de pedidos.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.carts.Clear(ctx, userID)
}

func (s *Service) save(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	cart.UpdatedAt = s.now()
	if err := s.carts.Save(ctx, cart); err != nil {
		return domain.Cart{}, err
	}
	s.logger.Debug("Carrinho atualizado.", map[string]interface{}{"user_id": cart.UserID, "items": len(cart.Items)})
	return cart, nil
}
