package stockservice

import (
	"context"
	"fmt"

	"shoestock/internal/domain"
	apperror "shoestock/internal/errors"
	"shoestock/internal/pkg/cache"
	"shoestock/internal/pkg/logger"
)

// TotalKey é a chave usada por AdjustDelta/SetAbsolute para o total de produtos sem controle por tamanho.
const TotalKey = ""

// Service é o ledger de estoque: a única porta de escrita de StockRecord.
// Cada operação é atômica por produto; não há ordenação entre produtos.
type Service struct {
	store  domain.StockStore
	cache  cache.Client // opcional; invalida "product:<id>" após cada mutação
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do ledger de estoque.
func NewService(store domain.StockStore, cacheClient cache.Client, logger logger.Logger) *Service {
	return &Service{store: store, cache: cacheClient, logger: logger}
}

// Reserve retira qty do tamanho (ou do total, se o produto não controla tamanhos).
// Falha com InsufficientStockError sem alterar nada.
func (s *Service) Reserve(ctx context.Context, productID, size string, qty int) (domain.Product, error) {
	if err := positive(qty); err != nil {
		return domain.Product{}, err
	}
	return s.apply(ctx, "reserve", productID, size, qty, reserve(productID, size, qty))
}

// Restore devolve qty ao tamanho, criando a entrada se ela não existir. Nunca falha por limite.
func (s *Service) Restore(ctx context.Context, productID, size string, qty int) (domain.Product, error) {
	if err := positive(qty); err != nil {
		return domain.Product{}, err
	}
	return s.apply(ctx, "restore", productID, size, qty, restore(size, qty))
}

// CreditSold soma qty à contagem de vendidos.
func (s *Service) CreditSold(ctx context.Context, productID string, qty int) (domain.Product, error) {
	if err := positive(qty); err != nil {
		return domain.Product{}, err
	}
	return s.apply(ctx, "credit_sold", productID, "", qty, creditSold(qty))
}

// ReverseSold subtrai qty da contagem de vendidos, com piso em zero.
func (s *Service) ReverseSold(ctx context.Context, productID string, qty int) (domain.Product, error) {
	if err := positive(qty); err != nil {
		return domain.Product{}, err
	}
	return s.apply(ctx, "reverse_sold", productID, "", qty, reverseSold(qty))
}

// AdjustDelta é o ajuste administrativo relativo. O resultado é truncado em zero.
func (s *Service) AdjustDelta(ctx context.Context, productID, key string, delta int) (domain.Product, error) {
	if delta == 0 {
		return domain.Product{}, apperror.NewValidationError("O ajuste de estoque (delta) não pode ser zero.")
	}
	return s.apply(ctx, "adjust_delta", productID, key, delta, adjustDelta(key, delta))
}

// SetAbsolute define o valor exato de um tamanho (ou do total, com TotalKey).
func (s *Service) SetAbsolute(ctx context.Context, productID, key string, qty int) (domain.Product, error) {
	if qty < 0 {
		return domain.Product{}, apperror.NewValidationError("A quantidade não pode ser negativa.")
	}
	return s.apply(ctx, "set_absolute", productID, key, qty, setAbsolute(key, qty))
}

func (s *Service) apply(ctx context.Context, op, productID, size string, qty int, fn domain.StockMutation) (domain.Product, error) {
	fields := map[string]interface{}{
		"op":         op,
		"product_id": productID,
		"size":       size,
		"qty":        qty,
	}

	product, err := s.store.MutateStock(ctx, productID, fn)
	if err != nil {
		s.logger.Debug("Operação de estoque rejeitada.", mergeFields(fields, map[string]interface{}{"error": err.Error()}))
		return domain.Product{}, err
	}

	s.invalidate(ctx, productID)
	s.logger.Info("Operação de estoque aplicada.", mergeFields(fields, map[string]interface{}{
		"total":      product.Stock.Total,
		"sold_count": product.Stock.SoldCount,
		"version":    product.Stock.Version,
	}))
	return product, nil
}

func (s *Service) invalidate(ctx context.Context, productID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, fmt.Sprintf("product:%s", productID)); err != nil {
		s.logger.Warn("Falha ao invalidar cache do produto.", map[string]interface{}{
			"product_id": productID,
			"error":      err.Error(),
		})
	}
}

func mergeFields(a, b map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

func positive(qty int) error {
	if qty <= 0 {
		return apperror.NewValidationError(fmt.Sprintf("A quantidade deve ser positiva (recebido %d).", qty))
	}
	return nil
}

// --- Mutações puras, executadas dentro da seção atômica do StockStore ---

func checkKey(r *domain.StockRecord, key string) error {
	if r.SizeTracked && key == TotalKey {
		return apperror.NewValidationError("Produto controlado por tamanho: informe o tamanho.")
	}
	if !r.SizeTracked && key != TotalKey {
		return apperror.NewValidationError(fmt.Sprintf("Produto sem controle por tamanho não aceita o tamanho %q.", key))
	}
	return nil
}

func reserve(productID, size string, qty int) domain.StockMutation {
	return func(r *domain.StockRecord) error {
		if err := checkKey(r, size); err != nil {
			return err
		}
		if !r.SizeTracked {
			if r.Total < qty {
				return apperror.NewInsufficientStockError(productID, size, qty, r.Total)
			}
			r.Total -= qty
			return nil
		}

		available, ok := r.Sizes[size]
		if !ok {
			return apperror.NewValidationError(fmt.Sprintf("Tamanho %s não existe para o produto %s.", size, productID))
		}
		if available < qty {
			return apperror.NewInsufficientStockError(productID, size, qty, available)
		}
		r.Sizes[size] = available - qty
		r.Recompute()
		return nil
	}
}

func restore(size string, qty int) domain.StockMutation {
	return func(r *domain.StockRecord) error {
		if err := checkKey(r, size); err != nil {
			return err
		}
		if !r.SizeTracked {
			r.Total += qty
			return nil
		}
		if r.Sizes == nil {
			r.Sizes = domain.SizePartition{}
		}
		r.Sizes[size] += qty
		r.Recompute()
		return nil
	}
}

func creditSold(qty int) domain.StockMutation {
	return func(r *domain.StockRecord) error {
		r.SoldCount += qty
		return nil
	}
}

func reverseSold(qty int) domain.StockMutation {
	return func(r *domain.StockRecord) error {
		r.SoldCount -= qty
		if r.SoldCount < 0 {
			r.SoldCount = 0
		}
		return nil
	}
}

func adjustDelta(key string, delta int) domain.StockMutation {
	return func(r *domain.StockRecord) error {
		if err := checkKey(r, key); err != nil {
			return err
		}
		if !r.SizeTracked {
			r.Total = clamp(r.Total + delta)
			return nil
		}
		current, ok := r.Sizes[key]
		if !ok {
			return apperror.NewValidationError(fmt.Sprintf("Tamanho %s não existe; use set-size para criá-lo.", key))
		}
		r.Sizes[key] = clamp(current + delta)
		r.Recompute()
		return nil
	}
}

func setAbsolute(key string, qty int) domain.StockMutation {
	return func(r *domain.StockRecord) error {
		if err := checkKey(r, key); err != nil {
			return err
		}
		if !r.SizeTracked {
			r.Total = qty
			return nil
		}
		if r.Sizes == nil {
			r.Sizes = domain.SizePartition{}
		}
		r.Sizes[key] = qty
		r.Recompute()
		return nil
	}
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
