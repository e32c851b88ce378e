package cartrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shoestock/internal/domain"
	apperror "shoestock/internal/errors"
	"shoestock/internal/pkg/cache"
	"shoestock/internal/pkg/logger"
)

// CartRepository guarda cada carrinho como um documento JSON no Redis, chave "cart:<userID>".
type CartRepository struct {
	Cache  cache.Client
	TTL    time.Duration
	logger logger.Logger
}

// NewCartRepository cria o repositório de carrinhos.
func NewCartRepository(cacheClient cache.Client, ttl time.Duration, log logger.Logger) *CartRepository {
	return &CartRepository{Cache: cacheClient, TTL: ttl, logger: log}
}

func cartKey(userID string) string {
	return fmt.Sprintf("cart:%s", userID)
}

// Get retorna o carrinho do usuário; carrinho inexistente é um carrinho vazio.
func (r *CartRepository) Get(ctx context.Context, userID string) (domain.Cart, error) {
	raw, err := r.Cache.Get(ctx, cartKey(userID))
	if err == cache.ErrCacheMiss {
		return domain.Cart{UserID: userID, Items: []domain.CartItem{}}, nil
	}
	if err != nil {
		return domain.Cart{}, apperror.NewInternalError("falha ao ler carrinho", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		r.logger.Warn("Carrinho corrompido no cache, descartando.", map[string]interface{}{"user_id": userID})
		return domain.Cart{UserID: userID, Items: []domain.CartItem{}}, nil
	}
	return cart, nil
}

// Save sobrescreve o carrinho e renova o TTL.
func (r *CartRepository) Save(ctx context.Context, cart domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return apperror.NewInternalError("falha ao serializar carrinho", err)
	}
	if err := r.Cache.Set(ctx, cartKey(cart.UserID), data, r.TTL); err != nil {
		return apperror.NewInternalError("falha ao gravar carrinho", err)
	}
	return nil
}

// Clear remove o carrinho inteiro.
func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	if err := r.Cache.Delete(ctx, cartKey(userID)); err != nil {
		return apperror.NewInternalError("falha ao limpar carrinho", err)
	}
	return nil
}
