package cart

import (
	"context"
	"net/http"

	"shoestock/internal/domain"
	apperror "shoestock/internal/errors"
	"shoestock/internal/pkg/logger"
	"shoestock/internal/pkg/middleware"
	"shoestock/internal/pkg/respond"
	"shoestock/internal/service/cartservice"
)

// CartService define o contrato que o Handler espera da camada de Serviço.
type CartService interface {
	GetCart(ctx context.Context, userID string) (domain.Cart, error)
	AddItem(ctx context.Context, userID string, in cartservice.ItemInput) (domain.Cart, error)
	UpdateItem(ctx context.Context, userID string, in cartservice.ItemInput) (domain.Cart, error)
	RemoveItem(ctx context.Context, userID string, in cartservice.ItemInput) (domain.Cart, error)
}

// Handler agrupa os handlers do carrinho do usuário autenticado.
type Handler struct {
	Service CartService
	Logger  logger.Logger
}

func NewHandler(svc CartService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

type cartOp func(ctx context.Context, userID string, in cartservice.ItemInput) (domain.Cart, error)

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.GetUserClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, r, h.Logger, apperror.NewUnauthorizedError("Usuário não autenticado."))
		return "", false
	}
	return claims.UserID, true
}

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, op cartOp) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var in cartservice.ItemInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	cart, err := op(r.Context(), userID, in)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, cart)
}

// GetCartHandler lida com GET /v1/cart.
// @Summary Carrinho do usuário
// @Tags cart
// @Produce json
// @Success 200 {object} domain.Cart
// @Router /cart [get]
func (h *Handler) GetCartHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	cart, err := h.Service.GetCart(r.Context(), userID)
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, cart)
}

// AddItemHandler lida com POST /v1/cart/items.
// @Summary Adiciona um item ao carrinho (não reserva estoque)
// @Tags cart
// @Accept json
// @Produce json
// @Param item body cartservice.ItemInput true "Produto, tamanho e quantidade"
// @Success 200 {object} domain.Cart
// @Router /cart/items [post]
func (h *Handler) AddItemHandler(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.Service.AddItem)
}

// UpdateItemHandler lida com PUT /v1/cart/items. Quantidade <= 0 remove a linha.
// @Summary Altera a quantidade de um item do carrinho
// @Tags cart
// @Accept json
// @Produce json
// @Param item body cartservice.ItemInput true "Produto, tamanho e quantidade"
// @Success 200 {object} domain.Cart
// @Router /cart/items [put]
func (h *Handler) UpdateItemHandler(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.Service.UpdateItem)
}

// RemoveItemHandler lida com DELETE /v1/cart/items.
// @Summary Remove um item do carrinho
// @Tags cart
// @Accept json
// @Produce json
// @Param item body cartservice.ItemInput true "Produto e tamanho"
// @Success 200 {object} domain.Cart
// @Router /cart/items [delete]
func (h *Handler) RemoveItemHandler(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.Service.RemoveItem)
}
