package order

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"shoestock/internal/domain"
	apperror "shoestock/internal/errors"
	"shoestock/internal/pkg/logger"
	"shoestock/internal/pkg/middleware"
	"shoestock/internal/pkg/respond"
	"shoestock/internal/service/orderservice"
)

const defaultExpireAfter = 24 * time.Hour

// OrderCreator é o pipeline de criação de pedidos.
type OrderCreator interface {
	CreateOrder(ctx context.Context, in orderservice.CreateOrderInput) (orderservice.CreateOrderResult, error)
}

// OrderLifecycle lê pedidos e aplica transições de status.
type OrderLifecycle interface {
	Get(ctx context.Context, orderID string) (domain.Order, error)
	List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
	Transition(ctx context.Context, orderID string, next domain.OrderStatus) (domain.Order, error)
	ExpireStalePending(ctx context.Context, olderThan time.Duration) ([]domain.Order, error)
}

// StatusRequest é o payload de PUT /v1/orders/{id}/status.
type StatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// Handler agrupa os handlers de pedido do cliente e do administrador.
type Handler struct {
	Creator   OrderCreator
	Lifecycle OrderLifecycle
	Logger    logger.Logger
}

func NewHandler(creator OrderCreator, lifecycle OrderLifecycle, log logger.Logger) *Handler {
	return &Handler{Creator: creator, Lifecycle: lifecycle, Logger: log}
}

func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, successStatus, data)
}

func parseStatus(raw string) (domain.OrderStatus, error) {
	status, ok := domain.ParseOrderStatus(raw)
	if !ok {
		return "", apperror.NewValidationError(fmt.Sprintf("Status desconhecido: %s", raw))
	}
	return status, nil
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// CreateOrderHandler lida com POST /v1/orders.
// @Summary Cria um pedido a partir dos itens informados
// @Description Valida, reserva o estoque item a item e persiste o pedido como pending. Para vnpay retorna payment_url.
// @Tags orders
// @Accept json
// @Produce json
// @Param order body orderservice.CreateOrderInput true "Pedido"
// @Success 201 {object} orderservice.CreateOrderResult
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse "Produto inexistente"
// @Failure 409 {object} domain.ErrorResponse "OUT_OF_STOCK"
// @Router /orders [post]
func (h *Handler) CreateOrderHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserClaimsFromContext(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Usuário não autenticado."), http.StatusCreated)
		return
	}

	var in orderservice.CreateOrderInput
	if err := respond.Decode(r, &in); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}
	in.UserID = claims.UserID
	in.ClientIP = clientIP(r)

	result, err := h.Creator.CreateOrder(r.Context(), in)
	h.handleServiceResponse(w, r, result, err, http.StatusCreated)
}

// MyOrdersHandler lida com GET /v1/orders/mine.
// @Summary Lista os pedidos do usuário autenticado
// @Tags orders
// @Produce json
// @Success 200 {array} domain.Order
// @Router /orders/mine [get]
func (h *Handler) MyOrdersHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserClaimsFromContext(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Usuário não autenticado."), http.StatusOK)
		return
	}
	orders, err := h.Lifecycle.List(r.Context(), domain.OrderFilter{UserID: claims.UserID})
	h.handleServiceResponse(w, r, orders, err, http.StatusOK)
}

// GetOrderHandler lida com GET /v1/orders/{id}. Apenas o dono ou um admin.
// @Summary Busca um pedido
// @Tags orders
// @Produce json
// @Param id path string true "ID do pedido"
// @Success 200 {object} domain.Order
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /orders/{id} [get]
func (h *Handler) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserClaimsFromContext(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Usuário não autenticado."), http.StatusOK)
		return
	}

	order, err := h.Lifecycle.Get(r.Context(), chi.URLParam(r, "id"))
	if err == nil && order.UserID != claims.UserID && !claims.IsAdmin() {
		err = apperror.NewForbiddenError("Pedido pertence a outro usuário.")
	}
	h.handleServiceResponse(w, r, order, err, http.StatusOK)
}

// AdminListHandler lida com GET /v1/admin/orders?status=&limit=.
// @Summary Lista pedidos (admin)
// @Tags admin
// @Produce json
// @Param status query string false "Filtro de status"
// @Param limit query int false "Máximo de pedidos"
// @Success 200 {array} domain.Order
// @Router /admin/orders [get]
func (h *Handler) AdminListHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.OrderFilter{}
	if raw := q.Get("status"); raw != "" {
		status, err := parseStatus(raw)
		if err != nil {
			h.handleServiceResponse(w, r, nil, err, http.StatusOK)
			return
		}
		filter.Status = status
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}

	orders, err := h.Lifecycle.List(r.Context(), filter)
	h.handleServiceResponse(w, r, orders, err, http.StatusOK)
}

// UpdateStatusHandler lida com PUT /v1/orders/{id}/status.
// @Summary Altera o status de um pedido (admin)
// @Description Aplica a transição e seus efeitos de estoque. Retorna o pedido atualizado.
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "ID do pedido"
// @Param request body StatusRequest true "Novo status"
// @Success 200 {object} domain.Order
// @Failure 409 {object} domain.ErrorResponse "INVALID_TRANSITION"
// @Router /orders/{id}/status [put]
func (h *Handler) UpdateStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := respond.Decode(r, &req); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	next, err := parseStatus(req.Status)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	orderID := chi.URLParam(r, "id")
	order, err := h.Lifecycle.Transition(r.Context(), orderID, next)
	if err == nil {
		fields := map[string]interface{}{"order_id": orderID, "status": next}
		if claims, ok := middleware.GetUserClaimsFromContext(r.Context()); ok {
			fields["admin_id"] = claims.UserID
		}
		h.Logger.Info("Status de pedido alterado pelo painel.", fields)
	}
	h.handleServiceResponse(w, r, order, err, http.StatusOK)
}

// ExpirePendingHandler lida com POST /v1/admin/orders/expire-pending?older_than=24h.
// @Summary Cancela pedidos pendentes antigos, devolvendo o estoque
// @Tags admin
// @Produce json
// @Param older_than query string false "Duração Go (ex.: 24h, 90m). Padrão 24h"
// @Success 200 {array} domain.Order "Pedidos cancelados"
// @Router /admin/orders/expire-pending [post]
func (h *Handler) ExpirePendingHandler(w http.ResponseWriter, r *http.Request) {
	olderThan := defaultExpireAfter
	if raw := r.URL.Query().Get("older_than"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			h.handleServiceResponse(w, r, nil, apperror.NewValidationError("older_than inválido: use uma duração como 24h."), http.StatusOK)
			return
		}
		olderThan = d
	}

	expired, err := h.Lifecycle.ExpireStalePending(r.Context(), olderThan)
	h.handleServiceResponse(w, r, expired, err, http.StatusOK)
}
