package stock

import (
	"context"
	"net/http"

	"shoestock/internal/domain"
	"shoestock/internal/pkg/logger"
	"shoestock/internal/pkg/middleware"
	"shoestock/internal/pkg/respond"
	"shoestock/internal/service/productservice"
	"shoestock/internal/service/stockservice"
)

// StockLedger define as operações administrativas do ledger usadas pelo editor de estoque.
type StockLedger interface {
	AdjustDelta(ctx context.Context, productID, key string, delta int) (domain.Product, error)
	SetAbsolute(ctx context.Context, productID, key string, qty int) (domain.Product, error)
}

// InventoryService lista o inventário por tamanho.
type InventoryService interface {
	ListInventory(ctx context.Context, level productservice.StockLevel) ([]productservice.InventoryRow, error)
}

// UpdateStockRequest é o payload de PUT /v1/stock/update-stock (produtos sem tamanho).
type UpdateStockRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Change    int    `json:"change"`
}

// UpdateSizeRequest é o payload de PUT /v1/stock/update-size.
type UpdateSizeRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Size      string `json:"size" validate:"required"`
	Change    int    `json:"change"`
}

// SetSizeRequest é o payload de PUT /v1/stock/set-size.
type SetSizeRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Size      string `json:"size" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
}

// Handler agrupa todos os métodos de Handler de estoque.
type Handler struct {
	Ledger    StockLedger
	Inventory InventoryService
	Logger    logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o ledger e o Logger.
func NewHandler(ledger StockLedger, inventory InventoryService, log logger.Logger) *Handler {
	return &Handler{Ledger: ledger, Inventory: inventory, Logger: log}
}

func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, successStatus, data)
}

func (h *Handler) audit(r *http.Request, op, productID, key string, value int) {
	fields := map[string]interface{}{"op": op, "product_id": productID, "key": key, "value": value}
	if claims, ok := middleware.GetUserClaimsFromContext(r.Context()); ok {
		fields["admin_id"] = claims.UserID
	}
	h.Logger.Info("Ajuste administrativo de estoque.", fields)
}

// ListInventoryHandler lida com GET /v1/stock?level=low|mid|high.
// @Summary Lista o inventário por tamanho
// @Tags stock
// @Produce json
// @Param level query string false "low (<5), mid (5..20) ou high (>20)"
// @Success 200 {array} productservice.InventoryRow
// @Failure 400 {object} domain.ErrorResponse "Nível desconhecido"
// @Router /stock [get]
func (h *Handler) ListInventoryHandler(w http.ResponseWriter, r *http.Request) {
	level, err := productservice.ParseStockLevel(r.URL.Query().Get("level"))
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}
	rows, err := h.Inventory.ListInventory(r.Context(), level)
	h.handleServiceResponse(w, r, rows, err, http.StatusOK)
}

// UpdateStockHandler lida com PUT /v1/stock/update-stock.
// @Summary Ajusta o estoque total de um produto sem tamanhos
// @Tags stock
// @Accept json
// @Produce json
// @Param request body UpdateStockRequest true "Produto e variação"
// @Success 200 {object} domain.Product "Produto atualizado"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /stock/update-stock [put]
func (h *Handler) UpdateStockHandler(w http.ResponseWriter, r *http.Request) {
	var req UpdateStockRequest
	if err := respond.Decode(r, &req); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	product, err := h.Ledger.AdjustDelta(r.Context(), req.ProductID, stockservice.TotalKey, req.Change)
	if err == nil {
		h.audit(r, "update-stock", req.ProductID, stockservice.TotalKey, req.Change)
	}
	h.handleServiceResponse(w, r, product, err, http.StatusOK)
}

// UpdateSizeHandler lida com PUT /v1/stock/update-size.
// @Summary Ajusta o estoque de um tamanho (relativo)
// @Tags stock
// @Accept json
// @Produce json
// @Param request body UpdateSizeRequest true "Produto, tamanho e variação"
// @Success 200 {object} domain.Product "Produto atualizado"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /stock/update-size [put]
func (h *Handler) UpdateSizeHandler(w http.ResponseWriter, r *http.Request) {
	var req UpdateSizeRequest
	if err := respond.Decode(r, &req); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	product, err := h.Ledger.AdjustDelta(r.Context(), req.ProductID, req.Size, req.Change)
	if err == nil {
		h.audit(r, "update-size", req.ProductID, req.Size, req.Change)
	}
	h.handleServiceResponse(w, r, product, err, http.StatusOK)
}

// SetSizeHandler lida com PUT /v1/stock/set-size.
// @Summary Define o estoque exato de um tamanho
// @Tags stock
// @Accept json
// @Produce json
// @Param request body SetSizeRequest true "Produto, tamanho e quantidade"
// @Success 200 {object} domain.Product "Produto atualizado"
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Router /stock/set-size [put]
func (h *Handler) SetSizeHandler(w http.ResponseWriter, r *http.Request) {
	var req SetSizeRequest
	if err := respond.Decode(r, &req); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	product, err := h.Ledger.SetAbsolute(r.Context(), req.ProductID, req.Size, req.Quantity)
	if err == nil {
		h.audit(r, "set-size", req.ProductID, req.Size, req.Quantity)
	}
	h.handleServiceResponse(w, r, product, err, http.StatusOK)
}
