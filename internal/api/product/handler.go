package product

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"shoestock/internal/domain"
	"shoestock/internal/pkg/logger"
	"shoestock/internal/pkg/middleware"
	"shoestock/internal/pkg/respond"
	"shoestock/internal/service/productservice"
)

// ProductService define o contrato que o Handler espera da camada de Serviço.
type ProductService interface {
	CreateProduct(ctx context.Context, in productservice.CreateProductInput) (domain.Product, error)
	GetProductByID(ctx context.Context, id string) (domain.Product, error)
	GetProducts(ctx context.Context, page, limit int, filters map[string]string) ([]domain.Product, error)
	Stats(ctx context.Context) (productservice.Stats, error)
}

// Handler agrupa todos os métodos de Handler do produto.
type Handler struct {
	Service ProductService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ProductService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	h.Logger.Debug("Requisição concluída com sucesso", map[string]interface{}{
		"method": r.Method,
		"path":   r.URL.Path,
		"status": successStatus,
	})
	respond.JSON(w, h.Logger, successStatus, data)
}

// CreateProductHandler lida com a requisição POST /v1/products.
// @Summary Cadastra um produto com estoque inicial
// @Tags products
// @Accept json
// @Produce json
// @Param product body productservice.CreateProductInput true "Produto"
// @Success 201 {object} domain.Product
// @Failure 400 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "ID já existe"
// @Router /products [post]
func (h *Handler) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if claims, ok := middleware.GetUserClaimsFromContext(ctx); ok {
		h.Logger.Info("Tentativa de criação de produto por", map[string]interface{}{
			"user_id": claims.UserID,
			"role":    claims.Role,
		})
	}

	var in productservice.CreateProductInput
	if err := respond.Decode(r, &in); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}

	newProduct, err := h.Service.CreateProduct(ctx, in)
	h.handleServiceResponse(w, r, newProduct, err, http.StatusCreated)
}

// GetProductByIDHandler lida com a requisição GET /v1/products/{id}.
// @Summary Busca um produto
// @Tags products
// @Produce json
// @Param id path string true "ID do produto"
// @Success 200 {object} domain.Product
// @Failure 404 {object} domain.ErrorResponse
// @Router /products/{id} [get]
func (h *Handler) GetProductByIDHandler(w http.ResponseWriter, r *http.Request) {
	product, err := h.Service.GetProductByID(r.Context(), chi.URLParam(r, "id"))
	h.handleServiceResponse(w, r, product, err, http.StatusOK)
}

// ListProductsHandler lida com GET /v1/products?page=&limit=&name=&is_active=.
// @Summary Lista o catálogo
// @Tags products
// @Produce json
// @Param page query int false "Página (1..)"
// @Param limit query int false "Itens por página (máx. 100)"
// @Param name query string false "Filtro por nome"
// @Param is_active query bool false "Somente ativos"
// @Success 200 {array} domain.Product
// @Router /products [get]
func (h *Handler) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil {
		limit = 10
	}

	filters := map[string]string{}
	for _, key := range []string{"name", "is_active"} {
		if v := q.Get(key); v != "" {
			filters[key] = v
		}
	}

	products, err := h.Service.GetProducts(r.Context(), page, limit, filters)
	h.handleServiceResponse(w, r, products, err, http.StatusOK)
}

// StatsHandler lida com GET /v1/admin/stats.
// @Summary Estatísticas do painel administrativo
// @Tags admin
// @Produce json
// @Success 200 {object} productservice.Stats
// @Router /admin/stats [get]
func (h *Handler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	h.handleServiceResponse(w, r, stats, err, http.StatusOK)
}
