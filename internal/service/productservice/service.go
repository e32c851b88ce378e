package productservice

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"shoestock/internal/domain"
	apperror "shoestock/internal/errors"
	"shoestock/internal/pkg/logger"
)

const (
	maxPageLimit  = 100
	lowStockLimit = 3 // produtos com estoque total <= 3 entram em "lowStock"
	topSellingN   = 5
)

// ProductRepository define o contrato que este Serviço espera da camada de persistência.
type ProductRepository interface {
	Save(ctx context.Context, product domain.Product) (domain.Product, error)
	FindByID(ctx context.Context, id string) (domain.Product, error)
	FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
}

// OrderLister é usado apenas pelas estatísticas do painel.
type OrderLister interface {
	List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
}

// Service é o colaborador de catálogo: cadastro, leitura, inventário e estatísticas.
type Service struct {
	repo   ProductRepository
	orders OrderLister
	logger logger.Logger
	now    func() time.Time
}

// NewService cria o serviço de produto. orders pode ser nil quando Stats não é usado.
func NewService(repo ProductRepository, orders OrderLister, logger logger.Logger) *Service {
	return &Service{repo: repo, orders: orders, logger: logger, now: time.Now}
}

// CreateProductInput é o payload de POST /v1/products.
// Sizes preenchido torna o produto controlado por tamanho; caso contrário vale Stock.
type CreateProductInput struct {
	ID          string          `json:"id"`
	Name        string          `json:"name" validate:"required"`
	Brand       string          `json:"brand"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	Price       decimal.Decimal `json:"price"`
	Discount    int             `json:"discount" validate:"gte=0,lte=100"`
	IsActive    *bool           `json:"is_active"`
	Sizes       map[string]int  `json:"sizes"`
	Stock       int             `json:"stock" validate:"gte=0"`
}

// CreateProduct valida e persiste um produto novo com seu estoque inicial.
func (s *Service) CreateProduct(ctx context.Context, in CreateProductInput) (domain.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Product{}, apperror.NewValidationError("O nome do produto é obrigatório.")
	}
	if !in.Price.IsPositive() {
		return domain.Product{}, apperror.NewValidationError("O preço do produto deve ser positivo.")
	}
	if in.Discount < 0 || in.Discount > 100 {
		return domain.Product{}, apperror.NewValidationError("O desconto deve estar entre 0 e 100.")
	}

	stock := domain.StockRecord{Version: 1}
	if len(in.Sizes) > 0 {
		stock.SizeTracked = true
		stock.Sizes = make(domain.SizePartition, len(in.Sizes))
		for size, qty := range in.Sizes {
			size = strings.TrimSpace(size)
			if size == "" {
				return domain.Product{}, apperror.NewValidationError("Tamanho vazio não é permitido.")
			}
			if qty < 0 {
				return domain.Product{}, apperror.NewValidationError(fmt.Sprintf("Estoque negativo no tamanho %s.", size))
			}
			stock.Sizes[size] = qty
		}
		if in.Stock != 0 && in.Stock != stock.Sizes.Sum() {
			s.logger.Warn("Estoque total informado ignorado; prevalece a soma dos tamanhos.", map[string]interface{}{
				"informed": in.Stock,
				"sum":      stock.Sizes.Sum(),
			})
		}
	} else {
		if in.Stock < 0 {
			return domain.Product{}, apperror.NewValidationError("O estoque não pode ser negativo.")
		}
		stock.Total = in.Stock
	}
	stock.Recompute()

	product := domain.Product{
		ID:          in.ID,
		Name:        name,
		Brand:       in.Brand,
		Category:    in.Category,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		Price:       in.Price,
		Discount:    in.Discount,
		IsActive:    in.IsActive == nil || *in.IsActive,
		Stock:       stock,
	}
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	now := s.now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	created, err := s.repo.Save(ctx, product)
	if err != nil {
		return domain.Product{}, fmt.Errorf("falha ao salvar produto no repositório: %w", err)
	}

	s.logger.Info("Produto cadastrado.", map[string]interface{}{
		"product_id":   created.ID,
		"size_tracked": created.Stock.SizeTracked,
		"stock_total":  created.Stock.Total,
	})
	return created, nil
}

// GetProductByID busca um produto do catálogo.
func (s *Service) GetProductByID(ctx context.Context, id string) (domain.Product, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Product{}, apperror.NewValidationError("O ID do produto é obrigatório.")
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		var notFound *apperror.NotFoundError
		if errors.As(err, &notFound) {
			return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não foi encontrado.", id))
		}
		return domain.Product{}, err
	}
	return product, nil
}

// GetProducts lista o catálogo com paginação. Filtros aceitos: "name" e "is_active".
func (s *Service) GetProducts(ctx context.Context, page, limit int, filters map[string]string) ([]domain.Product, error) {
	if page < 1 {
		page = 1
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if limit < 0 {
		limit = 0
	}

	filter := domain.ProductFilter{Page: page, Limit: limit}
	if name, ok := filters["name"]; ok {
		filter.Name = name
	}
	if active, ok := filters["is_active"]; ok && active == "true" {
		filter.ActiveOnly = true
	}

	products, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("Falha ao buscar produtos no repositório", err)
		return nil, apperror.NewInternalError("Falha interna ao buscar produtos.", err)
	}
	return products, nil
}

// StockLevel classifica a quantidade de um tamanho no inventário.
type StockLevel string

const (
	LevelLow  StockLevel = "low"  // < 5
	LevelMid  StockLevel = "mid"  // 5..20
	LevelHigh StockLevel = "high" // > 20
)

// ParseStockLevel aceita "" (todos), low, mid ou high.
func ParseStockLevel(raw string) (StockLevel, error) {
	switch l := StockLevel(strings.ToLower(strings.TrimSpace(raw))); l {
	case "", LevelLow, LevelMid, LevelHigh:
		return l, nil
	default:
		return "", apperror.NewValidationError(fmt.Sprintf("Nível de estoque desconhecido: %s", raw))
	}
}

func levelOf(qty int) StockLevel {
	switch {
	case qty < 5:
		return LevelLow
	case qty <= 20:
		return LevelMid
	default:
		return LevelHigh
	}
}

// InventoryRow é uma linha do inventário: um par (produto, tamanho).
// Produtos sem tamanho aparecem com Size vazio e o total.
type InventoryRow struct {
	ProductID string     `json:"product_id"`
	Name      string     `json:"name"`
	Size      string     `json:"size,omitempty"`
	Quantity  int        `json:"quantity"`
	Level     StockLevel `json:"level"`
	Version   int        `json:"version"`
}

// ListInventory achata o catálogo em linhas por tamanho, filtradas pelo nível.
func (s *Service) ListInventory(ctx context.Context, level StockLevel) ([]InventoryRow, error) {
	products, err := s.repo.FindAll(ctx, domain.ProductFilter{})
	if err != nil {
		return nil, apperror.NewInternalError("Falha interna ao listar inventário.", err)
	}

	rows := make([]InventoryRow, 0, len(products))
	for _, p := range products {
		if p.Stock.SizeTracked {
			for _, size := range p.Stock.Sizes.Keys() {
				qty := p.Stock.Sizes[size]
				if level != "" && levelOf(qty) != level {
					continue
				}
				rows = append(rows, InventoryRow{ProductID: p.ID, Name: p.Name, Size: size, Quantity: qty, Level: levelOf(qty), Version: p.Stock.Version})
			}
			continue
		}
		if level != "" && levelOf(p.Stock.Total) != level {
			continue
		}
		rows = append(rows, InventoryRow{ProductID: p.ID, Name: p.Name, Quantity: p.Stock.Total, Level: levelOf(p.Stock.Total), Version: p.Stock.Version})
	}
	return rows, nil
}

// ProductSummary é a forma resumida usada nas listas do painel.
type ProductSummary struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Stock     int             `json:"stock"`
	SoldCount int             `json:"sold_count"`
	Price     decimal.Decimal `json:"price"`
}

// Stats é o painel do administrador.
type Stats struct {
	ProductCount int              `json:"product_count"`
	OrderCount   int              `json:"order_count"`
	Revenue      decimal.Decimal  `json:"revenue"`
	TotalStock   int              `json:"total_stock"`
	LowStock     []ProductSummary `json:"low_stock"`
	TopSelling   []ProductSummary `json:"top_selling"`
}

// revenueStatuses são os status cujo total conta como receita.
var revenueStatuses = map[domain.OrderStatus]bool{
	domain.StatusConfirmed: true,
	domain.StatusShipping:  true,
	domain.StatusDone:      true,
}

// Stats agrega catálogo e pedidos para o painel.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	if s.orders == nil {
		return Stats{}, apperror.NewInternalError("estatísticas sem acesso a pedidos", nil)
	}

	products, err := s.repo.FindAll(ctx, domain.ProductFilter{})
	if err != nil {
		return Stats{}, apperror.NewInternalError("Falha interna ao calcular estatísticas.", err)
	}
	orders, err := s.orders.List(ctx, domain.OrderFilter{})
	if err != nil {
		return Stats{}, apperror.NewInternalError("Falha interna ao calcular estatísticas.", err)
	}

	st := Stats{
		ProductCount: len(products),
		OrderCount:   len(orders),
		Revenue:      decimal.Zero,
		LowStock:     []ProductSummary{},
		TopSelling:   []ProductSummary{},
	}
	for _, o := range orders {
		if revenueStatuses[o.Status] {
			st.Revenue = st.Revenue.Add(o.Total)
		}
	}

	summaries := make([]ProductSummary, 0, len(products))
	for _, p := range products {
		sum := ProductSummary{ID: p.ID, Name: p.Name, Stock: p.Stock.Total, SoldCount: p.Stock.SoldCount, Price: p.Price}
		summaries = append(summaries, sum)
		st.TotalStock += p.Stock.Total
		if p.Stock.Total <= lowStockLimit {
			st.LowStock = append(st.LowStock, sum)
		}
	}

	sort.SliceStable(summaries, func(i, j int) bool { return summaries[i].SoldCount > summaries[j].SoldCount })
	if len(summaries) > topSellingN {
		summaries = summaries[:topSellingN]
	}
	st.TopSelling = summaries
	return st, nil
}
