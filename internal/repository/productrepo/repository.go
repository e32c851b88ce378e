package productrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"shoestock/internal/domain"
	"shoestock/internal/errors"
	"shoestock/internal/pkg/cache"
	"shoestock/internal/pkg/logger"
	"shoestock/internal/repository/rowid"
)

// ProductRepository persiste o catálogo no PostgreSQL com leitura cache-aside no Redis.
type ProductRepository struct {
	DB        *sql.DB      // Conexão principal com o banco de dados (PostgreSQL)
	Cache     cache.Client // Cliente para operações de cache (Redis)
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewProductRepository cria e retorna uma nova instância do Repositório.
// Aqui injetamos as dependências de Infraestrutura (DB e Cache).
func NewProductRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, log logger.Logger) *ProductRepository {
	return &ProductRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    log,
	}
}

// CacheKey é a chave de cache de um produto. O ledger invalida esta chave após cada mutação.
func CacheKey(id string) string {
	return fmt.Sprintf("product:%s", id)
}

// SelectColumns é a lista de colunas lida por Scan, na mesma ordem.
const SelectColumns = `id, name, brand, category, description, image_url, price, discount, is_active,
	stock_total, size_stocks, size_tracked, sold_count, version, created_at, updated_at`

// RowScanner abstrai *sql.Row e *sql.Rows.
type RowScanner interface {
	Scan(dest ...interface{}) error
}

// Scan mapeia uma linha de products para domain.Product.
func Scan(row RowScanner) (domain.Product, error) {
	var p domain.Product
	var sizes []byte
	err := row.Scan(
		&p.ID, &p.Name, &p.Brand, &p.Category, &p.Description, &p.ImageURL,
		&p.Price, &p.Discount, &p.IsActive,
		&p.Stock.Total, &sizes, &p.Stock.SizeTracked, &p.Stock.SoldCount, &p.Stock.Version,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.Product{}, err
	}
	p.Stock.Sizes = domain.SizePartition{}
	if len(sizes) > 0 {
		if err := json.Unmarshal(sizes, &p.Stock.Sizes); err != nil {
			return domain.Product{}, fmt.Errorf("size_stocks corrompido no produto %s: %w", p.ID, err)
		}
	}
	return p, nil
}

// EncodeSizes serializa a partição para a coluna JSONB.
func EncodeSizes(sizes domain.SizePartition) ([]byte, error) {
	if sizes == nil {
		sizes = domain.SizePartition{}
	}
	return json.Marshal(sizes)
}

// Save persiste um novo Produto, incluindo o estoque inicial.
func (r *ProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	sizes, err := EncodeSizes(product.Stock.Sizes)
	if err != nil {
		return domain.Product{}, errors.NewInternalError("falha ao serializar tamanhos", err)
	}

	const productSQL = `INSERT INTO products (id, name, brand, category, description, image_url, price, discount, is_active,
		stock_total, size_stocks, size_tracked, sold_count, version, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`

	_, err = r.DB.ExecContext(ctxTimeout, productSQL,
		product.ID,
		product.Name,
		product.Brand,
		product.Category,
		product.Description,
		product.ImageURL,
		product.Price,
		product.Discount,
		product.IsActive,
		product.Stock.Total,
		sizes,
		product.Stock.SizeTracked,
		product.Stock.SoldCount,
		product.Stock.Version,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir produto no DB.", err)
		return domain.Product{}, errors.NewDBError("failed to insert product", err)
	}

	r.logger.Info("Produto salvo com sucesso.", map[string]interface{}{"product_id": product.ID})
	return product, nil
}

// FindByID busca um produto pelo ID, utilizando a estratégia Cache-Aside.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	if !rowid.Valid(id) {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}

	ctxGo, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := CacheKey(id)

	// --- Estratégia Cache-Aside (READ) ---
	cachedData, err := r.Cache.Get(ctxGo, key)
	if err == nil {
		var product domain.Product
		if json.Unmarshal([]byte(cachedData), &product) == nil {
			return product, nil
		}
		r.logger.Warn("Entrada de cache inválida, consultando o DB.", map[string]interface{}{"key": key})
	} else if err != cache.ErrCacheMiss {
		// Erro real de cache (ex: conexão perdida): seguimos para o DB.
		r.logger.Warn("Falha ao ler do cache Redis.", map[string]interface{}{"key": key, "error": err.Error()})
	}

	row := r.DB.QueryRowContext(ctxGo, `SELECT `+SelectColumns+` FROM products WHERE id = $1`, id)
	product, err := Scan(row)
	if err == sql.ErrNoRows || rowid.IsInvalidText(err) {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}
	if err != nil {
		return domain.Product{}, errors.NewDBError("Falha ao buscar produto no DB", err)
	}

	// --- Estratégia Cache-Aside (WRITE) ---
	if productJSON, marshalErr := json.Marshal(product); marshalErr == nil {
		if setErr := r.Cache.Set(ctxGo, key, productJSON, r.CacheTTL); setErr != nil {
			r.logger.Warn("Falha ao gravar produto no cache.", map[string]interface{}{"key": key, "error": setErr.Error()})
		}
	}

	return product, nil
}

// FindAll lista produtos com filtro opcional por nome e paginação.
// Limit <= 0 retorna todos.
func (r *ProductRepository) FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var (
		where []string
		args  []interface{}
	)
	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		where = append(where, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if filter.ActiveOnly {
		where = append(where, "is_active = TRUE")
	}

	query := `SELECT ` + SelectColumns + ` FROM products`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		args = append(args, filter.Limit, (page-1)*filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		return nil, errors.NewDBError("Falha ao listar produtos", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := Scan(rows)
		if err != nil {
			return nil, errors.NewDBError("Falha ao ler produto", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar produtos", err)
	}
	return products, nil
}
