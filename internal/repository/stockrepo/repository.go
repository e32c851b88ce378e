package stockrepo

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"shoestock/internal/domain"
	"shoestock/internal/errors"
	"shoestock/internal/pkg/logger"
	"shoestock/internal/repository/productrepo"
	"shoestock/internal/repository/rowid"
)

// maxAttempts é o número de tentativas de MutateStock quando a versão do registro muda no meio.
const maxAttempts = 3

// StockRepository implementa domain.StockStore sobre a tabela products.
type StockRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewStockRepository cria e retorna uma nova instância do Repositório de Estoque.
func NewStockRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *StockRepository {
	return &StockRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// MutateStock aplica fn ao estoque do produto dentro de uma transação, com
// bloqueio de linha (FOR UPDATE) e controle de concorrência otimista (OCC).
// Conflitos de versão são repetidos até maxAttempts vezes.
func (r *StockRepository) MutateStock(ctx context.Context, productID string, fn domain.StockMutation) (domain.Product, error) {
	if !rowid.Valid(productID) {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", productID))
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		product, err := r.mutateOnce(ctx, productID, fn)
		if err == nil {
			return product, nil
		}

		var conflict *errors.ConflictError
		if !stderrors.As(err, &conflict) {
			return domain.Product{}, err
		}
		lastErr = err
		r.logger.Warn("Conflito de versão no estoque, repetindo.", map[string]interface{}{
			"product_id": productID,
			"attempt":    attempt,
		})
	}
	return domain.Product{}, lastErr
}

func (r *StockRepository) mutateOnce(ctx context.Context, productID string, fn domain.StockMutation) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação para atualização de estoque.", err)
		return domain.Product{}, errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback() // Rollback em caso de erro; no-op após Commit

	// 1. Obter o registro atual com FOR UPDATE para bloquear a linha na transação.
	row := tx.QueryRowContext(ctxTimeout, `SELECT `+productrepo.SelectColumns+` FROM products WHERE id = $1 FOR UPDATE`, productID)
	current, err := productrepo.Scan(row)
	if err == sql.ErrNoRows || rowid.IsInvalidText(err) {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", productID))
	}
	if err != nil {
		r.logger.Error("Falha ao selecionar estoque para atualização.", err)
		return domain.Product{}, errors.NewDBError("Falha ao buscar estoque para atualização", err)
	}

	// 2. Aplicar a mutação numa cópia; erro aqui descarta a transação.
	next := current.Stock.Clone()
	if err := fn(&next); err != nil {
		return domain.Product{}, err
	}
	next.Recompute()
	if err := next.Check(); err != nil {
		return domain.Product{}, errors.NewInternalError("mutação de estoque violou invariantes", err)
	}

	sizes, err := productrepo.EncodeSizes(next.Sizes)
	if err != nil {
		return domain.Product{}, errors.NewInternalError("falha ao serializar tamanhos", err)
	}

	// 3. Atualizar com OCC: só grava se a versão lida ainda for a atual.
	now := time.Now()
	result, err := tx.ExecContext(ctxTimeout, `
        UPDATE products
        SET stock_total = $1, size_stocks = $2, sold_count = $3, version = $4, updated_at = $5
        WHERE id = $6 AND version = $7`,
		next.Total,
		sizes,
		next.SoldCount,
		current.Stock.Version+1,
		now,
		productID,
		current.Stock.Version,
	)
	if err != nil {
		r.logger.Error("Falha ao atualizar estoque.", err)
		return domain.Product{}, errors.NewDBError("Falha ao atualizar estoque", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return domain.Product{}, errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return domain.Product{}, errors.NewConflictError("O estoque foi modificado por outra operação. Tente novamente.")
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Falha ao commitar transação de atualização de estoque.", err)
		return domain.Product{}, errors.NewDBError("Falha ao commitar transação", err)
	}

	next.Version = current.Stock.Version + 1
	current.Stock = next
	current.UpdatedAt = now

	r.logger.Debug("Estoque atualizado.", map[string]interface{}{
		"product_id":  productID,
		"total":       next.Total,
		"sold_count":  next.SoldCount,
		"new_version": next.Version,
	})
	return current, nil
}
