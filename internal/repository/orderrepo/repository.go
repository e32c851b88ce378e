package orderrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"shoestock/internal/domain"
	"shoestock/internal/errors"
	"shoestock/internal/pkg/logger"
	"shoestock/internal/repository/rowid"
)

// OrderRepository persiste pedidos no PostgreSQL. Os itens ficam numa coluna JSONB
// porque são snapshots imutáveis do momento da compra.
type OrderRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewOrderRepository cria uma nova instância do OrderRepository, injetando o DB.
func NewOrderRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *OrderRepository {
	return &OrderRepository{DB: db, DBTimeout: dbTimeout, logger: logger}
}

const orderColumns = `id, user_id, items, total, status, payment_method, name, phone, address, note, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var o domain.Order
	var items []byte
	err := row.Scan(&o.ID, &o.UserID, &items, &o.Total, &o.Status, &o.PaymentMethod,
		&o.Name, &o.Phone, &o.Address, &o.Note, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return domain.Order{}, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return domain.Order{}, fmt.Errorf("itens corrompidos no pedido %s: %w", o.ID, err)
	}
	return o, nil
}

// Save insere um novo pedido.
func (r *OrderRepository) Save(ctx context.Context, order domain.Order) (domain.Order, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	items, err := json.Marshal(order.Items)
	if err != nil {
		return domain.Order{}, errors.NewInternalError("falha ao serializar itens do pedido", err)
	}

	_, err = r.DB.ExecContext(ctxTimeout, `INSERT INTO orders (`+orderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		order.ID, order.UserID, items, order.Total, order.Status, order.PaymentMethod,
		order.Name, order.Phone, order.Address, order.Note, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir pedido no DB.", err)
		return domain.Order{}, errors.NewDBError("failed to insert order", err)
	}

	r.logger.Info("Pedido salvo.", map[string]interface{}{"order_id": order.ID, "user_id": order.UserID})
	return order, nil
}

// FindByID busca um pedido pelo ID.
func (r *OrderRepository) FindByID(ctx context.Context, id string) (domain.Order, error) {
	if !rowid.Valid(id) {
		return domain.Order{}, errors.NewNotFoundError(fmt.Sprintf("Pedido %s não encontrado", id))
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	o, err := scanOrder(r.DB.QueryRowContext(ctxTimeout, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err == sql.ErrNoRows || rowid.IsInvalidText(err) {
		return domain.Order{}, errors.NewNotFoundError(fmt.Sprintf("Pedido %s não encontrado", id))
	}
	if err != nil {
		return domain.Order{}, errors.NewDBError("Falha ao buscar pedido", err)
	}
	return o, nil
}

// List retorna pedidos do mais recente para o mais antigo, conforme o filtro.
func (r *OrderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var (
		where []string
		args  []interface{}
	)
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if !filter.CreatedBefore.IsZero() {
		args = append(args, filter.CreatedBefore)
		where = append(where, fmt.Sprintf("created_at < $%d", len(args)))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		return nil, errors.NewDBError("Falha ao listar pedidos", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, errors.NewDBError("Falha ao ler pedido", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar pedidos", err)
	}
	return orders, nil
}

// UpdateStatus bloqueia a linha do pedido, entrega o status anterior ao guard e,
// se aceito, grava o novo status. Retorna o pedido atualizado e o status anterior.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, next domain.OrderStatus, guard domain.StatusGuard) (domain.Order, domain.OrderStatus, error) {
	if !rowid.Valid(id) {
		return domain.Order{}, "", errors.NewNotFoundError(fmt.Sprintf("Pedido %s não encontrado", id))
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return domain.Order{}, "", errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	order, err := scanOrder(tx.QueryRowContext(ctxTimeout, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err == sql.ErrNoRows || rowid.IsInvalidText(err) {
		return domain.Order{}, "", errors.NewNotFoundError(fmt.Sprintf("Pedido %s não encontrado", id))
	}
	if err != nil {
		return domain.Order{}, "", errors.NewDBError("Falha ao bloquear pedido", err)
	}

	previous := order.Status
	if guard != nil {
		if err := guard(previous); err != nil {
			return order, previous, err
		}
	}

	now := time.Now()
	if _, err := tx.ExecContext(ctxTimeout, `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`, next, now, id); err != nil {
		r.logger.Error("Falha ao atualizar status do pedido.", err)
		return domain.Order{}, "", errors.NewDBError("Falha ao atualizar status do pedido", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Order{}, "", errors.NewDBError("Falha ao commitar transação", err)
	}

	order.Status = next
	order.UpdatedAt = now
	return order, previous, nil
}
