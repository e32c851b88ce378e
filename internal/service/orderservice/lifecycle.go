package orderservice

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"shoestock/internal/domain"
	apperror "shoestock/internal/errors"
	"shoestock/internal/pkg/logger"
)

// Ledger é o subconjunto do ledger de estoque usado pelos pedidos.
type Ledger interface {
	Reserve(ctx context.Context, productID, size string, qty int) (domain.Product, error)
	Restore(ctx context.Context, productID, size string, qty int) (domain.Product, error)
	CreditSold(ctx context.Context, productID string, qty int) (domain.Product, error)
	ReverseSold(ctx context.Context, productID string, qty int) (domain.Product, error)
}

// OrderRepository define o contrato de persistência de pedidos.
type OrderRepository interface {
	Save(ctx context.Context, order domain.Order) (domain.Order, error)
	FindByID(ctx context.Context, id string) (domain.Order, error)
	List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, next domain.OrderStatus, guard domain.StatusGuard) (domain.Order, domain.OrderStatus, error)
}

// Lifecycle é a máquina de estados dos pedidos. Cada transição aceita
// dispara os efeitos de estoque definidos em domain.TransitionEffects.
type Lifecycle struct {
	orders OrderRepository
	ledger Ledger
	logger logger.Logger
	now    func() time.Time
}

// NewLifecycle cria o serviço de ciclo de vida dos pedidos.
func NewLifecycle(orders OrderRepository, ledger Ledger, logger logger.Logger) *Lifecycle {
	return &Lifecycle{orders: orders, ledger: ledger, logger: logger, now: time.Now}
}

// Transition move o pedido para next. O status anterior é lido e validado sob o
// bloqueio do repositório, então dois cancelamentos concorrentes não restauram
// o estoque duas vezes.
func (l *Lifecycle) Transition(ctx context.Context, orderID string, next domain.OrderStatus) (domain.Order, error) {
	order, previous, err := l.orders.UpdateStatus(ctx, orderID, next, func(prev domain.OrderStatus) error {
		if _, ok := domain.TransitionEffects(prev, next); !ok {
			return apperror.NewInvalidTransitionError(string(prev), string(next))
		}
		return nil
	})
	if err != nil {
		l.logger.Debug("Transição de pedido rejeitada.", map[string]interface{}{
			"order_id": orderID,
			"to":       next,
			"error":    err.Error(),
		})
		return domain.Order{}, err
	}

	effects, _ := domain.TransitionEffects(previous, next)
	if err := l.applyEffects(ctx, order, effects); err != nil {
		return order, err
	}

	l.logger.Info("Pedido mudou de status.", map[string]interface{}{
		"order_id": orderID,
		"from":     previous,
		"to":       next,
		"effects":  len(effects),
	})
	return order, nil
}

// applyEffects roda todos os efeitos de todos os itens, mesmo que algum falhe.
// O status já foi gravado; as falhas são registradas e devolvidas juntas.
func (l *Lifecycle) applyEffects(ctx context.Context, order domain.Order, effects []domain.StockEffect) error {
	if len(effects) == 0 {
		return nil
	}
	// A compensação não deve ser interrompida pelo cancelamento da requisição.
	ctx = context.WithoutCancel(ctx)

	var errs []error
	for _, item := range order.Items {
		for _, effect := range effects {
			var err error
			switch effect {
			case domain.EffectCreditSold:
				_, err = l.ledger.CreditSold(ctx, item.ProductID, item.Quantity)
			case domain.EffectRestore:
				_, err = l.ledger.Restore(ctx, item.ProductID, item.Size, item.Quantity)
			case domain.EffectReverseSold:
				_, err = l.ledger.ReverseSold(ctx, item.ProductID, item.Quantity)
			}
			if err != nil {
				l.logger.Error(fmt.Sprintf("Falha ao aplicar efeito %s no pedido %s (produto %s)", effect, order.ID, item.ProductID), err)
				errs = append(errs, fmt.Errorf("%s %s: %w", effect, item.ProductID, err))
			}
		}
	}
	if len(errs) > 0 {
		return apperror.NewInternalError("efeitos de estoque incompletos", stderrors.Join(errs...))
	}
	return nil
}

// Get busca um pedido pelo ID.
func (l *Lifecycle) Get(ctx context.Context, orderID string) (domain.Order, error) {
	return l.orders.FindByID(ctx, orderID)
}

// List lista pedidos conforme o filtro.
func (l *Lifecycle) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	return l.orders.List(ctx, filter)
}

// ExpireStalePending cancela pedidos pendentes criados antes de now-olderThan,
// restaurando o estoque reservado. Não é agendado: o operador decide quando rodar.
func (l *Lifecycle) ExpireStalePending(ctx context.Context, olderThan time.Duration) ([]domain.Order, error) {
	if olderThan <= 0 {
		return nil, apperror.NewValidationError("older_than deve ser positivo.")
	}

	cutoff := l.now().Add(-olderThan)
	stale, err := l.orders.List(ctx, domain.OrderFilter{Status: domain.StatusPending, CreatedBefore: cutoff})
	if err != nil {
		return nil, err
	}

	expired := make([]domain.Order, 0, len(stale))
	for _, o := range stale {
		cancelled, err := l.Transition(ctx, o.ID, domain.StatusCancelled)
		if err != nil {
			var invalid *apperror.InvalidTransitionError
			if stderrors.As(err, &invalid) {
				// Confirmado ou cancelado entre a listagem e a transição.
				continue
			}
			return expired, err
		}
		expired = append(expired, cancelled)
	}

	l.logger.Info("Pedidos pendentes expirados.", map[string]interface{}{
		"cutoff": cutoff.Format(time.RFC3339),
		"count":  len(expired),
	})
	return expired, nil
}
