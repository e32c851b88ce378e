package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"shoestock/internal/domain"
	apperror "shoestock/internal/errors"
)

// OrderStore guarda pedidos em memória. Um único mutex torna UpdateStatus atômico.
type OrderStore struct {
	mu     sync.Mutex
	orders map[string]domain.Order
}

// NewOrderStore cria um OrderStore vazio.
func NewOrderStore() *OrderStore {
	return &OrderStore{orders: make(map[string]domain.Order)}
}

func cloneOrder(o domain.Order) domain.Order {
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	return o
}

func (s *OrderStore) Save(_ context.Context, order domain.Order) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[order.ID]; exists {
		return domain.Order{}, apperror.NewConflictError(fmt.Sprintf("pedido %s já existe", order.ID))
	}
	s.orders[order.ID] = cloneOrder(order)
	return cloneOrder(order), nil
}

func (s *OrderStore) FindByID(_ context.Context, id string) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return domain.Order{}, apperror.NewNotFoundError(fmt.Sprintf("Pedido %s não encontrado", id))
	}
	return cloneOrder(o), nil
}

func (s *OrderStore) List(_ context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	s.mu.Lock()
	out := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if filter.UserID != "" && o.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if !filter.CreatedBefore.IsZero() && !o.CreatedAt.Before(filter.CreatedBefore) {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *OrderStore) UpdateStatus(_ context.Context, id string, next domain.OrderStatus, guard domain.StatusGuard) (domain.Order, domain.OrderStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return domain.Order{}, "", apperror.NewNotFoundError(fmt.Sprintf("Pedido %s não encontrado", id))
	}
	previous := o.Status
	if guard != nil {
		if err := guard(previous); err != nil {
			return cloneOrder(o), previous, err
		}
	}
	o.Status = next
	o.UpdatedAt = time.Now()
	s.orders[id] = o
	return cloneOrder(o), previous, nil
}

// Replace sobrescreve um pedido existente sem passar pela máquina de estados.
// Usado por seeds e cenários de teste.
func (s *OrderStore) Replace(order domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[order.ID]; !ok {
		return apperror.NewNotFoundError(fmt.Sprintf("Pedido %s não encontrado", order.ID))
	}
	s.orders[order.ID] = cloneOrder(order)
	return nil
}
