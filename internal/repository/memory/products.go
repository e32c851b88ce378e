// Package memory contém implementações em memória dos repositórios,
// usadas com STORAGE_DRIVER=memory e nos testes de serviço.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"shoestock/internal/domain"
	apperror "shoestock/internal/errors"
)

type productEntry struct {
	mu      sync.Mutex // serializa MutateStock por produto
	product domain.Product
}

// ProductStore guarda o catálogo e implementa domain.StockStore com um mutex por produto.
type ProductStore struct {
	mu      sync.RWMutex // protege apenas o mapa
	entries map[string]*productEntry
}

// NewProductStore cria um catálogo vazio.
func NewProductStore() *ProductStore {
	return &ProductStore{entries: make(map[string]*productEntry)}
}

func cloneProduct(p domain.Product) domain.Product {
	p.Stock = p.Stock.Clone()
	return p
}

func (s *ProductStore) entry(id string) (*productEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	return e, ok
}

// Save insere um produto. ID repetido é um conflito.
func (s *ProductStore) Save(_ context.Context, product domain.Product) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[product.ID]; exists {
		return domain.Product{}, apperror.NewConflictError(fmt.Sprintf("produto %s já existe", product.ID))
	}
	s.entries[product.ID] = &productEntry{product: cloneProduct(product)}
	return cloneProduct(product), nil
}

// FindByID retorna uma cópia do produto.
func (s *ProductStore) FindByID(_ context.Context, id string) (domain.Product, error) {
	e, ok := s.entry(id)
	if !ok {
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe.", id))
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneProduct(e.product), nil
}

// FindAll lista os produtos, mais recentes primeiro.
func (s *ProductStore) FindAll(_ context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	s.mu.RLock()
	entries := make([]*productEntry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]domain.Product, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		p := cloneProduct(e.product)
		e.mu.Unlock()

		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		if filter.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Name)) {
			continue
		}
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * filter.Limit
		if start >= len(out) {
			return []domain.Product{}, nil
		}
		end := start + filter.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	return out, nil
}

// MutateStock aplica fn sob o mutex do produto. Se fn falhar, o registro não muda.
func (s *ProductStore) MutateStock(_ context.Context, productID string, fn domain.StockMutation) (domain.Product, error) {
	e, ok := s.entry(productID)
	if !ok {
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe.", productID))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.product.Stock.Clone()
	if err := fn(&next); err != nil {
		return domain.Product{}, err
	}
	next.Recompute()
	if err := next.Check(); err != nil {
		return domain.Product{}, apperror.NewInternalError("mutação de estoque violou invariantes", err)
	}
	next.Version = e.product.Stock.Version + 1

	e.product.Stock = next
	e.product.UpdatedAt = time.Now()
	return cloneProduct(e.product), nil
}
