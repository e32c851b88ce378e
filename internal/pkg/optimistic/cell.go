// Package optimistic implementa edições especulativas reversíveis sobre um valor local.
//
// A célula guarda o último valor confirmado (base) e a fila de edições ainda
// sem resposta. O valor visível é a base com as mutações pendentes aplicadas
// em ordem. Confirmar uma edição troca a base pelo valor do servidor; reverter
// apenas retira a mutação da fila, então uma edição recusada nunca sobrevive
// no valor visível, mesmo com edições sobrepostas.
package optimistic

import (
	"context"
	"sync"
)

// Cell guarda um valor compartilhado entre leitores e edições em andamento.
type Cell[T any] struct {
	mu      sync.RWMutex
	base    T
	visible T
	pending []*Edit[T]
	clone   func(T) T
}

// NewCell cria uma célula. clone deve devolver uma cópia profunda; nil copia por valor.
func NewCell[T any](initial T, clone func(T) T) *Cell[T] {
	if clone == nil {
		clone = func(v T) T { return v }
	}
	c := &Cell[T]{base: clone(initial), clone: clone}
	c.visible = clone(c.base)
	return c
}

// Get retorna uma cópia do valor visível, incluindo edições ainda não confirmadas.
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clone(c.visible)
}

// Confirmed retorna uma cópia do último valor confirmado, sem edições pendentes.
func (c *Cell[T]) Confirmed() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.clone(c.base)
}

// Pending retorna quantas edições aguardam resposta.
func (c *Cell[T]) Pending() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pending)
}

// Set substitui a base sem passar por uma edição. Edições pendentes continuam aplicadas.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = c.clone(v)
	c.recompute()
}

// recompute reaplica as mutações pendentes sobre a base. Exige c.mu travado.
func (c *Cell[T]) recompute() {
	v := c.clone(c.base)
	for _, e := range c.pending {
		v = e.mutate(c.clone(v))
	}
	c.visible = v
}

func (c *Cell[T]) resolve(e *Edit[T], confirmed *T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, p := range c.pending {
		if p == e {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			break
		}
	}
	if confirmed != nil {
		c.base = c.clone(*confirmed)
	}
	c.recompute()
}

// Edit é uma edição especulativa aberta por Begin. Só a primeira chamada
// de Reconcile ou Revert tem efeito.
type Edit[T any] struct {
	cell     *Cell[T]
	mutate   func(T) T
	snapshot T
	once     sync.Once
}

// Begin captura o snapshot e enfileira mutate; o resultado passa a ser o valor visível.
func (c *Cell[T]) Begin(mutate func(T) T) *Edit[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := &Edit[T]{cell: c, mutate: mutate, snapshot: c.clone(c.visible)}
	c.pending = append(c.pending, e)
	c.visible = mutate(c.clone(c.visible))
	return e
}

// Snapshot retorna o valor visível no momento de Begin.
func (e *Edit[T]) Snapshot() T {
	return e.cell.clone(e.snapshot)
}

// Reconcile adota o valor confirmado pelo servidor como base e retira a edição da fila.
func (e *Edit[T]) Reconcile(confirmed T) {
	e.once.Do(func() { e.cell.resolve(e, &confirmed) })
}

// Revert retira a edição da fila. Sem outras edições pendentes o valor volta
// exatamente ao snapshot capturado em Begin.
func (e *Edit[T]) Revert() {
	e.once.Do(func() { e.cell.resolve(e, nil) })
}

// Apply executa o protocolo completo: Begin, commit e então Reconcile ou Revert.
// O valor especulativo fica visível por Get enquanto commit roda.
func Apply[T any](ctx context.Context, c *Cell[T], mutate func(T) T, commit func(ctx context.Context) (T, error)) (T, error) {
	edit := c.Begin(mutate)
	confirmed, err := commit(ctx)
	if err != nil {
		edit.Revert()
		var zero T
		return zero, err
	}
	edit.Reconcile(confirmed)
	return c.Get(), nil
}
