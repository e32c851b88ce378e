package optimistic

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cloneMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func TestApply_VisibleBeforeCommitReturns(t *testing.T) {
	c := NewCell(5, nil)

	got, err := Apply(context.Background(), c, func(v int) int { return v + 3 }, func(context.Context) (int, error) {
		assert.Equal(t, 8, c.Get(), "valor especulativo visível durante o commit")
		return 9, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 9, got, "valor do servidor prevalece")
	assert.Equal(t, 9, c.Get())
}

func TestApply_RevertsToExactSnapshot(t *testing.T) {
	c := NewCell(map[string]int{"41": 2, "42": 5}, cloneMap)
	boom := errors.New("Estoque insuficiente")

	_, err := Apply(context.Background(), c, func(m map[string]int) map[string]int {
		m["42"] = 0
		m["43"] = 1
		return m
	}, func(context.Context) (map[string]int, error) {
		return nil, boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, map[string]int{"41": 2, "42": 5}, c.Get())
}

func TestBegin_MutationDoesNotLeakIntoSnapshot(t *testing.T) {
	c := NewCell(map[string]int{"42": 5}, cloneMap)

	edit := c.Begin(func(m map[string]int) map[string]int {
		m["42"] = 1
		return m
	})

	assert.Equal(t, map[string]int{"42": 5}, edit.Snapshot())
	assert.Equal(t, map[string]int{"42": 1}, c.Get())

	// Alterar a cópia devolvida por Get não afeta a célula.
	view := c.Get()
	view["42"] = 100
	assert.Equal(t, 1, c.Get()["42"])
}

func TestEdit_OnlyFirstResolutionApplies(t *testing.T) {
	c := NewCell(1, nil)
	edit := c.Begin(func(v int) int { return v * 10 })

	edit.Reconcile(7)
	edit.Revert()

	assert.Equal(t, 7, c.Get())
}

func TestCell_ConcurrentEdits(t *testing.T) {
	c := NewCell(0, nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			edit := c.Begin(func(v int) int { return v + 1 })
			_ = c.Get()
			_ = edit.Snapshot()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, c.Get())
}

func TestOverlappingEdits_BothRejectedRestoreConfirmed(t *testing.T) {
	c := NewCell(5, nil)
	first := c.Begin(func(v int) int { return v + 1 })
	second := c.Begin(func(v int) int { return v + 1 })
	assert.Equal(t, 7, c.Get())

	first.Revert()
	assert.Equal(t, 6, c.Get(), "a segunda edição continua pendente")
	second.Revert()

	assert.Equal(t, 5, c.Get())
	assert.Equal(t, 0, c.Pending())
}

func TestOverlappingEdits_RevertInReverseOrder(t *testing.T) {
	c := NewCell(5, nil)
	first := c.Begin(func(v int) int { return v + 1 })
	second := c.Begin(func(v int) int { return v + 1 })

	second.Revert()
	first.Revert()

	assert.Equal(t, 5, c.Get())
}

func TestOverlappingEdits_ConfirmedBaseKeepsPendingOnTop(t *testing.T) {
	c := NewCell(5, nil)
	first := c.Begin(func(v int) int { return v + 1 })
	second := c.Begin(func(v int) int { return v + 2 })

	first.Reconcile(6)
	assert.Equal(t, 8, c.Get())
	assert.Equal(t, 6, c.Confirmed())

	second.Revert()
	assert.Equal(t, 6, c.Get(), "só a edição confirmada permanece")
}
