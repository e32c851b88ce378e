package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransitions_TerminalStatusesHaveNoExit(t *testing.T) {
	all := []OrderStatus{StatusPending, StatusConfirmed, StatusShipping, StatusDone, StatusCancelled}
	for _, from := range []OrderStatus{StatusDone, StatusCancelled} {
		assert.True(t, from.IsTerminal())
		for _, to := range all {
			_, ok := TransitionEffects(from, to)
			assert.False(t, ok, "%s -> %s", from, to)
		}
	}
}

func TestTransitions_CancelEffectsDependOnSoldCredit(t *testing.T) {
	effects, ok := TransitionEffects(StatusPending, StatusCancelled)
	assert.True(t, ok)
	assert.Equal(t, []StockEffect{EffectRestore}, effects)

	effects, ok = TransitionEffects(StatusShipping, StatusCancelled)
	assert.True(t, ok)
	assert.Equal(t, []StockEffect{EffectRestore, EffectReverseSold}, effects)
}
