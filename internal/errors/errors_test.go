package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapToHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		category string
	}{
		{"validação", NewValidationError("x"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"não autorizado", NewUnauthorizedError("x"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"proibido", NewForbiddenError("x"), http.StatusForbidden, "FORBIDDEN"},
		{"não encontrado", NewNotFoundError("x"), http.StatusNotFound, "NOT_FOUND"},
		{"conflito", NewConflictError("x"), http.StatusConflict, "CONFLICT"},
		{"sem estoque", NewInsufficientStockError("p1", "42", 3, 1), http.StatusConflict, "OUT_OF_STOCK"},
		{"transição", NewInvalidTransitionError("done", "pending"), http.StatusConflict, "INVALID_TRANSITION"},
		{"assinatura", NewChecksumFailedError("x"), http.StatusBadRequest, "CHECKSUM_FAILED"},
		{"interno", NewInternalError("x", nil), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"desconhecido", stderrors.New("boom"), http.StatusInternalServerError, "UNKNOWN_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, category, _ := MapToHTTPStatus(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.category, category)
		})
	}
}

func TestMapToHTTPStatus_UnwrapsWrappedAppError(t *testing.T) {
	err := fmt.Errorf("reserva do item 2: %w", NewInsufficientStockError("p1", "42", 3, 1))

	status, category, msg := MapToHTTPStatus(err)

	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "OUT_OF_STOCK", category)
	assert.Equal(t, "Estoque insuficiente: produto p1 tamanho 42 (solicitado 3, disponível 1)", msg)
}

func TestMapToHTTPStatus_HidesInternalCause(t *testing.T) {
	err := NewDBError("Falha ao salvar pedido", stderrors.New("pq: connection refused"))

	_, _, msg := MapToHTTPStatus(err)

	assert.NotContains(t, msg, "pq:")
	assert.Contains(t, err.Error(), "pq: connection refused")
	assert.ErrorContains(t, stderrors.Unwrap(err), "connection refused")
}

func TestInsufficientStockError_UntrackedMessage(t *testing.T) {
	err := NewInsufficientStockError("meia", "", 4, 2)
	assert.Equal(t, "Estoque insuficiente: produto meia (solicitado 4, disponível 2)", err.Error())
}
