package adminclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shoestock/internal/api/stock"
	"shoestock/internal/domain"
	"shoestock/internal/pkg/logger"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/v1/", "tok-admin", 2*time.Second, logger.NewDiscard())
}

func TestClient_UpdateSizeSendsPayloadAndToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/v1/stock/update-size", r.URL.Path)
		assert.Equal(t, "Bearer tok-admin", r.Header.Get("Authorization"))

		var req stock.UpdateSizeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, stock.UpdateSizeRequest{ProductID: "runner", Size: "42", Change: -2}, req)

		writeJSON(w, http.StatusOK, domain.Product{ID: "runner", Stock: domain.StockRecord{
			SizeTracked: true, Sizes: domain.SizePartition{"42": 3}, Total: 3, Version: 4,
		}})
	})

	p, err := c.UpdateSize(context.Background(), "runner", "42", -2)

	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock.Sizes["42"])
	assert.Equal(t, 4, p.Stock.Version)
}

func TestClient_ErrorMessageIsVerbatim(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, domain.ErrorResponse{
			Code: 400, Category: "VALIDATION_ERROR", Message: "Produto controlado por tamanho: informe o tamanho.",
		})
	})

	_, err := c.UpdateStock(context.Background(), "runner", 1)

	require.Error(t, err)
	assert.Equal(t, "Produto controlado por tamanho: informe o tamanho.", err.Error())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Category)
}

func TestClient_NonJSONErrorBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway caiu", http.StatusBadGateway)
	})

	_, err := c.SetSize(context.Background(), "runner", "42", 1)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "gateway caiu", apiErr.Message)
}

func TestClient_ListInventoryWithLevel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/stock", r.URL.Path)
		assert.Equal(t, "low", r.URL.Query().Get("level"))
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"product_id":"runner","name":"Runner","size":"41","quantity":1,"level":"low","version":2}]`))
	})

	rows, err := c.ListInventory(context.Background(), "low")

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "41", rows[0].Size)
	assert.Equal(t, 1, rows[0].Quantity)
}

func TestClient_ServerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := NewClient(base+"/v1", "", time.Second, logger.NewDiscard())
	_, err := c.GetProduct(context.Background(), "runner")

	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr), "falha de rede não é erro da API")
}
