// Package adminclient é o cliente HTTP do painel de estoque.
package adminclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"shoestock/internal/api/stock"
	"shoestock/internal/domain"
	"shoestock/internal/pkg/logger"
	"shoestock/internal/service/productservice"
)

// APIError é uma resposta de erro do servidor. Error devolve a mensagem do servidor sem alterações.
type APIError struct {
	Status   int
	Category string
	Message  string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client fala com os endpoints administrativos de estoque.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     logger.Logger
}

// NewClient cria o cliente. baseURL inclui o prefixo /v1.
func NewClient(baseURL, token string, timeout time.Duration, log logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// UpdateStock aplica um delta ao total de um produto sem controle por tamanho.
func (c *Client) UpdateStock(ctx context.Context, productID string, change int) (domain.Product, error) {
	var p domain.Product
	err := c.do(ctx, http.MethodPut, "/stock/update-stock", stock.UpdateStockRequest{ProductID: productID, Change: change}, &p)
	return p, err
}

// UpdateSize aplica um delta a um tamanho.
func (c *Client) UpdateSize(ctx context.Context, productID, size string, change int) (domain.Product, error) {
	var p domain.Product
	err := c.do(ctx, http.MethodPut, "/stock/update-size", stock.UpdateSizeRequest{ProductID: productID, Size: size, Change: change}, &p)
	return p, err
}

// SetSize define a quantidade exata de um tamanho.
func (c *Client) SetSize(ctx context.Context, productID, size string, qty int) (domain.Product, error) {
	var p domain.Product
	err := c.do(ctx, http.MethodPut, "/stock/set-size", stock.SetSizeRequest{ProductID: productID, Size: size, Quantity: qty}, &p)
	return p, err
}

// GetProduct busca o produto completo, incluindo o estoque.
func (c *Client) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	var p domain.Product
	err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(productID), nil, &p)
	return p, err
}

// ListInventory lista o inventário, opcionalmente filtrado por nível (low, mid, high).
func (c *Client) ListInventory(ctx context.Context, level string) ([]productservice.InventoryRow, error) {
	path := "/stock"
	if level != "" {
		path += "?level=" + url.QueryEscape(level)
	}
	var rows []productservice.InventoryRow
	err := c.do(ctx, http.MethodGet, path, nil, &rows)
	return rows, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("falha ao preparar a requisição: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("falha ao criar a requisição: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error(fmt.Sprintf("adminclient: %s %s falhou", method, path), err)
		return fmt.Errorf("falha ao comunicar com o servidor: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("falha ao decodificar a resposta: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var envelope domain.ErrorResponse
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Message == "" {
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	return &APIError{Status: resp.StatusCode, Category: envelope.Category, Message: envelope.Message}
}
