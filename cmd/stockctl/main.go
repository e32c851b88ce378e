// stockctl é o cliente de linha de comando do editor de estoque.
//
//	stockctl [-url http://localhost:8080/v1] [-token JWT] inventory [low|mid|high]
//	stockctl update-stock <productId> <change>
//	stockctl update-size <productId> <size> <change>
//	stockctl set-size <productId> <size> <quantity>
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"shoestock/internal/adminclient"
	"shoestock/internal/domain"
	"shoestock/internal/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	var (
		baseURL string
		token   string
		timeout time.Duration
	)
	flag.StringVar(&baseURL, "url", envOr("STOCKCTL_URL", "http://localhost:8080/v1"), "URL base da API, com /v1")
	flag.StringVar(&token, "token", os.Getenv("STOCKCTL_TOKEN"), "JWT de administrador")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "timeout por requisição")
	flag.Parse()

	log := logger.NewLogger(envOr("LOG_LEVEL", "warn"))
	client := adminclient.NewClient(baseURL, token, timeout, log)

	ctx, cancel := context.WithTimeout(context.Background(), 2*timeout)
	defer cancel()

	out, err := run(ctx, client, flag.Args())
	if err != nil {
		var apiErr *adminclient.APIError
		if errors.As(err, &apiErr) {
			fmt.Fprintf(os.Stderr, "erro %d (%s): %s\n", apiErr.Status, apiErr.Category, apiErr.Message)
		} else {
			fmt.Fprintln(os.Stderr, "erro:", err)
		}
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatal("Falha ao imprimir o resultado.", err)
	}
}

func run(ctx context.Context, client *adminclient.Client, args []string) (interface{}, error) {
	if len(args) == 0 {
		return nil, errors.New("comando ausente: inventory, update-stock, update-size ou set-size")
	}

	inv := adminclient.NewInventory(client)
	command, rest := args[0], args[1:]

	switch command {
	case "inventory":
		level := ""
		if len(rest) > 0 {
			level = rest[0]
		}
		return client.ListInventory(ctx, level)

	case "update-stock":
		if len(rest) != 2 {
			return nil, errors.New("uso: update-stock <productId> <change>")
		}
		change, err := strconv.Atoi(rest[1])
		if err != nil {
			return nil, fmt.Errorf("change inválido: %w", err)
		}
		return edit(ctx, inv, rest[0], func() (domain.StockRecord, error) {
			return inv.AdjustTotal(ctx, rest[0], change)
		})

	case "update-size", "set-size":
		if len(rest) != 3 {
			return nil, fmt.Errorf("uso: %s <productId> <size> <valor>", command)
		}
		value, err := strconv.Atoi(rest[2])
		if err != nil {
			return nil, fmt.Errorf("valor inválido: %w", err)
		}
		return edit(ctx, inv, rest[0], func() (domain.StockRecord, error) {
			if command == "set-size" {
				return inv.SetSize(ctx, rest[0], rest[1], value)
			}
			return inv.AdjustSize(ctx, rest[0], rest[1], value)
		})
	}

	return nil, fmt.Errorf("comando desconhecido: %s", command)
}

// edit carrega o produto na visão local antes de aplicar a edição.
func edit(ctx context.Context, inv *adminclient.Inventory, productID string, apply func() (domain.StockRecord, error)) (domain.StockRecord, error) {
	if _, err := inv.Load(ctx, productID); err != nil {
		return domain.StockRecord{}, err
	}
	return apply()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
