package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/pressly/goose/v3"

	"shoestock/config"
	"shoestock/internal/pkg/database"
	"shoestock/internal/pkg/logger"
)

func main() {
	var migrationsDir string
	flag.StringVar(&migrationsDir, "dir", "./sql", "directory with migration files")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger("info").Fatal("goose: falha ao carregar configurações", err)
	}
	log := logger.NewLogger(cfg.LogLevel)

	if cfg.StorageDriver != "postgres" {
		log.Fatal("goose: migrações exigem STORAGE_DRIVER=postgres", fmt.Errorf("driver atual: %s", cfg.StorageDriver))
	}

	db, err := database.NewPostgresDB(context.Background(), cfg.DatabaseURL, database.PoolConfig{MaxOpenConns: 2, MaxIdleConns: 1}, log)
	if err != nil {
		log.Fatal("goose: falha ao conectar ao DB", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("goose: falha ao fechar o DB", err)
		}
	}()

	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal("goose: dialeto inválido", err)
	}

	arguments := flag.Args()
	if len(arguments) == 0 {
		arguments = []string{"up"}
	}

	command := arguments[0]
	var args []string
	if len(arguments) > 1 {
		args = arguments[1:]
	}

	if err := goose.RunContext(context.Background(), command, db, migrationsDir, args...); err != nil {
		log.Fatal(fmt.Sprintf("goose %v", command), err)
	}

	log.Info("goose concluído", map[string]interface{}{"command": command})
}
