package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shoestock/config"
	"shoestock/internal/pkg/cache"
	"shoestock/internal/pkg/database"
	"shoestock/internal/pkg/logger"
	"shoestock/internal/pkg/token"

	"shoestock/internal/api/cart"
	"shoestock/internal/api/order"
	"shoestock/internal/api/payment"
	"shoestock/internal/api/product"
	"shoestock/internal/api/router"
	"shoestock/internal/api/stock"
	"shoestock/internal/api/user"
	"shoestock/internal/domain"
	"shoestock/internal/repository/cartrepo"
	"shoestock/internal/repository/memory"
	"shoestock/internal/repository/orderrepo"
	"shoestock/internal/repository/productrepo"
	"shoestock/internal/repository/stockrepo"
	"shoestock/internal/repository/userrepo"
	"shoestock/internal/service/cartservice"
	"shoestock/internal/service/orderservice"
	"shoestock/internal/service/paymentservice"
	"shoestock/internal/service/productservice"
	"shoestock/internal/service/stockservice"
	"shoestock/internal/service/userservice"
)

// stores agrupa as implementações de persistência escolhidas por STORAGE_DRIVER.
type stores struct {
	products productservice.ProductRepository
	stock    domain.StockStore
	orders   orderservice.OrderRepository
	users    userservice.UserRepository
	cache    cache.Client
	db       *sql.DB
}

// @title ShoeStock API
// @version 1.0
// @description Estoque por tamanho e ciclo de vida de pedidos da loja de calçados.
// @BasePath /v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Configuração e Inicialização
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger("info").Fatal("Falha ao carregar configurações.", err)
	}
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Inicializando serviço ShoeStock...", map[string]interface{}{
		"env":     cfg.Environment,
		"storage": cfg.StorageDriver,
	})

	// 2. Conexão com Recursos de Infraestrutura
	st, err := openStores(cfg, log)
	if err != nil {
		log.Fatal("Falha ao inicializar a persistência.", err)
	}
	if st.db != nil {
		defer st.db.Close()
	}

	// 3. INJEÇÃO DE DEPENDÊNCIAS
	// Ordem: Repository -> Service -> Handler
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)

	ledger := stockservice.NewService(st.stock, st.cache, log)
	lifecycle := orderservice.NewLifecycle(st.orders, ledger, log)
	productSvc := productservice.NewService(st.products, st.orders, log)
	cartSvc := cartservice.NewService(cartrepo.NewCartRepository(st.cache, cfg.CartTTL, log), st.products, log)
	userSvc := userservice.NewService(st.users, tokenSvc, log)

	paymentSvc := paymentservice.NewService(paymentservice.Config{
		TmnCode:    cfg.VNPay.TmnCode,
		HashSecret: cfg.VNPay.HashSecret,
		PayURL:     cfg.VNPay.PayURL,
		ReturnURL:  cfg.VNPay.ReturnURL,
	}, st.orders, lifecycle, log)

	// Sem credenciais o pipeline recusa pedidos vnpay.
	var linker orderservice.PaymentLinker
	var paymentHandler *payment.Handler
	if paymentSvc.Enabled() {
		linker = paymentSvc
		paymentHandler = payment.NewHandler(paymentSvc, log)
	} else {
		log.Warn("VNPay não configurado; pagamentos vnpay desabilitados.", nil)
	}
	pipeline := orderservice.NewPipeline(st.products, ledger, st.orders, cartSvc, linker, log)

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 10*time.Second)
	if err := userSvc.EnsureAdmin(bootCtx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Error("Falha ao criar administrador inicial.", err)
	}
	cancelBoot()

	// 4. Configuração e Início do Roteador/Servidor
	r := router.NewRouter(router.Handlers{
		Product: product.NewHandler(productSvc, log),
		User:    user.NewHandler(userSvc, log),
		Stock:   stock.NewHandler(ledger, productSvc, log),
		Order:   order.NewHandler(pipeline, lifecycle, log),
		Payment: paymentHandler,
		Cart:    cart.NewHandler(cartSvc, log),
	}, router.Options{
		Tokens:          tokenSvc,
		Cache:           st.cache,
		Logger:          log,
		RateLimit:       cfg.RateLimitMaxRequests,
		RateLimitWindow: cfg.RateLimitPeriod,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		log.Info("Servidor ShoeStock ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}

	log.Info("Servidor encerrado com sucesso.", nil)
}

func openStores(cfg *config.Config, log logger.Logger) (stores, error) {
	if cfg.StorageDriver == "memory" {
		products := memory.NewProductStore()
		log.Warn("STORAGE_DRIVER=memory: dados não são persistidos.", nil)
		return stores{
			products: products,
			stock:    products,
			orders:   memory.NewOrderStore(),
			users:    memory.NewUserStore(),
			cache:    cache.NewMemoryClient(),
		}, nil
	}

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(context.Background(), cfg.DatabaseURL, database.DefaultPool, log)
	if err != nil {
		return stores{}, err
	}

	// B. Cache (Redis)
	cacheClient, err := cache.NewRedisClient(cfg.RedisAddr)
	if err != nil {
		db.Close()
		return stores{}, err
	}
	log.Info("Conexão Redis estabelecida.", nil)

	return stores{
		products: productrepo.NewProductRepository(db, cacheClient, cfg.DBTimeout, cfg.CacheTTL, log),
		stock:    stockrepo.NewStockRepository(db, cfg.DBTimeout, log),
		orders:   orderrepo.NewOrderRepository(db, cfg.DBTimeout, log),
		users:    userrepo.NewUserRepository(db, cfg.DBTimeout, log),
		cache:    cacheClient,
		db:       db,
	}, nil
}
