package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "shoestock/docs" // registra a especificação Swagger
	"shoestock/internal/api/cart"
	"shoestock/internal/api/order"
	"shoestock/internal/api/payment"
	"shoestock/internal/api/product"
	"shoestock/internal/api/stock"
	"shoestock/internal/api/user"
	"shoestock/internal/domain"
	"shoestock/internal/pkg/cache"
	"shoestock/internal/pkg/logger"
	"shoestock/internal/pkg/middleware"
)

// Handlers reúne os Handlers já inicializados por injeção de dependências.
type Handlers struct {
	Product *product.Handler
	User    *user.Handler
	Stock   *stock.Handler
	Order   *order.Handler
	Payment *payment.Handler // nil desabilita o retorno VNPay
	Cart    *cart.Handler
}

// Options são as dependências transversais do roteador.
type Options struct {
	Tokens          middleware.TokenService
	Cache           cache.Client
	Logger          logger.Logger
	RateLimit       int
	RateLimitWindow time.Duration
}

// NewRouter configura e retorna o roteador HTTP principal.
func NewRouter(h Handlers, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/ping", PingHandler)
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	auth := middleware.NewAuthMiddleware(opts.Tokens)
	admin := middleware.PermissionMiddleware(domain.RoleAdmin)

	r.Route("/v1", func(r chi.Router) {
		if opts.Cache != nil && opts.RateLimit > 0 {
			r.Use(middleware.RateLimiter(opts.Cache, opts.Logger, opts.RateLimit, opts.RateLimitWindow))
		}

		// Públicas
		r.Post("/register", h.User.RegisterUserHandler)
		r.Post("/login", h.User.LoginUserHandler)
		r.Get("/products", h.Product.ListProductsHandler)
		r.Get("/products/{id}", h.Product.GetProductByIDHandler)
		// Sem credenciais VNPay a rota não existe (404).
		if h.Payment != nil {
			r.Get("/payments/vnpay-return", h.Payment.VNPayReturnHandler)
		}

		// Usuário autenticado
		r.Group(func(r chi.Router) {
			r.Use(auth)

			r.Get("/cart", h.Cart.GetCartHandler)
			r.Post("/cart/items", h.Cart.AddItemHandler)
			r.Put("/cart/items", h.Cart.UpdateItemHandler)
			r.Delete("/cart/items", h.Cart.RemoveItemHandler)

			r.Post("/orders", h.Order.CreateOrderHandler)
			r.Get("/orders/mine", h.Order.MyOrdersHandler)
			r.Get("/orders/{id}", h.Order.GetOrderHandler)

			// Administração
			r.Group(func(r chi.Router) {
				r.Use(admin)

				r.Post("/products", h.Product.CreateProductHandler)

				r.Get("/stock", h.Stock.ListInventoryHandler)
				r.Put("/stock/update-stock", h.Stock.UpdateStockHandler)
				r.Put("/stock/update-size", h.Stock.UpdateSizeHandler)
				r.Put("/stock/set-size", h.Stock.SetSizeHandler)

				r.Put("/orders/{id}/status", h.Order.UpdateStatusHandler)
				r.Get("/admin/orders", h.Order.AdminListHandler)
				r.Post("/admin/orders/expire-pending", h.Order.ExpirePendingHandler)
				r.Get("/admin/stats", h.Product.StatsHandler)
			})
		})
	})

	return r
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
