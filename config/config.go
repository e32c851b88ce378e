package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config armazena todas as configurações do servidor da loja.
// Os valores vêm das variáveis de ambiente (opcionalmente de um arquivo .env).
type Config struct {
	// Geral
	Port        string `envconfig:"PORT"      default:"8080"`
	Environment string `envconfig:"ENV"       default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// StorageDriver escolhe a persistência: "postgres" (produção) ou "memory" (desenvolvimento).
	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"postgres"`

	// Banco de Dados (PostgreSQL)
	DatabaseURL string        `envconfig:"DATABASE_URL"`
	DBTimeout   time.Duration `envconfig:"DB_TIMEOUT" default:"5s"`

	// Cache (Redis)
	RedisAddr string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	CacheTTL  time.Duration `envconfig:"CACHE_TTL"  default:"10m"`
	CartTTL   time.Duration `envconfig:"CART_TTL"   default:"720h"`

	// Segurança (JWT)
	JWTSecretKey string        `envconfig:"JWT_SECRET_KEY" required:"true"`
	TokenExpiry  time.Duration `envconfig:"JWT_EXPIRY"     default:"60m"`

	// Administrador inicial (opcional), criado no boot se ainda não existir.
	AdminEmail    string `envconfig:"ADMIN_EMAIL"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`

	// Rate Limiting
	RateLimitMaxRequests int           `envconfig:"RATE_LIMIT_MAX_REQUESTS" default:"100"`
	RateLimitPeriod      time.Duration `envconfig:"RATE_LIMIT_PERIOD"       default:"1m"`

	// Pagamento (VNPay)
	VNPay VNPayConfig `envconfig:"VNPAY"`
}

// VNPayConfig agrupa as credenciais do gateway de pagamento.
type VNPayConfig struct {
	TmnCode    string `envconfig:"TMN_CODE"`
	HashSecret string `envconfig:"HASH_SECRET"`
	PayURL     string `envconfig:"URL"        default:"https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"`
	ReturnURL  string `envconfig:"RETURN_URL" default:"http://localhost:8080/v1/payments/vnpay-return"`
}

// LoadConfig carrega o .env (se existir) e processa as variáveis de ambiente.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("falha ao ler o arquivo .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("falha ao processar variáveis de ambiente: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate verifica combinações de campos que as tags não conseguem expressar.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("❌ Erro de Configuração: DATABASE_URL deve ser definida quando STORAGE_DRIVER=postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("❌ Erro de Configuração: STORAGE_DRIVER desconhecido %q", c.StorageDriver)
	}
	if c.RateLimitMaxRequests <= 0 {
		return fmt.Errorf("❌ Erro de Configuração: RATE_LIMIT_MAX_REQUESTS deve ser positivo")
	}
	return nil
}
