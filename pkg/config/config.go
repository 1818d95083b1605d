package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	Storage  StorageConfig
	DB       DBConfig
	Redis    RedisConfig
	Password PasswordConfig
	Orders   OrdersConfig
	CORS     CORSConfig
	Auth     AuthConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Storage.validate(); err != nil {
		return nil, err
	}
	if cfg.Storage.UsesSQL() && strings.TrimSpace(cfg.DB.DSN) == "" {
		return nil, fmt.Errorf("%s is required when %s=%s", EnvDBDSN, EnvStorageDriver, cfg.Storage.Driver)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"3000"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

// StorageConfig selects the backend for the order workflow stores. The catalog,
// users and wishlist documents always live in DataDir.
type StorageConfig struct {
	Driver       string `envconfig:"STOREFRONT_STORAGE_DRIVER" default:"json"`
	DataDir      string `envconfig:"STOREFRONT_DATA_DIR" default:"models"`
	OrdersFile   string `envconfig:"STOREFRONT_ORDERS_FILE" default:"orders.json"`
	CartFile     string `envconfig:"STOREFRONT_CART_FILE" default:"cart.json"`
	ProductsFile string `envconfig:"STOREFRONT_PRODUCTS_FILE" default:"products.json"`
	UsersFile    string `envconfig:"STOREFRONT_USERS_FILE" default:"users.json"`
	WishlistFile string `envconfig:"STOREFRONT_WISHLIST_FILE" default:"wishlist.json"`
	AutoMigrate  bool   `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

// UsesSQL reports whether orders and carts are persisted through gorm.
func (s StorageConfig) UsesSQL() bool {
	return s.Driver == StorageDriverPostgres || s.Driver == StorageDriverSQLite
}

// Path joins name onto the configured data directory.
func (s StorageConfig) Path(name string) string {
	return filepath.Join(s.DataDir, name)
}

func (s StorageConfig) validate() error {
	switch s.Driver {
	case StorageDriverJSON, StorageDriverSQLite, StorageDriverPostgres:
	default:
		return fmt.Errorf("unsupported %s %q", EnvStorageDriver, s.Driver)
	}
	if strings.TrimSpace(s.DataDir) == "" {
		return fmt.Errorf("%s is required", EnvDataDir)
	}
	return nil
}

type DBConfig struct {
	DSN string `envconfig:"STOREFRONT_DB_DSN"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// Statements slower than this are logged at warn level.
	SlowQueryThreshold time.Duration `envconfig:"STOREFRONT_DB_SLOW_QUERY" default:"200ms"`
}

// RedisConfig is optional; an empty URL and Address disables idempotency replay.
type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"STOREFRONT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"STOREFRONT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"STOREFRONT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"STOREFRONT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STOREFRONT_ARGON_KEY_LEN" default:"32"`
}

type OrdersConfig struct {
	DeliveryWindow time.Duration `envconfig:"STOREFRONT_ORDERS_DELIVERY_WINDOW" default:"168h"`
	TrackingPrefix string        `envconfig:"STOREFRONT_ORDERS_TRACKING_PREFIX" default:"TRK"`
	IdempotencyTTL time.Duration `envconfig:"STOREFRONT_ORDERS_IDEMPOTENCY_TTL" default:"24h"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"STOREFRONT_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// AuthConfig throttles register and login attempts when Redis is enabled.
type AuthConfig struct {
	RateLimitWindow   time.Duration `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_WINDOW" default:"1m"`
	RateLimitIP       int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_IP" default:"20"`
	RateLimitIdentity int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_IDENTITY" default:"5"`
}
