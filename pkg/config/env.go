package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StorageDriverJSON     = "json"
	StorageDriverSQLite   = "sqlite"
	StorageDriverPostgres = "postgres"
)

const (
	EnvAppEnv        = "STOREFRONT_APP_ENV"
	EnvPort          = "STOREFRONT_APP_PORT"
	EnvLogLevel      = "STOREFRONT_LOG_LEVEL"
	EnvStorageDriver = "STOREFRONT_STORAGE_DRIVER"
	EnvDataDir       = "STOREFRONT_DATA_DIR"
	EnvDBDSN         = "STOREFRONT_DB_DSN"
	EnvRedisURL      = "STOREFRONT_REDIS_URL"
	EnvDeliveryWin   = "STOREFRONT_ORDERS_DELIVERY_WINDOW"
	EnvCORSOrigins   = "STOREFRONT_CORS_ALLOWED_ORIGINS"
)
