package config

const (
	EnvPrefix = "SMARTCART"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "SMARTCART_APP_ENV"
	EnvPort     = "SMARTCART_APP_PORT"
	EnvLogLevel = "SMARTCART_LOG_LEVEL"

	EnvDBDSN     = "SMARTCART_DB_DSN"
	EnvDBHost    = "SMARTCART_DB_HOST"
	EnvDBUser    = "SMARTCART_DB_USER"
	EnvDBName    = "SMARTCART_DB_NAME"
	EnvUseSQLite = "SMARTCART_USE_SQLITE"

	EnvRedisURL = "SMARTCART_REDIS_URL"

	EnvCatalogSource = "SMARTCART_CATALOG_SOURCE"

	EnvLoyaltySource         = "SMARTCART_LOYALTY_SOURCE"
	EnvLoyaltyDefaultBalance = "SMARTCART_LOYALTY_DEFAULT_BALANCE"

	EnvKafkaBrokers       = "SMARTCART_KAFKA_BROKERS"
	EnvKafkaCheckoutTopic = "SMARTCART_KAFKA_CHECKOUT_TOPIC"

	EnvSessionMax = "SMARTCART_SESSION_MAX"
)

const (
	CatalogSourceMemory = "memory"
	CatalogSourceDB     = "db"

	LoyaltySourceStatic = "static"
	LoyaltySourceRedis  = "redis"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
