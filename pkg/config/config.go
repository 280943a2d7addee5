package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Catalog      CatalogConfig
	Loyalty      LoyaltyConfig
	Eventing     EventingConfig
	Session      SessionConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validateSources(); err != nil {
		return nil, err
	}
	if cfg.Catalog.UsesDB() && !cfg.FeatureFlags.UseSQLite {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SMARTCART_APP_ENV" required:"true"`
	Port         string `envconfig:"SMARTCART_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SMARTCART_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"SMARTCART_LOG_FORMAT"`
	LogWarnStack bool   `envconfig:"SMARTCART_LOG_WARN_STACK" default:"false"`

	CORSAllowedOrigins []string `envconfig:"SMARTCART_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:8081"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SMARTCART_DB_DSN"`
	Driver string `envconfig:"SMARTCART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SMARTCART_DB_HOST"`
	LegacyPort     int    `envconfig:"SMARTCART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SMARTCART_DB_USER"`
	LegacyPassword string `envconfig:"SMARTCART_DB_PASSWORD"`
	LegacyName     string `envconfig:"SMARTCART_DB_NAME"`
	LegacySSLMode  string `envconfig:"SMARTCART_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"SMARTCART_SQLITE_PATH" default:"smartcart.db"`

	MaxOpenConns    int           `envconfig:"SMARTCART_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"SMARTCART_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"SMARTCART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SMARTCART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SMARTCART_REDIS_URL"`
	Address      string        `envconfig:"SMARTCART_REDIS_ADDR"`
	Password     string        `envconfig:"SMARTCART_REDIS_PASSWORD"`
	DB           int           `envconfig:"SMARTCART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SMARTCART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SMARTCART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SMARTCART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SMARTCART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SMARTCART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SMARTCART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SMARTCART_AUTO_MIGRATE" default:"false"`
}

type CatalogConfig struct {
	Source string `envconfig:"SMARTCART_CATALOG_SOURCE" default:"memory"`
}

// UsesDB reports whether products are read from the database.
func (c CatalogConfig) UsesDB() bool {
	return strings.EqualFold(strings.TrimSpace(c.Source), CatalogSourceDB)
}

type LoyaltyConfig struct {
	Source         string `envconfig:"SMARTCART_LOYALTY_SOURCE" default:"static"`
	DefaultBalance int    `envconfig:"SMARTCART_LOYALTY_DEFAULT_BALANCE" default:"500"`
}

// UsesRedis reports whether loyalty balances are read from redis.
func (l LoyaltyConfig) UsesRedis() bool {
	return strings.EqualFold(strings.TrimSpace(l.Source), LoyaltySourceRedis)
}

type EventingConfig struct {
	KafkaBrokers  []string      `envconfig:"SMARTCART_KAFKA_BROKERS"`
	CheckoutTopic string        `envconfig:"SMARTCART_KAFKA_CHECKOUT_TOPIC" default:"smartcart.checkout"`
	WriteTimeout  time.Duration `envconfig:"SMARTCART_KAFKA_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether checkout events should be published to kafka.
func (e EventingConfig) Enabled() bool {
	return len(e.KafkaBrokers) > 0
}

type SessionConfig struct {
	MaxSessions int `envconfig:"SMARTCART_SESSION_MAX" default:"10000"`
}

func (c *Config) validateSources() error {
	switch strings.ToLower(strings.TrimSpace(c.Catalog.Source)) {
	case CatalogSourceMemory, CatalogSourceDB:
	default:
		return fmt.Errorf("%s must be one of %s|%s", EnvCatalogSource, CatalogSourceMemory, CatalogSourceDB)
	}
	switch strings.ToLower(strings.TrimSpace(c.Loyalty.Source)) {
	case LoyaltySourceStatic:
	case LoyaltySourceRedis:
		if !c.Redis.Enabled() {
			return fmt.Errorf("%s=redis requires %s", EnvLoyaltySource, EnvRedisURL)
		}
	default:
		return fmt.Errorf("%s must be one of %s|%s", EnvLoyaltySource, LoyaltySourceStatic, LoyaltySourceRedis)
	}
	if c.Loyalty.DefaultBalance < 0 {
		return fmt.Errorf("%s must be non-negative", EnvLoyaltyDefaultBalance)
	}
	return nil
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
