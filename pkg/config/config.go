package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	DocStore DocStoreConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Session  SessionConfig
	Checkout CheckoutConfig
	Catalog  CatalogConfig
	Cart     CartConfig
	Mail     MailConfig
	GCP      GCPConfig
	PubSub   PubSubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DocStore.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string   `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"STOREFRONT_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DocStoreConfig struct {
	Driver string `envconfig:"STOREFRONT_DOCSTORE_DRIVER" default:"postgres"`
	DSN    string `envconfig:"STOREFRONT_DOCSTORE_DSN"`

	MongoURI      string `envconfig:"STOREFRONT_MONGO_URI"`
	MongoDatabase string `envconfig:"STOREFRONT_MONGO_DATABASE" default:"storefront"`

	AutoMigrate     bool          `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
	MaxOpenConns    int           `envconfig:"STOREFRONT_DOCSTORE_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DOCSTORE_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DOCSTORE_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DOCSTORE_CONN_MAX_IDLE_TIME" default:"10m"`
	OpTimeout       time.Duration `envconfig:"STOREFRONT_DOCSTORE_OP_TIMEOUT" default:"10s"`
}

// NormalizedDriver returns the lower-cased driver name.
func (d DocStoreConfig) NormalizedDriver() string {
	return strings.ToLower(strings.TrimSpace(d.Driver))
}

func (d DocStoreConfig) validate() error {
	switch d.NormalizedDriver() {
	case DriverPostgres, DriverSQLite:
		if strings.TrimSpace(d.DSN) == "" {
			return fmt.Errorf("%s is required for driver %q", EnvDocStoreDSN, d.Driver)
		}
	case DriverMongo:
		if strings.TrimSpace(d.MongoURI) == "" {
			return fmt.Errorf("%s is required for driver %q", EnvMongoURI, d.Driver)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvDocStoreDriver, d.Driver)
	}
	return nil
}

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

type JWTConfig struct {
	Secret            string `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STOREFRONT_JWT_ISSUER" default:"storefront"`
	ExpirationMinutes int    `envconfig:"STOREFRONT_JWT_EXPIRATION_MINUTES" default:"60"`
}

// Expiration returns the access token lifetime.
func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type SessionConfig struct {
	CookieName   string        `envconfig:"STOREFRONT_SESSION_COOKIE_NAME" default:"storefront_session"`
	Lifetime     time.Duration `envconfig:"STOREFRONT_SESSION_LIFETIME" default:"24h"`
	IdleTimeout  time.Duration `envconfig:"STOREFRONT_SESSION_IDLE_TIMEOUT" default:"2h"`
	SecureCookie bool          `envconfig:"STOREFRONT_SESSION_SECURE_COOKIE" default:"true"`
}

type CheckoutConfig struct {
	SettlementDelay time.Duration `envconfig:"STOREFRONT_CHECKOUT_SETTLEMENT_DELAY" default:"2s"`
	SignInURL       string        `envconfig:"STOREFRONT_CHECKOUT_SIGN_IN_URL" default:"/sign-in"`
	RateLimit       int64         `envconfig:"STOREFRONT_CHECKOUT_RATE_LIMIT" default:"10"`
	RateLimitWindow time.Duration `envconfig:"STOREFRONT_CHECKOUT_RATE_LIMIT_WINDOW" default:"1m"`
}

type CatalogConfig struct {
	CacheTTL    time.Duration `envconfig:"STOREFRONT_CATALOG_CACHE_TTL" default:"5m"`
	CacheJitter time.Duration `envconfig:"STOREFRONT_CATALOG_CACHE_JITTER" default:"30s"`
}

type CartConfig struct {
	IdleTTL       time.Duration `envconfig:"STOREFRONT_CART_IDLE_TTL" default:"2h"`
	SweepInterval time.Duration `envconfig:"STOREFRONT_CART_SWEEP_INTERVAL" default:"5m"`
}

type MailConfig struct {
	RelayURL         string        `envconfig:"STOREFRONT_MAIL_RELAY_URL"`
	Timeout          time.Duration `envconfig:"STOREFRONT_MAIL_TIMEOUT" default:"5s"`
	BreakerFailures  uint32        `envconfig:"STOREFRONT_MAIL_BREAKER_FAILURES" default:"5"`
	BreakerOpenFor   time.Duration `envconfig:"STOREFRONT_MAIL_BREAKER_OPEN_FOR" default:"30s"`
	BreakerHalfOpenN uint32        `envconfig:"STOREFRONT_MAIL_BREAKER_HALF_OPEN_REQUESTS" default:"1"`
}

// Enabled reports whether a relay endpoint has been configured.
func (m MailConfig) Enabled() bool {
	return strings.TrimSpace(m.RelayURL) != ""
}

type GCPConfig struct {
	ProjectID              string `envconfig:"STOREFRONT_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"STOREFRONT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"STOREFRONT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"STOREFRONT_PUBSUB_ORDERS_TOPIC"`
}

// Enabled reports whether order events should be published.
func (p PubSubConfig) Enabled() bool {
	return strings.TrimSpace(p.OrdersTopic) != ""
}
