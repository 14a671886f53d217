package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

const (
	EnvAppEnv          = "STOREFRONT_APP_ENV"
	EnvPort            = "STOREFRONT_APP_PORT"
	EnvLogLevel        = "STOREFRONT_LOG_LEVEL"
	EnvDocStoreDriver  = "STOREFRONT_DOCSTORE_DRIVER"
	EnvDocStoreDSN     = "STOREFRONT_DOCSTORE_DSN"
	EnvMongoURI        = "STOREFRONT_MONGO_URI"
	EnvRedisURL        = "STOREFRONT_REDIS_URL"
	EnvJWTSecret       = "STOREFRONT_JWT_SECRET"
	EnvSettlementDelay = "STOREFRONT_CHECKOUT_SETTLEMENT_DELAY"
	EnvSignInURL       = "STOREFRONT_CHECKOUT_SIGN_IN_URL"
	EnvMailRelayURL    = "STOREFRONT_MAIL_RELAY_URL"
	EnvOrdersTopic     = "STOREFRONT_PUBSUB_ORDERS_TOPIC"
)
