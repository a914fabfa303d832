package config

const EnvPrefix = "SHOP"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	BrokerDriverRabbitMQ = "rabbitmq"
	BrokerDriverPubSub   = "pubsub"
)

const (
	EnvAppEnv             = "SHOP_APP_ENV"
	EnvPort               = "SHOP_APP_PORT"
	EnvLogLevel           = "SHOP_LOG_LEVEL"
	EnvServiceKind        = "SHOP_SERVICE_KIND"
	EnvDBDSN              = "SHOP_DB_DSN"
	EnvDBDriver           = "SHOP_DB_DRIVER"
	EnvDBHost             = "SHOP_DB_HOST"
	EnvDBPort             = "SHOP_DB_PORT"
	EnvDBUser             = "SHOP_DB_USER"
	EnvDBPassword         = "SHOP_DB_PASSWORD"
	EnvDBName             = "SHOP_DB_NAME"
	EnvRedisURL           = "SHOP_REDIS_URL"
	EnvBrokerDriver       = "SHOP_BROKER_DRIVER"
	EnvBrokerOrdersQueue  = "SHOP_BROKER_ORDERS_QUEUE"
	EnvBrokerResultsQueue = "SHOP_BROKER_PAYMENT_RESULTS_QUEUE"
	EnvRabbitMQURL        = "SHOP_RABBITMQ_URL"
	EnvGCPProjectID       = "SHOP_GCP_PROJECT_ID"
	EnvOutboxPollMS       = "SHOP_OUTBOX_POLL_MS"
	EnvOutboxErrorBackoff = "SHOP_OUTBOX_ERROR_BACKOFF_MS"
	EnvCronRetentionDays  = "SHOP_CRON_INBOX_RETENTION_DAYS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
