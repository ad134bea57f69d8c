package config

const EnvPrefix = "DEADPIGEONS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	OutboxTransportPubSub = "pubsub"
	OutboxTransportKafka  = "kafka"
)

const (
	EnvAppEnv   = "DEADPIGEONS_APP_ENV"
	EnvPort     = "DEADPIGEONS_APP_PORT"
	EnvLogLevel = "DEADPIGEONS_LOG_LEVEL"

	EnvDBDSN  = "DEADPIGEONS_DB_DSN"
	EnvDBHost = "DEADPIGEONS_DB_HOST"
	EnvDBUser = "DEADPIGEONS_DB_USER"
	EnvDBName = "DEADPIGEONS_DB_NAME"

	EnvRedisURL  = "DEADPIGEONS_REDIS_URL"
	EnvJWTSecret = "DEADPIGEONS_JWT_SECRET"
	EnvJWTIssuer = "DEADPIGEONS_JWT_ISSUER"

	EnvPriceSchedule   = "DEADPIGEONS_PRICE_SCHEDULE"
	EnvPrizePoolShare  = "DEADPIGEONS_PRIZE_POOL_SHARE"
	EnvTimezone        = "DEADPIGEONS_TIMEZONE"
	EnvBetDeadlineTime = "DEADPIGEONS_BET_DEADLINE_TIME"
	EnvDrawTime        = "DEADPIGEONS_DRAW_TIME"
	EnvMaxSeriesWeeks  = "DEADPIGEONS_MAX_SERIES_WEEKS"

	EnvOutboxTransport = "DEADPIGEONS_OUTBOX_TRANSPORT"
	EnvKafkaBrokers    = "DEADPIGEONS_KAFKA_BROKERS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
