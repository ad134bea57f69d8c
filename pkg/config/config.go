package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/types"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	BetRateLimit BetRateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Lottery      LotteryConfig
	Metrics      MetricsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Kafka        KafkaConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Lottery.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Outbox.validate(cfg.PubSub, cfg.Kafka); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"DEADPIGEONS_APP_ENV" required:"true"`
	Port         string   `envconfig:"DEADPIGEONS_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"DEADPIGEONS_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"DEADPIGEONS_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"DEADPIGEONS_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"DEADPIGEONS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"DEADPIGEONS_DB_DSN"`
	Driver string `envconfig:"DEADPIGEONS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DEADPIGEONS_DB_HOST"`
	LegacyPort     int    `envconfig:"DEADPIGEONS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DEADPIGEONS_DB_USER"`
	LegacyPassword string `envconfig:"DEADPIGEONS_DB_PASSWORD"`
	LegacyName     string `envconfig:"DEADPIGEONS_DB_NAME"`
	LegacySSLMode  string `envconfig:"DEADPIGEONS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DEADPIGEONS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DEADPIGEONS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DEADPIGEONS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DEADPIGEONS_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	TxTimeout       time.Duration `envconfig:"DEADPIGEONS_TX_TIMEOUT" default:"3s"`
	TxRetryAttempts int           `envconfig:"DEADPIGEONS_TX_RETRY_ATTEMPTS" default:"3"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DEADPIGEONS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DEADPIGEONS_REDIS_ADDR"`
	Password     string        `envconfig:"DEADPIGEONS_REDIS_PASSWORD"`
	DB           int           `envconfig:"DEADPIGEONS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DEADPIGEONS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DEADPIGEONS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DEADPIGEONS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DEADPIGEONS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DEADPIGEONS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies tokens minted by the identity service.
type JWTConfig struct {
	Secret string `envconfig:"DEADPIGEONS_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"DEADPIGEONS_JWT_ISSUER" required:"true"`
}

type BetRateLimitConfig struct {
	Window time.Duration `envconfig:"DEADPIGEONS_BET_RATE_LIMIT_WINDOW" default:"1m"`
	Limit  int           `envconfig:"DEADPIGEONS_BET_RATE_LIMIT" default:"30"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DEADPIGEONS_AUTO_MIGRATE" default:"false"`
}

// LotteryConfig carries the business tunables of the weekly game.
type LotteryConfig struct {
	PriceSchedule   map[int]int     `envconfig:"DEADPIGEONS_PRICE_SCHEDULE" default:"5:20,6:40,7:80,8:160"`
	PrizePoolShare  decimal.Decimal `envconfig:"DEADPIGEONS_PRIZE_POOL_SHARE" default:"0.70"`
	Timezone        string          `envconfig:"DEADPIGEONS_TIMEZONE" default:"Europe/Copenhagen"`
	DeadlineWeekday int             `envconfig:"DEADPIGEONS_BET_DEADLINE_WEEKDAY" default:"6"`
	DeadlineTime    string          `envconfig:"DEADPIGEONS_BET_DEADLINE_TIME" default:"17:00"`
	DrawWeekday     int             `envconfig:"DEADPIGEONS_DRAW_WEEKDAY" default:"7"`
	DrawTime        string          `envconfig:"DEADPIGEONS_DRAW_TIME" default:"20:00"`
	MaxSeriesWeeks  int             `envconfig:"DEADPIGEONS_MAX_SERIES_WEEKS" default:"52"`
}

// Validate rejects schedules outside the 5..8 selection range, non-positive
// prices, and prize shares outside (0,1].
func (l LotteryConfig) Validate() error {
	if len(l.PriceSchedule) == 0 {
		return fmt.Errorf("%s is required", EnvPriceSchedule)
	}
	counts := make([]int, 0, len(l.PriceSchedule))
	for count, price := range l.PriceSchedule {
		if count < types.MinSelectionSize || count > types.MaxSelectionSize {
			return fmt.Errorf("%s: selection size %d outside %d..%d", EnvPriceSchedule, count, types.MinSelectionSize, types.MaxSelectionSize)
		}
		if price <= 0 {
			return fmt.Errorf("%s: price for %d numbers must be positive", EnvPriceSchedule, count)
		}
		counts = append(counts, count)
	}
	sort.Ints(counts)
	for i := 1; i < len(counts); i++ {
		if l.PriceSchedule[counts[i]] < l.PriceSchedule[counts[i-1]] {
			return fmt.Errorf("%s: prices must not decrease with selection size", EnvPriceSchedule)
		}
	}
	if !l.PrizePoolShare.IsPositive() || l.PrizePoolShare.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s must be in (0,1], got %s", EnvPrizePoolShare, l.PrizePoolShare)
	}
	if _, err := l.Location(); err != nil {
		return err
	}
	if l.DeadlineWeekday < 1 || l.DeadlineWeekday > 7 || l.DrawWeekday < 1 || l.DrawWeekday > 7 {
		return fmt.Errorf("weekdays must be ISO weekdays 1..7")
	}
	deadline, err := ParseClock(l.DeadlineTime)
	if err != nil {
		return fmt.Errorf("%s: %w", EnvBetDeadlineTime, err)
	}
	draw, err := ParseClock(l.DrawTime)
	if err != nil {
		return fmt.Errorf("%s: %w", EnvDrawTime, err)
	}
	deadlineOffset := time.Duration(l.DeadlineWeekday-1)*24*time.Hour + deadline
	drawOffset := time.Duration(l.DrawWeekday-1)*24*time.Hour + draw
	if deadlineOffset >= drawOffset {
		return fmt.Errorf("bet deadline must fall before the draw within the week")
	}
	if l.MaxSeriesWeeks < 1 {
		return fmt.Errorf("%s must be at least 1", EnvMaxSeriesWeeks)
	}
	return nil
}

func (l LotteryConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(l.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EnvTimezone, err)
	}
	return loc, nil
}

// ParseClock parses "HH:MM" into an offset from midnight.
func ParseClock(value string) (time.Duration, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q", value)
	}
	return time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute, nil
}

type MetricsConfig struct {
	Port string `envconfig:"DEADPIGEONS_METRICS_PORT" default:"9090"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"DEADPIGEONS_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"DEADPIGEONS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"DEADPIGEONS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	BetsTopic  string `envconfig:"DEADPIGEONS_PUBSUB_BETS_TOPIC" default:"dp-bet-events"`
	GamesTopic string `envconfig:"DEADPIGEONS_PUBSUB_GAMES_TOPIC" default:"dp-game-events"`
}

type KafkaConfig struct {
	Brokers      []string      `envconfig:"DEADPIGEONS_KAFKA_BROKERS"`
	BetsTopic    string        `envconfig:"DEADPIGEONS_KAFKA_BETS_TOPIC" default:"bets.events"`
	GamesTopic   string        `envconfig:"DEADPIGEONS_KAFKA_GAMES_TOPIC" default:"games.events"`
	WriteTimeout time.Duration `envconfig:"DEADPIGEONS_KAFKA_WRITE_TIMEOUT" default:"10s"`
}

// CronConfig drives the cron worker cadence.
type CronConfig struct {
	Interval         time.Duration `envconfig:"DEADPIGEONS_CRON_INTERVAL" default:"1h"`
	JobTimeout       time.Duration `envconfig:"DEADPIGEONS_CRON_JOB_TIMEOUT" default:"5m"`
	LockTTL          time.Duration `envconfig:"DEADPIGEONS_CRON_LOCK_TTL" default:"55m"`
	DrawOverdueBatch int           `envconfig:"DEADPIGEONS_CRON_DRAW_OVERDUE_BATCH" default:"100"`
}

type OutboxConfig struct {
	Transport        string        `envconfig:"DEADPIGEONS_OUTBOX_TRANSPORT" default:"pubsub"`
	BatchSize        int           `envconfig:"DEADPIGEONS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS   int           `envconfig:"DEADPIGEONS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts      int           `envconfig:"DEADPIGEONS_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays    int           `envconfig:"DEADPIGEONS_OUTBOX_RETENTION_DAYS" default:"30"`
	PublishMarkerTTL time.Duration `envconfig:"DEADPIGEONS_OUTBOX_PUBLISH_MARKER_TTL" default:"24h"`
}

func (o OutboxConfig) validate(ps PubSubConfig, kafka KafkaConfig) error {
	switch strings.ToLower(strings.TrimSpace(o.Transport)) {
	case OutboxTransportPubSub:
		if ps.BetsTopic == "" || ps.GamesTopic == "" {
			return fmt.Errorf("pubsub transport requires bets and games topics")
		}
	case OutboxTransportKafka:
		if len(kafka.Brokers) == 0 {
			return fmt.Errorf("%s is required for kafka transport", EnvKafkaBrokers)
		}
		if kafka.BetsTopic == "" || kafka.GamesTopic == "" {
			return fmt.Errorf("kafka transport requires bets and games topics")
		}
	default:
		return fmt.Errorf("%s must be %q or %q", EnvOutboxTransport, OutboxTransportPubSub, OutboxTransportKafka)
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
