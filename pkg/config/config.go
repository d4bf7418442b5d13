package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable the service reads.
	EnvPrefix = "MARKETSPLIT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "MARKETSPLIT_DB_DSN"
	EnvDBHost = "MARKETSPLIT_DB_HOST"
	EnvDBUser = "MARKETSPLIT_DB_USER"
	EnvDBName = "MARKETSPLIT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	APIKey       APIKeyConfig
	FeatureFlags FeatureFlagsConfig
	Commission   CommissionConfig
	Payout       PayoutConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Commission.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Payout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MARKETSPLIT_APP_ENV" required:"true"`
	Port         string `envconfig:"MARKETSPLIT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MARKETSPLIT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MARKETSPLIT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"MARKETSPLIT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"MARKETSPLIT_DB_DSN"`
	Driver string `envconfig:"MARKETSPLIT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MARKETSPLIT_DB_HOST"`
	LegacyPort     int    `envconfig:"MARKETSPLIT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MARKETSPLIT_DB_USER"`
	LegacyPassword string `envconfig:"MARKETSPLIT_DB_PASSWORD"`
	LegacyName     string `envconfig:"MARKETSPLIT_DB_NAME"`
	LegacySSLMode  string `envconfig:"MARKETSPLIT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MARKETSPLIT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MARKETSPLIT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MARKETSPLIT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MARKETSPLIT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MARKETSPLIT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MARKETSPLIT_REDIS_ADDR"`
	Password     string        `envconfig:"MARKETSPLIT_REDIS_PASSWORD"`
	DB           int           `envconfig:"MARKETSPLIT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MARKETSPLIT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MARKETSPLIT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MARKETSPLIT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MARKETSPLIT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MARKETSPLIT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MARKETSPLIT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MARKETSPLIT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MARKETSPLIT_JWT_EXPIRATION_MINUTES" default:"60"`
}

// APIKeyConfig holds the Argon2id parameters used to hash seller API keys.
type APIKeyConfig struct {
	ArgonMemoryKB    int `envconfig:"MARKETSPLIT_APIKEY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MARKETSPLIT_APIKEY_ARGON_TIME" default:"1"`
	ArgonParallelism int `envconfig:"MARKETSPLIT_APIKEY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MARKETSPLIT_APIKEY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MARKETSPLIT_APIKEY_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MARKETSPLIT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MARKETSPLIT_AUTO_MIGRATE" default:"false"`
}

// CommissionConfig carries the platform-wide split defaults. DefaultRate
// applies to any seller without an explicit per-seller override.
type CommissionConfig struct {
	DefaultRate float64 `envconfig:"MARKETSPLIT_COMMISSION_DEFAULT_RATE" default:"0.15"`
}

func (c CommissionConfig) validate() error {
	if c.DefaultRate < 0 || c.DefaultRate > 1 {
		return fmt.Errorf("commission default rate must be within [0,1], got %v", c.DefaultRate)
	}
	return nil
}

// PayoutConfig controls the escrow release cadence and batching.
type PayoutConfig struct {
	ReleaseInterval         time.Duration `envconfig:"MARKETSPLIT_PAYOUT_RELEASE_INTERVAL" default:"168h"`
	ReleaseBatchSize        int           `envconfig:"MARKETSPLIT_PAYOUT_RELEASE_BATCH_SIZE" default:"200"`
	DefaultMinimumThreshold int           `envconfig:"MARKETSPLIT_PAYOUT_DEFAULT_MINIMUM_THRESHOLD_CENTS" default:"0"`
}

func (p PayoutConfig) validate() error {
	if p.ReleaseInterval <= 0 {
		return fmt.Errorf("payout release interval must be positive, got %v", p.ReleaseInterval)
	}
	if p.ReleaseBatchSize <= 0 {
		return fmt.Errorf("payout release batch size must be positive, got %d", p.ReleaseBatchSize)
	}
	return nil
}

type EventingConfig struct {
	IdempotencyTTL   time.Duration `envconfig:"MARKETSPLIT_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
	OutboxRetention  time.Duration `envconfig:"MARKETSPLIT_OUTBOX_RETENTION" default:"168h"`
	CronTickInterval time.Duration `envconfig:"MARKETSPLIT_CRON_TICK_INTERVAL" default:"24h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"MARKETSPLIT_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"MARKETSPLIT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"MARKETSPLIT_GCP_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic           string `envconfig:"MARKETSPLIT_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription    string `envconfig:"MARKETSPLIT_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
	PayoutsTopic          string `envconfig:"MARKETSPLIT_PUBSUB_PAYOUTS_TOPIC" required:"true"`
	AnalyticsSubscription string `envconfig:"MARKETSPLIT_PUBSUB_ANALYTICS_SUBSCRIPTION" required:"true"`
}

type BigQueryConfig struct {
	Dataset                string `envconfig:"MARKETSPLIT_BIGQUERY_DATASET" default:"marketsplit"`
	MarketplaceEventsTable string `envconfig:"MARKETSPLIT_BIGQUERY_MARKETPLACE_TABLE" default:"marketplace_events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"MARKETSPLIT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"MARKETSPLIT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"MARKETSPLIT_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
