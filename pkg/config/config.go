package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix is passed to envconfig; individual tags carry the full name.
	EnvPrefix = "salemarket"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SALEMARKET_DB_DSN"
	EnvDBHost = "SALEMARKET_DB_HOST"
	EnvDBUser = "SALEMARKET_DB_USER"
	EnvDBName = "SALEMARKET_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Carrier      CarrierConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Payout       PayoutConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SALEMARKET_APP_ENV" required:"true"`
	Port         string `envconfig:"SALEMARKET_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SALEMARKET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SALEMARKET_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SALEMARKET_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SALEMARKET_DB_DSN"`
	Driver string `envconfig:"SALEMARKET_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SALEMARKET_DB_HOST"`
	LegacyPort     int    `envconfig:"SALEMARKET_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SALEMARKET_DB_USER"`
	LegacyPassword string `envconfig:"SALEMARKET_DB_PASSWORD"`
	LegacyName     string `envconfig:"SALEMARKET_DB_NAME"`
	LegacySSLMode  string `envconfig:"SALEMARKET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SALEMARKET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SALEMARKET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SALEMARKET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SALEMARKET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SALEMARKET_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SALEMARKET_REDIS_ADDR"`
	Password     string        `envconfig:"SALEMARKET_REDIS_PASSWORD"`
	DB           int           `envconfig:"SALEMARKET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SALEMARKET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SALEMARKET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SALEMARKET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SALEMARKET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SALEMARKET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CarrierConfig holds GHN shipping API credentials and timeouts.
type CarrierConfig struct {
	APIURL         string        `envconfig:"SALEMARKET_GHN_API_URL" required:"true"`
	Token          string        `envconfig:"SALEMARKET_GHN_TOKEN" required:"true"`
	ShopID         string        `envconfig:"SALEMARKET_GHN_SHOP_ID" required:"true"`
	RequestTimeout time.Duration `envconfig:"SALEMARKET_GHN_REQUEST_TIMEOUT" default:"10s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SALEMARKET_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"SALEMARKET_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SALEMARKET_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"SALEMARKET_PUBSUB_NOTIFICATION_TOPIC" default:"sm-notification-events"`
	NotificationSubscription string `envconfig:"SALEMARKET_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"SALEMARKET_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"SALEMARKET_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"SALEMARKET_OUTBOX_MAX_ATTEMPTS" default:"10"`
	IdempotencyTTL time.Duration `envconfig:"SALEMARKET_OUTBOX_IDEMPOTENCY_TTL" default:"72h"`
}

// PayoutConfig drives the payout reconciliation worker.
type PayoutConfig struct {
	Interval  time.Duration `envconfig:"SALEMARKET_PAYOUT_INTERVAL" default:"5m"`
	BatchSize int           `envconfig:"SALEMARKET_PAYOUT_BATCH_SIZE" default:"100"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SALEMARKET_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SALEMARKET_AUTO_MIGRATE" default:"false"`
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
