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
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Inventory    InventoryConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SELLORA_APP_ENV" required:"true"`
	Port         string `envconfig:"SELLORA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SELLORA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SELLORA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SELLORA_DB_DSN"`
	Driver string `envconfig:"SELLORA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SELLORA_DB_HOST"`
	LegacyPort     int    `envconfig:"SELLORA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SELLORA_DB_USER"`
	LegacyPassword string `envconfig:"SELLORA_DB_PASSWORD"`
	LegacyName     string `envconfig:"SELLORA_DB_NAME"`
	LegacySSLMode  string `envconfig:"SELLORA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SELLORA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SELLORA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SELLORA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SELLORA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SELLORA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SELLORA_REDIS_ADDR"`
	Password     string        `envconfig:"SELLORA_REDIS_PASSWORD"`
	DB           int           `envconfig:"SELLORA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SELLORA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SELLORA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SELLORA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SELLORA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SELLORA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SELLORA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SELLORA_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"SELLORA_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SELLORA_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"SELLORA_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SELLORA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrderStatusTopic        string `envconfig:"SELLORA_PUBSUB_ORDER_STATUS_TOPIC" required:"true"`
	OrderStatusSubscription string `envconfig:"SELLORA_PUBSUB_ORDER_STATUS_SUBSCRIPTION" required:"true"`
	InventoryTopic          string `envconfig:"SELLORA_PUBSUB_INVENTORY_TOPIC" required:"true"`
}

type InventoryConfig struct {
	ReservationTTL      time.Duration `envconfig:"SELLORA_INVENTORY_RESERVATION_TTL" default:"30m"`
	ExpirySweepInterval time.Duration `envconfig:"SELLORA_INVENTORY_EXPIRY_SWEEP_INTERVAL" default:"1m"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SELLORA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SELLORA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SELLORA_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
