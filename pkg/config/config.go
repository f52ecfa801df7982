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
	EnvPrefix = "CREAM"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "CREAM_APP_ENV"
	EnvPort   = "CREAM_APP_PORT"
	EnvDBDSN  = "CREAM_DB_DSN"
	EnvDBHost = "CREAM_DB_HOST"
	EnvDBUser = "CREAM_DB_USER"
	EnvDBName = "CREAM_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App    AppConfig
	DB     DBConfig
	Redis  RedisConfig
	Outbox OutboxConfig
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
	Env          string `envconfig:"CREAM_APP_ENV" required:"true"`
	Port         string `envconfig:"CREAM_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CREAM_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CREAM_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"CREAM_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"CREAM_DB_DSN"`

	LegacyHost     string `envconfig:"CREAM_DB_HOST"`
	LegacyPort     int    `envconfig:"CREAM_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CREAM_DB_USER"`
	LegacyPassword string `envconfig:"CREAM_DB_PASSWORD"`
	LegacyName     string `envconfig:"CREAM_DB_NAME"`
	LegacySSLMode  string `envconfig:"CREAM_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CREAM_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CREAM_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CREAM_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CREAM_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CREAM_REDIS_URL"`
	Address      string        `envconfig:"CREAM_REDIS_ADDR"`
	Password     string        `envconfig:"CREAM_REDIS_PASSWORD"`
	DB           int           `envconfig:"CREAM_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CREAM_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CREAM_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CREAM_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CREAM_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CREAM_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type OutboxConfig struct {
	BatchSize    int           `envconfig:"CREAM_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollInterval time.Duration `envconfig:"CREAM_OUTBOX_PUBLISH_POLL_INTERVAL" default:"500ms"`
	Channel      string        `envconfig:"CREAM_OUTBOX_CHANNEL" default:"cream.domain-events"`
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
