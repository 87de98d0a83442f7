package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Square    SquareConfig
	Sync      SyncConfig
	Repricing RepricingConfig
	Cron      CronConfig
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
	Env          string `envconfig:"LISTKEEPER_APP_ENV" required:"true"`
	Port         string `envconfig:"LISTKEEPER_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"LISTKEEPER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LISTKEEPER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LISTKEEPER_DB_DSN"`
	Driver string `envconfig:"LISTKEEPER_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LISTKEEPER_DB_HOST"`
	LegacyPort     int    `envconfig:"LISTKEEPER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LISTKEEPER_DB_USER"`
	LegacyPassword string `envconfig:"LISTKEEPER_DB_PASSWORD"`
	LegacyName     string `envconfig:"LISTKEEPER_DB_NAME"`
	LegacySSLMode  string `envconfig:"LISTKEEPER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LISTKEEPER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LISTKEEPER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LISTKEEPER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LISTKEEPER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LISTKEEPER_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LISTKEEPER_REDIS_ADDR"`
	Password     string        `envconfig:"LISTKEEPER_REDIS_PASSWORD"`
	DB           int           `envconfig:"LISTKEEPER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LISTKEEPER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LISTKEEPER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LISTKEEPER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LISTKEEPER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LISTKEEPER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type SquareConfig struct {
	AccessToken string `envconfig:"LISTKEEPER_SQUARE_ACCESS_TOKEN"`
	Env         string `envconfig:"LISTKEEPER_SQUARE_ENV" default:"sandbox"`
	LocationID  string `envconfig:"LISTKEEPER_SQUARE_LOCATION_ID"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

// SyncConfig tunes the reconciliation and inventory verification loops.
type SyncConfig struct {
	PageSize       int           `envconfig:"LISTKEEPER_SYNC_PAGE_SIZE" default:"100"`
	RequestTimeout time.Duration `envconfig:"LISTKEEPER_SYNC_REQUEST_TIMEOUT" default:"15s"`
	InventoryDelay time.Duration `envconfig:"LISTKEEPER_SYNC_INVENTORY_DELAY" default:"2s"`
}

// RepricingConfig carries platform-wide repricing defaults.
type RepricingConfig struct {
	DefaultFeeRate float64 `envconfig:"LISTKEEPER_REPRICING_DEFAULT_FEE_RATE" default:"0.15"`
}

type CronConfig struct {
	Interval  time.Duration `envconfig:"LISTKEEPER_CRON_INTERVAL" default:"6h"`
	LockScope string        `envconfig:"LISTKEEPER_CRON_LOCK_SCOPE" default:"full-sync"`
	LockTTL   time.Duration `envconfig:"LISTKEEPER_CRON_LOCK_TTL" default:"7h"`
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
