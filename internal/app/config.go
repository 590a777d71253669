package app

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/kelseyhightower/envconfig"

	"github.com/source-impact/admin-dashboard/internal/platform/cache"
)

// Config holds runtime configuration for the dashboard and the worker.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"30s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	BackendURL     string        `envconfig:"BACKEND_URL" required:"true"`
	BackendTimeout time.Duration `envconfig:"BACKEND_TIMEOUT" default:"15s"`
	RouteMemoTTL   time.Duration `envconfig:"ROUTE_MEMO_TTL" default:"24h"`

	SuperAdminEmail string `envconfig:"SUPERADMIN_EMAIL" default:"superadmin@sourceimpact.com"`
	AdminEmail      string `envconfig:"ADMIN_EMAIL" default:"admin@sourceimpact.com"`

	// PGDSN is optional; without it audit entries only go to the log.
	PGDSN      string `envconfig:"PG_DSN"`
	PGMaxConns int32  `envconfig:"PG_MAX_CONNS" default:"4"`

	RedisAddr         string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword     string        `envconfig:"REDIS_PASSWORD"`
	RedisDB           int           `envconfig:"REDIS_DB" default:"0"`
	SessionSecret     string        `envconfig:"SESSION_SECRET" required:"true"`
	SessionTTL        time.Duration `envconfig:"SESSION_TTL" default:"12h"`
	SessionRevalidate time.Duration `envconfig:"SESSION_REVALIDATE" default:"5m"`

	CSRFSecret string `envconfig:"CSRF_SECRET" required:"true"`

	StatsCacheTTL      time.Duration `envconfig:"STATS_CACHE_TTL" default:"60s"`
	RateLimitPerMinute int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
	WorkerConcurrency  int           `envconfig:"WORKER_CONCURRENCY" default:"5"`
	WorkerMetricsAddr  string        `envconfig:"WORKER_METRICS_ADDR" default:":9091"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.SessionSecret == "" {
		return errors.New("session secret must be provided")
	}
	if c.CSRFSecret == "" {
		return errors.New("csrf secret must be provided")
	}
	u, err := url.Parse(strings.TrimSpace(c.BackendURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("backend url must be an absolute URL")
	}
	if c.RateLimitPerMinute <= 0 {
		return errors.New("rate limit must be positive")
	}
	if c.WorkerConcurrency <= 0 {
		return errors.New("worker concurrency must be positive")
	}
	if c.PGMaxConns <= 0 {
		return errors.New("postgres max conns must be positive")
	}
	return nil
}

// Redis returns the connection settings for the shared Redis client.
func (c *Config) Redis() cache.Options {
	return cache.Options{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}

// AsynqRedis returns the same Redis settings in Asynq's form.
func (c *Config) AsynqRedis() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
