package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	defaultSessionTTL             = 7 * 24 * time.Hour
	defaultSessionCleanupInterval = 8 * time.Hour
	defaultLoginRateLimitPerMin   = 15
)

type Config struct {
	Environment string `toml:"-"`

	Host string `toml:"host"`
	Port int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	PostgresUser   string `toml:"postgres_user"`

	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// auth
	SessionTTL                  Duration `toml:"session_ttl"`
	SessionCleanupInterval      Duration `toml:"session_cleanup_interval"`
	LoginRateLimitAllowedPerMin int      `toml:"login_rate_limit_allowed_per_min"`

	AllowedOrigins []string `toml:"allowed_origins"`
}

// Duration reads TOML strings like "168h" or "30m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
	case "prod", "production":
		cfg = t.Production
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	return cfg, nil
}

// Load reads the TOML file at path and returns the section of env, defaults applied.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	cfg.Environment = strings.ToLower(env)
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", env, err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.SessionTTL.Duration == 0 {
		c.SessionTTL.Duration = defaultSessionTTL
	}
	if c.SessionCleanupInterval.Duration == 0 {
		c.SessionCleanupInterval.Duration = defaultSessionCleanupInterval
	}
	if c.LoginRateLimitAllowedPerMin == 0 {
		c.LoginRateLimitAllowedPerMin = defaultLoginRateLimitPerMin
	}
}

func (c *Config) validate() error {
	if c.Port <= 0 {
		return errors.New("port not set")
	}
	if c.PostgresHost == "" || c.PostgresPort == "" || c.PostgresDBName == "" {
		return errors.New("postgres host, port or db name not set")
	}
	if c.RedisHost == "" || c.RedisPort == "" {
		return errors.New("redis host or port not set")
	}
	return nil
}
