/*
Package config loads runtime configuration from the environment.

PURPOSE:
  One Config struct for the whole service, filled by envconfig. Defaults
  make a bare `./server` runnable with sqlite on disk and every optional
  collaborator (remote pricing, redis, kafka) switched off.

ENVIRONMENT:
  PORT                      HTTP port (8080)
  DB_PATH                   SQLite path (quotes.db), ":memory:" allowed
  LOG_LEVEL                 debug|info|warn|error (info)
  LOG_FORMAT                json|text (json)
  LOG_FILE                  optional log file, stdout otherwise
  DEPOSIT_PERCENT           deposit share used when no tariff is stored (0.5)
  CURRENCY_SYMBOL           prefix of formatted amounts (R)
  PRICING_URL               remote pricing endpoint, empty disables refresh
  PRICING_REFRESH_INTERVAL  refresh period (15m)
  PRICING_TIMEOUT           per-request timeout (9s)
  REDIS_ENABLED, REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, QUOTE_CACHE_TTL
  KAFKA_ENABLED, KAFKA_BROKERS, KAFKA_TOPIC_BOOKINGS
  CORS_ORIGINS              comma separated allowed origins

SEE ALSO:
  - cmd/server/main.go: flags that override PORT and DB_PATH
  - logger/logger.go: consumes LoggerConfig
*/
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is the full service configuration.
type Config struct {
	Server  ServerConfig
	Logger  LoggerConfig
	Pricing PricingConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
}

// ServerConfig covers the HTTP listener and the database file.
type ServerConfig struct {
	Port        int      `envconfig:"PORT" default:"8080"`
	DBPath      string   `envconfig:"DB_PATH" default:"quotes.db"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173,http://localhost:8080"`
}

// LoggerConfig selects level, format and destination of the logger.
type LoggerConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
	File   string `envconfig:"LOG_FILE"`
}

// PricingConfig covers tariff defaults and the remote pricing source.
type PricingConfig struct {
	DepositPercent  float64       `envconfig:"DEPOSIT_PERCENT" default:"0.5"`
	CurrencySymbol  string        `envconfig:"CURRENCY_SYMBOL" default:"R"`
	URL             string        `envconfig:"PRICING_URL"`
	RefreshInterval time.Duration `envconfig:"PRICING_REFRESH_INTERVAL" default:"15m"`
	Timeout         time.Duration `envconfig:"PRICING_TIMEOUT" default:"9s"`
}

// RefreshEnabled reports whether a remote pricing source is configured.
func (p PricingConfig) RefreshEnabled() bool {
	return p.URL != ""
}

// RedisConfig configures the quote cache.
type RedisConfig struct {
	Enabled  bool          `envconfig:"REDIS_ENABLED" default:"false"`
	Addr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	TTL      time.Duration `envconfig:"QUOTE_CACHE_TTL" default:"10m"`
}

// KafkaConfig configures the booking publisher.
type KafkaConfig struct {
	Enabled       bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	Brokers       []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	TopicBookings string   `envconfig:"KAFKA_TOPIC_BOOKINGS" default:"bookings"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the service cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Server.Port)
	}
	if c.Pricing.DepositPercent < 0 || c.Pricing.DepositPercent > 1 {
		return fmt.Errorf("DEPOSIT_PERCENT must be between 0 and 1, got %v", c.Pricing.DepositPercent)
	}
	if c.Pricing.RefreshEnabled() && c.Pricing.RefreshInterval <= 0 {
		return fmt.Errorf("PRICING_REFRESH_INTERVAL must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	return nil
}
