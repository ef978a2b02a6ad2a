// Package config loads and validates application configuration from YAML
// files with environment-variable overrides. It provides typed structs for
// every subsystem (Server, Feed, Redis, Postgres, Kafka, Sync, Search, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Feed     FeedConfig     `yaml:"feed"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Sync     SyncConfig     `yaml:"sync"`
	Search   SearchConfig   `yaml:"search"`
	Intent   IntentConfig   `yaml:"intent"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RateLimitRPS    float64       `yaml:"rateLimitRps"`
	RateLimitBurst  int           `yaml:"rateLimitBurst"`
}

// FeedConfig holds the product feed source and fetch limits.
type FeedConfig struct {
	URL          string        `yaml:"url"`
	FetchTimeout time.Duration `yaml:"fetchTimeout"`
	MaxBytes     int64         `yaml:"maxBytes"`
	UserAgent    string        `yaml:"userAgent"`
}

// RedisConfig holds Redis connection parameters for the catalog store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"poolSize"`
}

// PostgresConfig holds PostgreSQL connection parameters for the sync audit
// log. The audit log is optional; an empty host disables it.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// Enabled reports whether the audit log is configured.
func (p PostgresConfig) Enabled() bool {
	return p.Host != ""
}

// KafkaConfig holds Kafka broker and topic settings. Brokers may be empty,
// in which case sync events are not published.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// Enabled reports whether event publishing is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	SyncCompleted string `yaml:"syncCompleted"`
}

// SyncConfig controls the sync scheduler and store write batching.
type SyncConfig struct {
	Interval     time.Duration `yaml:"interval"`
	BatchSize    int           `yaml:"batchSize"`
	WriteWorkers int           `yaml:"writeWorkers"`
}

// SearchConfig controls query execution limits.
type SearchConfig struct {
	DefaultLimit int `yaml:"defaultLimit"`
	MaxResults   int `yaml:"maxResults"`
}

// IntentConfig points at an optional YAML file overriding the built-in
// intent rule table.
type IntentConfig struct {
	RulesPath string `yaml:"rulesPath"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// ValidateSync checks the settings the sync service cannot run without.
func (c *Config) ValidateSync() error {
	if c.Feed.URL == "" {
		return fmt.Errorf("feed.url is not configured (CS_FEED_URL)")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is not configured (CS_REDIS_ADDR)")
	}
	return nil
}

// ValidateAssistant checks the settings the assistant service cannot run
// without.
func (c *Config) ValidateAssistant() error {
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is not configured (CS_REDIS_ADDR)")
	}
	return nil
}

// defaultConfig returns a Config with production-ready defaults for local
// development.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RateLimitRPS:    20,
			RateLimitBurst:  40,
		},
		Feed: FeedConfig{
			FetchTimeout: 60 * time.Second,
			MaxBytes:     100 << 20,
			UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
		},
		Postgres: PostgresConfig{
			Port:            5432,
			Database:        "catalog",
			User:            "catalog",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			ConsumerGroup: "catalog-assistant",
			Topics: KafkaTopics{
				SyncCompleted: "catalog.sync.completed",
			},
		},
		Sync: SyncConfig{
			Interval:     24 * time.Hour,
			BatchSize:    100,
			WriteWorkers: 4,
		},
		Search: SearchConfig{
			DefaultLimit: 15,
			MaxResults:   50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads CS_* environment variables and overrides the
// corresponding config fields. XML_URL is honoured as a legacy alias for
// the feed source.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CS_FEED_URL"); v != "" {
		cfg.Feed.URL = v
	}
	if v := os.Getenv("XML_URL"); v != "" && cfg.Feed.URL == "" {
		cfg.Feed.URL = v
	}
	if v := os.Getenv("CS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("CS_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("CS_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = db
		}
	}
	if v := os.Getenv("CS_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("CS_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("CS_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("CS_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("CS_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("CS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CS_SYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sync.Interval = d
		}
	}
	if v := os.Getenv("CS_INTENT_RULES"); v != "" {
		cfg.Intent.RulesPath = v
	}
	if v := os.Getenv("CS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("CS_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
