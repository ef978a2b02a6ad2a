package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Feed.FetchTimeout != 60*time.Second {
		t.Errorf("Feed.FetchTimeout = %v, want 60s", cfg.Feed.FetchTimeout)
	}
	if cfg.Feed.MaxBytes != 100<<20 {
		t.Errorf("Feed.MaxBytes = %d, want 100MiB", cfg.Feed.MaxBytes)
	}
	if cfg.Sync.Interval != 24*time.Hour {
		t.Errorf("Sync.Interval = %v, want 24h", cfg.Sync.Interval)
	}
	if cfg.Sync.BatchSize != 100 {
		t.Errorf("Sync.BatchSize = %d, want 100", cfg.Sync.BatchSize)
	}
	if cfg.Search.DefaultLimit != 15 || cfg.Search.MaxResults != 50 {
		t.Errorf("Search = %+v", cfg.Search)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
server:
  port: 9999
feed:
  url: "https://example.com/feed.xml"
  fetchTimeout: 30s
redis:
  addr: "redis:6379"
sync:
  batchSize: 50
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Feed.URL != "https://example.com/feed.xml" {
		t.Errorf("Feed.URL = %q", cfg.Feed.URL)
	}
	if cfg.Feed.FetchTimeout != 30*time.Second {
		t.Errorf("Feed.FetchTimeout = %v, want 30s", cfg.Feed.FetchTimeout)
	}
	if cfg.Sync.BatchSize != 50 {
		t.Errorf("Sync.BatchSize = %d, want 50", cfg.Sync.BatchSize)
	}
	// Untouched sections keep their defaults.
	if cfg.Search.DefaultLimit != 15 {
		t.Errorf("Search.DefaultLimit = %d, want default 15", cfg.Search.DefaultLimit)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Load() error = nil for missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CS_FEED_URL", "https://env.example.com/feed.xml")
	t.Setenv("CS_REDIS_ADDR", "env-redis:6379")
	t.Setenv("CS_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("CS_SYNC_INTERVAL", "1h")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Feed.URL != "https://env.example.com/feed.xml" {
		t.Errorf("Feed.URL = %q", cfg.Feed.URL)
	}
	if cfg.Redis.Addr != "env-redis:6379" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("Kafka.Brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.Sync.Interval != time.Hour {
		t.Errorf("Sync.Interval = %v, want 1h", cfg.Sync.Interval)
	}
}

func TestLegacyFeedURLAlias(t *testing.T) {
	t.Setenv("XML_URL", "https://legacy.example.com/feed.xml")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Feed.URL != "https://legacy.example.com/feed.xml" {
		t.Errorf("Feed.URL = %q, want legacy alias value", cfg.Feed.URL)
	}

	// CS_FEED_URL wins over the legacy alias.
	t.Setenv("CS_FEED_URL", "https://new.example.com/feed.xml")
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Feed.URL != "https://new.example.com/feed.xml" {
		t.Errorf("Feed.URL = %q, want CS_FEED_URL value", cfg.Feed.URL)
	}
}

func TestValidateSync(t *testing.T) {
	cfg, _ := Load("")
	cfg.Feed.URL = ""
	if err := cfg.ValidateSync(); err == nil {
		t.Error("ValidateSync() = nil without a feed URL")
	}
	cfg.Feed.URL = "https://example.com/feed.xml"
	if err := cfg.ValidateSync(); err != nil {
		t.Errorf("ValidateSync() = %v with a complete config", err)
	}
}

func TestOptionalSubsystems(t *testing.T) {
	cfg, _ := Load("")
	if cfg.Postgres.Enabled() {
		t.Error("Postgres.Enabled() = true without a host")
	}
	if cfg.Kafka.Enabled() {
		t.Error("Kafka.Enabled() = true without brokers")
	}
	cfg.Postgres.Host = "db"
	cfg.Kafka.Brokers = []string{"k1:9092"}
	if !cfg.Postgres.Enabled() || !cfg.Kafka.Enabled() {
		t.Error("subsystems should be enabled once configured")
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "pw", Database: "catalog", SSLMode: "disable"}
	want := "host=db port=5432 user=u password=pw dbname=catalog sslmode=disable"
	if got := p.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
