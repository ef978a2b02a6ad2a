// Command assistant runs the catalog query service.
//
// It serves the retrieval side of the shop chat: each user message is
// classified into an intent, matching products are pulled from the Redis
// catalog via the inverted indexes, and the result is rendered into a
// context block for the downstream completion service. A debug endpoint
// exposes raw search and catalog statistics.
//
// Usage:
//
//	go run ./cmd/assistant [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/shopchat/catalog/internal/assistant"
	asthandler "github.com/shopchat/catalog/internal/assistant/handler"
	"github.com/shopchat/catalog/internal/intent"
	"github.com/shopchat/catalog/internal/search"
	"github.com/shopchat/catalog/internal/store"
	"github.com/shopchat/catalog/internal/syncer"
	"github.com/shopchat/catalog/pkg/config"
	"github.com/shopchat/catalog/pkg/health"
	"github.com/shopchat/catalog/pkg/kafka"
	"github.com/shopchat/catalog/pkg/logger"
	"github.com/shopchat/catalog/pkg/metrics"
	"github.com/shopchat/catalog/pkg/middleware"
	"github.com/shopchat/catalog/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ValidateAssistant(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting assistant service", "port", cfg.Server.Port)

	m := metrics.New()
	var metricsShutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		metricsShutdown = metrics.StartServer(cfg.Metrics.Port)
	}

	rdb, err := redis.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()
	slog.Info("connected to redis", "addr", cfg.Redis.Addr)

	catalogStore := store.New(rdb, cfg.Sync)
	engine := search.New(catalogStore, m)

	var rules []intent.Rule
	if cfg.Intent.RulesPath != "" {
		rules, err = intent.LoadRules(cfg.Intent.RulesPath)
		if err != nil {
			slog.Error("failed to load intent rules", "path", cfg.Intent.RulesPath, "error", err)
			os.Exit(1)
		}
		slog.Info("loaded intent rules", "path", cfg.Intent.RulesPath, "rules", len(rules))
	}
	classifier := intent.New(rules)

	ast := assistant.New(engine, catalogStore, classifier, m)
	h := asthandler.New(ast, engine, catalogStore, cfg.Search.DefaultLimit, cfg.Search.MaxResults)

	checker := health.NewChecker()
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		start := time.Now()
		if err := catalogStore.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp, Latency: time.Since(start).String()}
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/query", h.Query)
	mux.HandleFunc("/api/v1/search", h.Debug)
	mux.HandleFunc("/health/live", checker.LiveHandler())
	mux.HandleFunc("/health/ready", checker.ReadyHandler())

	chain := middleware.RequestID(
		middleware.RateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)(
			middleware.Timeout(cfg.Server.WriteTimeout)(
				middleware.Metrics(m)(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Sync completion events advertise fresh catalog generations. The read
	// path always hits Redis directly, so the consumer only logs for now.
	if cfg.Kafka.Enabled() {
		consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.SyncCompleted, onSyncCompleted)
		defer consumer.Close()
		go func() {
			if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
				slog.Error("sync event consumer error", "error", err)
			}
		}()
		slog.Info("consuming sync events", "topic", cfg.Kafka.Topics.SyncCompleted)
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		if metricsShutdown != nil {
			if err := metricsShutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}
	}()

	slog.Info("assistant service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("assistant service stopped")
}

func onSyncCompleted(ctx context.Context, key []byte, value []byte) error {
	event, err := kafka.DecodeJSON[syncer.CompletedEvent](value)
	if err != nil {
		slog.Warn("undecodable sync event", "error", err)
		return nil
	}
	slog.Info("catalog generation replaced",
		"products", event.Products,
		"duration_seconds", event.Duration,
		"source", event.Source,
	)
	return nil
}
