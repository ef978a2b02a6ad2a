// Command syncer runs the catalog sync service.
//
// On a fixed interval (daily by default) it downloads the product XML feed,
// normalizes every record, rebuilds the inverted word, category, and brand
// indexes, and replaces the catalog generation in Redis. It also exposes an
// HTTP endpoint for triggering a sync manually and, when PostgreSQL is
// configured, for listing the sync audit history.
//
// Usage:
//
//	go run ./cmd/syncer [-config configs/development.yaml] [-sync-now]
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

	"github.com/shopchat/catalog/internal/audit"
	"github.com/shopchat/catalog/internal/feed"
	"github.com/shopchat/catalog/internal/store"
	"github.com/shopchat/catalog/internal/syncer"
	synchandler "github.com/shopchat/catalog/internal/syncer/handler"
	"github.com/shopchat/catalog/pkg/config"
	"github.com/shopchat/catalog/pkg/health"
	"github.com/shopchat/catalog/pkg/kafka"
	"github.com/shopchat/catalog/pkg/logger"
	"github.com/shopchat/catalog/pkg/metrics"
	"github.com/shopchat/catalog/pkg/middleware"
	"github.com/shopchat/catalog/pkg/postgres"
	"github.com/shopchat/catalog/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	syncNow := flag.Bool("sync-now", false, "run a sync immediately on startup")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ValidateSync(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting sync service",
		"port", cfg.Server.Port,
		"feed_url", cfg.Feed.URL,
		"interval", cfg.Sync.Interval,
	)

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
	fetcher := feed.NewFetcher(cfg.Feed)

	sync := syncer.New(cfg.Feed.URL, fetcher, catalogStore).WithMetrics(m)

	checker := health.NewChecker()
	checker.Register("redis", redisCheck(catalogStore))

	// Sync audit history lives in PostgreSQL; an empty host disables it.
	var history *audit.Log
	if cfg.Postgres.Enabled() {
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		history = audit.NewLog(db)
		sync = sync.WithAudit(history)
		checker.Register("postgres", postgresCheck(db))
		slog.Info("sync audit log enabled", "host", cfg.Postgres.Host)
	}

	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SyncCompleted)
		defer producer.Close()
		sync = sync.WithPublisher(producer)
		slog.Info("sync event publishing enabled", "topic", cfg.Kafka.Topics.SyncCompleted)
	}

	h := synchandler.New(sync, historyOrNil(history))

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/sync", h.Trigger)
	mux.HandleFunc("/api/v1/sync/history", h.History)
	mux.HandleFunc("/health/live", checker.LiveHandler())
	mux.HandleFunc("/health/ready", checker.ReadyHandler())

	chain := middleware.RequestID(middleware.Metrics(m)(mux))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Feed.FetchTimeout + 30*time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go runSchedule(ctx, sync, cfg.Sync.Interval, *syncNow)

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

	slog.Info("sync service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("sync service stopped")
}

// runSchedule runs syncs on a fixed interval until ctx is cancelled. A
// failed scheduled run is logged and retried at the next tick.
func runSchedule(ctx context.Context, sync *syncer.Syncer, interval time.Duration, immediate bool) {
	if immediate {
		if _, err := sync.Run(ctx, syncer.SourceScheduled); err != nil {
			slog.Error("startup sync failed", "error", err)
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := sync.Run(ctx, syncer.SourceScheduled); err != nil {
				slog.Error("scheduled sync failed", "error", err)
			}
		}
	}
}

// historyOrNil converts a possibly-nil *audit.Log into the handler's
// interface without producing a non-nil interface holding a nil pointer.
func historyOrNil(history *audit.Log) synchandler.HistoryReader {
	if history == nil {
		return nil
	}
	return history
}

func redisCheck(s *store.Store) health.Check {
	return func(ctx context.Context) health.ComponentHealth {
		start := time.Now()
		if err := s.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp, Latency: time.Since(start).String()}
	}
}

func postgresCheck(db *postgres.Client) health.Check {
	return func(ctx context.Context) health.ComponentHealth {
		start := time.Now()
		if err := db.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp, Latency: time.Since(start).String()}
	}
}
