// Package syncer orchestrates one catalog sync run: fetch the feed, parse
// and transform the records, build the inverted indexes, and replace the
// stored generation. Completion events and audit rows are best-effort side
// channels; the store write is the run's outcome.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/shopchat/catalog/internal/audit"
	"github.com/shopchat/catalog/internal/catalog"
	"github.com/shopchat/catalog/internal/feed"
	"github.com/shopchat/catalog/internal/index"
	"github.com/shopchat/catalog/pkg/errors"
	"github.com/shopchat/catalog/pkg/kafka"
	"github.com/shopchat/catalog/pkg/metrics"
	"github.com/shopchat/catalog/pkg/tracing"
)

// Trigger sources.
const (
	SourceScheduled = "scheduled"
	SourceManual    = "manual"
)

// FeedSource downloads the raw feed document.
type FeedSource interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// CatalogWriter persists a full catalog generation.
type CatalogWriter interface {
	ReplaceCatalog(ctx context.Context, products []catalog.Product, idx index.Result) error
}

// EventPublisher announces completed syncs.
type EventPublisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// AuditRecorder persists sync run history.
type AuditRecorder interface {
	Record(ctx context.Context, run audit.Run) error
}

// Result is the structured outcome of one sync run.
type Result struct {
	Success   bool      `json:"success"`
	Products  int       `json:"products"`
	Duration  float64   `json:"duration_seconds"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	FeedShape string    `json:"feed_shape,omitempty"`
}

// CompletedEvent is the Kafka payload published after a successful run.
type CompletedEvent struct {
	Products  int       `json:"products"`
	Duration  float64   `json:"duration_seconds"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// Syncer runs catalog syncs. Publisher, audit, and metrics are optional.
type Syncer struct {
	feedURL     string
	source      FeedSource
	transformer *catalog.Transformer
	writer      CatalogWriter
	publisher   EventPublisher
	audit       AuditRecorder
	metrics     *metrics.Metrics
	logger      *slog.Logger
	running     atomic.Bool
}

// New creates a Syncer.
func New(feedURL string, source FeedSource, writer CatalogWriter) *Syncer {
	return &Syncer{
		feedURL:     feedURL,
		source:      source,
		transformer: catalog.NewTransformer(),
		writer:      writer,
		logger:      slog.Default().With("component", "syncer"),
	}
}

// WithPublisher attaches a completion-event publisher.
func (s *Syncer) WithPublisher(p EventPublisher) *Syncer {
	s.publisher = p
	return s
}

// WithAudit attaches an audit recorder.
func (s *Syncer) WithAudit(a AuditRecorder) *Syncer {
	s.audit = a
	return s
}

// WithMetrics attaches Prometheus collectors.
func (s *Syncer) WithMetrics(m *metrics.Metrics) *Syncer {
	s.metrics = m
	return s
}

// Run executes one sync. Only one run is active at a time per process;
// concurrent calls fail fast with ErrSyncInProgress. A run that fails partway
// leaves the store mixed between generations and must be retried.
func (s *Syncer) Run(ctx context.Context, source string) (Result, error) {
	if !s.running.CompareAndSwap(false, true) {
		return Result{}, errors.ErrSyncInProgress
	}
	defer s.running.Store(false)

	start := time.Now()
	s.logger.Info("sync started", "source", source, "feed_url", s.feedURL)

	result, err := s.run(ctx, source, start)
	result.Source = source
	result.Duration = time.Since(start).Seconds()
	result.Timestamp = time.Now().UTC()

	s.report(ctx, result, start, err)
	if err != nil {
		return result, err
	}
	return result, nil
}

func (s *Syncer) run(ctx context.Context, source string, start time.Time) (Result, error) {
	trace := tracing.New("sync", source)
	defer trace.Log()

	stop := trace.Stage("fetch")
	data, err := s.source.Fetch(ctx, s.feedURL)
	stop()
	if err != nil {
		return Result{}, fmt.Errorf("fetching feed: %w", err)
	}

	stop = trace.Stage("parse")
	records, shape, err := feed.Parse(data)
	stop()
	if err != nil {
		return Result{}, fmt.Errorf("parsing feed: %w", err)
	}
	if len(records) == 0 {
		return Result{}, fmt.Errorf("%w: check feed structure or URL", errors.ErrEmptyFeed)
	}
	s.logger.Info("feed parsed", "shape", shape, "records", len(records))

	stop = trace.Stage("transform")
	products := make([]catalog.Product, 0, len(records))
	for _, rec := range records {
		products = append(products, s.transformer.Transform(rec))
	}
	stop()

	stop = trace.Stage("index")
	idx := index.Build(products)
	stop()
	s.logger.Info("index built",
		"word_tokens", len(idx.Words),
		"dropped_tokens", idx.DroppedTokens,
		"categories", len(idx.Categories),
		"brands", len(idx.Brands),
	)

	stop = trace.Stage("store")
	err = s.writer.ReplaceCatalog(ctx, products, idx)
	stop()
	if err != nil {
		return Result{}, fmt.Errorf("persisting catalog: %w", err)
	}

	if s.metrics != nil {
		s.metrics.SyncProducts.Set(float64(len(products)))
		s.metrics.IndexTokensRetained.Set(float64(len(idx.Words)))
		s.metrics.IndexTokensDropped.Set(float64(idx.DroppedTokens))
	}

	return Result{
		Success:   true,
		Products:  len(products),
		FeedShape: shape,
	}, nil
}

// report emits metrics, the completion event, and the audit row. All of it
// is best-effort and must not change the run's outcome.
func (s *Syncer) report(ctx context.Context, result Result, start time.Time, runErr error) {
	status := "success"
	if runErr != nil {
		status = "error"
		s.logger.Error("sync failed", "source", result.Source, "error", runErr)
	} else {
		s.logger.Info("sync completed",
			"source", result.Source,
			"products", result.Products,
			"duration_seconds", result.Duration,
		)
	}

	if s.metrics != nil {
		s.metrics.SyncRunsTotal.WithLabelValues(status, result.Source).Inc()
		s.metrics.SyncDuration.Observe(result.Duration)
	}

	if s.publisher != nil && runErr == nil {
		event := kafka.Event{
			Key: result.Source,
			Value: CompletedEvent{
				Products:  result.Products,
				Duration:  result.Duration,
				Timestamp: result.Timestamp,
				Source:    result.Source,
			},
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("publishing completion event failed", "error", err)
		}
	}

	if s.audit != nil {
		run := audit.Run{
			StartedAt: start.UTC(),
			Duration:  time.Since(start),
			Products:  result.Products,
			Success:   runErr == nil,
			Source:    result.Source,
			FeedShape: result.FeedShape,
		}
		if runErr != nil {
			run.Error = runErr.Error()
		}
		if err := s.audit.Record(ctx, run); err != nil {
			s.logger.Warn("recording audit row failed", "error", err)
		}
	}
}
