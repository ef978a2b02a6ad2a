// Package audit records completed sync runs in PostgreSQL for operational
// history. Recording is best-effort: an audit failure never fails the sync.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/shopchat/catalog/pkg/postgres"
)

// Run is one audit row.
type Run struct {
	StartedAt time.Time
	Duration  time.Duration
	Products  int
	Success   bool
	Source    string
	FeedShape string
	Error     string
}

// Log writes sync runs to the sync_runs table.
type Log struct {
	pg *postgres.Client
}

// NewLog creates a Log over an open Postgres client.
func NewLog(pg *postgres.Client) *Log {
	return &Log{pg: pg}
}

// Record inserts one run.
func (l *Log) Record(ctx context.Context, run Run) error {
	const q = `
		INSERT INTO sync_runs
			(started_at, duration_ms, products, success, source, feed_shape, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := l.pg.DB.ExecContext(ctx, q,
		run.StartedAt,
		run.Duration.Milliseconds(),
		run.Products,
		run.Success,
		run.Source,
		run.FeedShape,
		run.Error,
	)
	if err != nil {
		return fmt.Errorf("inserting sync run: %w", err)
	}
	return nil
}

// Recent returns the most recent runs, newest first.
func (l *Log) Recent(ctx context.Context, limit int) ([]Run, error) {
	const q = `
		SELECT started_at, duration_ms, products, success, source, feed_shape, error
		FROM sync_runs
		ORDER BY started_at DESC
		LIMIT $1`
	rows, err := l.pg.DB.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sync runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var durationMS int64
		if err := rows.Scan(&run.StartedAt, &durationMS, &run.Products, &run.Success, &run.Source, &run.FeedShape, &run.Error); err != nil {
			return nil, fmt.Errorf("scanning sync run: %w", err)
		}
		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
