// Package tracing times the stages of a multi-step operation and logs them
// as structured records. The sync pipeline uses it to attribute run time to
// fetch, parse, transform, index, and store phases.
package tracing

import (
	"log/slog"
	"sync"
	"time"
)

// Trace collects stage timings for one operation.
type Trace struct {
	name  string
	id    string
	start time.Time

	mu     sync.Mutex
	stages []stage
}

type stage struct {
	name     string
	duration time.Duration
}

// New starts a Trace. id correlates the trace with its surrounding log
// records (the sync source, a request id).
func New(name, id string) *Trace {
	return &Trace{name: name, id: id, start: time.Now()}
}

// Stage starts timing a named stage and returns the function that stops it.
// Stages are recorded in completion order.
func (t *Trace) Stage(name string) func() {
	start := time.Now()
	return func() {
		t.mu.Lock()
		t.stages = append(t.stages, stage{name: name, duration: time.Since(start)})
		t.mu.Unlock()
	}
}

// Log writes one record per stage plus a total, all carrying the trace name
// and id.
func (t *Trace) Log() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.stages {
		slog.Info("stage timing",
			"trace", t.name,
			"id", t.id,
			"stage", s.name,
			"duration_ms", s.duration.Milliseconds(),
		)
	}
	slog.Info("stage timing",
		"trace", t.name,
		"id", t.id,
		"stage", "total",
		"duration_ms", time.Since(t.start).Milliseconds(),
	)
}
