// Package sink persists report events of confirmed tracks.
package sink

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/LdDl/eeltrack/internal/summary"
	"github.com/LdDl/eeltrack/mot"
)

// Sink receives report events in frame order
type Sink interface {
	Write(ctx context.Context, event mot.Event) error
	Close() error
}

// RunRecorder is implemented by sinks which keep per-run bookkeeping
type RunRecorder interface {
	FinishRun(ctx context.Context, stats RunStats) error
	WriteSummaries(ctx context.Context, summaries []summary.TrackSummary) error
}

// RunInfo identifies a single processing run
type RunInfo struct {
	ID        uuid.UUID
	Source    string
	StartedAt time.Time
}

// NewRunInfo creates run with fresh identifier
func NewRunInfo(source string) RunInfo {
	return RunInfo{
		ID:        uuid.New(),
		Source:    source,
		StartedAt: time.Now().UTC(),
	}
}

// RunStats is written when the run is over
type RunStats struct {
	Frames     int
	Tracks     int
	Confirmed  int
	Reports    int
	FinishedAt time.Time
}
