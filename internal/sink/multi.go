package sink

import (
	"context"

	"github.com/pkg/errors"

	"github.com/LdDl/eeltrack/internal/summary"
	"github.com/LdDl/eeltrack/mot"
)

// Multi fans events out to several sinks in registration order
type Multi struct {
	sinks []Sink
}

func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

// Add registers one more sink
func (m *Multi) Add(s Sink) {
	m.sinks = append(m.sinks, s)
}

// Len returns number of registered sinks
func (m *Multi) Len() int {
	return len(m.sinks)
}

// Write stops at the first failing sink
func (m *Multi) Write(ctx context.Context, event mot.Event) error {
	for _, s := range m.sinks {
		if err := s.Write(ctx, event); err != nil {
			return err
		}
	}
	return nil
}

func (m *Multi) FinishRun(ctx context.Context, stats RunStats) error {
	for _, s := range m.sinks {
		recorder, ok := s.(RunRecorder)
		if !ok {
			continue
		}
		if err := recorder.FinishRun(ctx, stats); err != nil {
			return err
		}
	}
	return nil
}

func (m *Multi) WriteSummaries(ctx context.Context, summaries []summary.TrackSummary) error {
	for _, s := range m.sinks {
		recorder, ok := s.(RunRecorder)
		if !ok {
			continue
		}
		if err := recorder.WriteSummaries(ctx, summaries); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink even if some of them fail, first error is returned
func (m *Multi) Close() error {
	var first error
	for i := len(m.sinks) - 1; i >= 0; i-- {
		if err := m.sinks[i].Close(); err != nil && first == nil {
			first = errors.Wrapf(err, "Can't close sink %d", i)
		}
	}
	return first
}
