// Package summary aggregates report events of confirmed tracks into per-track statistics.
// It only observes tracker output and never feeds back into association.
package summary

import (
	"math"

	kalman_filter "github.com/LdDl/kalman-filter"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/LdDl/eeltrack/mot"
)

// TrackSummary is what is known about a confirmed track at the end of a run
type TrackSummary struct {
	TrackID    int     `json:"track_id"`
	FirstFrame int     `json:"first_frame"`
	LastFrame  int     `json:"last_frame"`
	FirstSeen  float64 `json:"first_seen_sec"`
	LastSeen   float64 `json:"last_seen_sec"`
	Reports    int     `json:"reports"`
	// Pixels per second, computed on smoothed positions
	AvgSpeed  float64 `json:"avg_speed_px_s"`
	PeakSpeed float64 `json:"peak_speed_px_s"`
	// Sum of distances between consecutive smoothed positions
	PathLength float64 `json:"path_length_px"`
}

type accumulator struct {
	summary   TrackSummary
	filter    *kalman_filter.Kalman2D
	lastPoint mot.Point
	speeds    []float64
}

// Collector accumulates events. It is owned by the processing loop, same as the tracker.
type Collector struct {
	dt     float64
	tracks map[int]*accumulator
	order  []int
}

// NewCollector creates collector for a stream with given frame rate. Non-positive fps falls back to 25.
func NewCollector(fps float64) *Collector {
	if fps <= 0 || math.IsNaN(fps) {
		fps = 25.0
	}
	return &Collector{
		dt:     1.0 / fps,
		tracks: make(map[int]*accumulator),
		order:  make([]int, 0),
	}
}

func (collector *Collector) newAccumulator(event mot.Event) *accumulator {
	/* Kalman filter props */
	ux := 0.0
	uy := 0.0
	stdDevA := 2.0
	stdDevMx := 0.1
	stdDevMy := 0.1
	kf := kalman_filter.NewKalman2D(collector.dt, ux, uy, stdDevA, stdDevMx, stdDevMy, kalman_filter.WithState2D(event.Position.X, event.Position.Y))
	return &accumulator{
		summary: TrackSummary{
			TrackID:    event.TrackID,
			FirstFrame: event.Frame,
			LastFrame:  event.Frame,
			FirstSeen:  event.Timestamp,
			LastSeen:   event.Timestamp,
			Reports:    1,
		},
		filter:    kf,
		lastPoint: event.Position,
		speeds:    make([]float64, 0, 64),
	}
}

// Add feeds a report event. Events of a track must come in frame order.
func (collector *Collector) Add(event mot.Event) error {
	acc, ok := collector.tracks[event.TrackID]
	if !ok {
		collector.tracks[event.TrackID] = collector.newAccumulator(event)
		collector.order = append(collector.order, event.TrackID)
		return nil
	}
	frameGap := event.Frame - acc.summary.LastFrame
	if frameGap <= 0 {
		return errors.Errorf("event for track %d on frame %d is not after frame %d", event.TrackID, event.Frame, acc.summary.LastFrame)
	}
	// Track could be unmatched for a while: advance the filter for each skipped frame
	for i := 0; i < frameGap; i++ {
		acc.filter.Predict()
	}
	err := acc.filter.Update(event.Position.X, event.Position.Y)
	if err != nil {
		return errors.Wrapf(err, "Can't update smoothing filter of track %d", event.TrackID)
	}
	stateX, stateY := acc.filter.GetState()
	smoothed := mot.NewPoint(stateX, stateY)

	elapsed := event.Timestamp - acc.summary.LastSeen
	if elapsed <= 0 {
		// Source without timestamps
		elapsed = float64(frameGap) * collector.dt
	}
	step := mot.Distance(acc.lastPoint, smoothed)
	acc.speeds = append(acc.speeds, step/elapsed)
	acc.summary.PathLength += step

	acc.lastPoint = smoothed
	acc.summary.LastFrame = event.Frame
	acc.summary.LastSeen = event.Timestamp
	acc.summary.Reports++
	return nil
}

// Summaries returns statistics for every track seen so far, in order of first report
func (collector *Collector) Summaries() []TrackSummary {
	summaries := make([]TrackSummary, 0, len(collector.order))
	for _, id := range collector.order {
		acc := collector.tracks[id]
		summary := acc.summary
		if len(acc.speeds) > 0 {
			summary.AvgSpeed = stat.Mean(acc.speeds, nil)
			summary.PeakSpeed = floats.Max(acc.speeds)
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

// Len returns number of tracks with at least one report
func (collector *Collector) Len() int {
	return len(collector.order)
}
