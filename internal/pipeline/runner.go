// Package pipeline drives the per-frame loop: detect, track, report, draw, display.
// It is generic over the frame type so the loop can run without OpenCV.
package pipeline

import (
	"context"
	"image"

	"github.com/cyclopcam/logs"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/LdDl/eeltrack/internal/api"
	"github.com/LdDl/eeltrack/internal/observability"
	"github.com/LdDl/eeltrack/internal/sink"
	"github.com/LdDl/eeltrack/internal/summary"
	"github.com/LdDl/eeltrack/mot"
	"github.com/LdDl/eeltrack/overlay"
)

type Source[F any] interface {
	// Next returns the next frame and its position in seconds. ok is false at the end of the stream.
	Next() (frame F, timestamp float64, ok bool)
	// Progress returns number of decoded frames and total number of frames (zero if unknown)
	Progress() (current int, total int)
}

type Detector[F any] interface {
	// Detect returns accepted detections and their outlines
	Detect(frame F) ([]mot.Detection, [][]image.Point)
}

type Output[F any] interface {
	Write(frame F, scene overlay.Scene) error
}

type Display[F any] interface {
	// Show returns true when user asks to stop
	Show(frame F) bool
}

type StopReason int

const (
	StopEndOfStream StopReason = iota
	StopCanceled
	StopUserQuit
)

func (reason StopReason) String() string {
	switch reason {
	case StopEndOfStream:
		return "end of stream"
	case StopCanceled:
		return "canceled"
	case StopUserQuit:
		return "user quit"
	default:
		return "unknown"
	}
}

type Stats struct {
	Frames        int
	Detections    int
	TracksCreated int
	TracksPruned  int
	Confirmed     int
	Reports       int
	Stopped       StopReason
}

// Runner owns the tracker for the duration of Run. Optional collaborators may be nil.
type Runner[F any] struct {
	Log      logs.Log
	Source   Source[F]
	Detector Detector[F]
	Tracker  *mot.EelTracker
	Sink     sink.Sink

	Output  Output[F]
	Display Display[F]
	Measure overlay.TextMeasurer
	Summary *summary.Collector
	Store   *api.Store

	// Log progress at Info level every N frames, zero disables it
	ProgressEvery int
}

func observe(stage string) *prometheus.Timer {
	return prometheus.NewTimer(observability.FrameDuration.WithLabelValues(stage))
}

// Run processes frames until the stream ends, the context is canceled or the display asks to quit.
// Frames are numbered from 1. Cancellation is checked between frames only.
func (r *Runner[F]) Run(ctx context.Context) (Stats, error) {
	stats := Stats{}
	if r.Log == nil || r.Source == nil || r.Detector == nil || r.Tracker == nil || r.Sink == nil {
		return stats, errors.New("runner requires log, source, detector, tracker and sink")
	}
	frameIdx := 0
	for {
		if err := ctx.Err(); err != nil {
			stats.Stopped = StopCanceled
			return stats, nil
		}
		frame, timestamp, ok := r.Source.Next()
		if !ok {
			stats.Stopped = StopEndOfStream
			return stats, nil
		}
		frameIdx++

		quit, err := r.processFrame(ctx, frameIdx, timestamp, frame, &stats)
		if err != nil {
			return stats, errors.Wrapf(err, "frame %d", frameIdx)
		}
		stats.Frames = frameIdx
		r.logProgress(frameIdx)
		if quit {
			stats.Stopped = StopUserQuit
			return stats, nil
		}
	}
}

func (r *Runner[F]) processFrame(ctx context.Context, frameIdx int, timestamp float64, frame F, stats *Stats) (bool, error) {
	timer := observe("detect")
	detections, contours := r.Detector.Detect(frame)
	timer.ObserveDuration()

	timer = observe("track")
	result := r.Tracker.MatchObjects(frameIdx, timestamp, detections)
	timer.ObserveDuration()

	created := 0
	for _, update := range result.Updates {
		if update.IsNew {
			created++
		}
		if update.Promoted {
			r.Log.Infof("Track %d confirmed as eel on frame %d", update.Track.ID, frameIdx)
			observability.EelsConfirmed.Inc()
		}
	}
	stats.Detections += len(detections)
	stats.TracksCreated += created
	stats.TracksPruned += len(result.Pruned)
	stats.Confirmed = r.Tracker.ConfirmedCount()

	timer = observe("sink")
	for _, event := range result.Events {
		if err := r.Sink.Write(ctx, event); err != nil {
			timer.ObserveDuration()
			return false, errors.Wrapf(err, "write report for track %d", event.TrackID)
		}
		stats.Reports++
		if r.Summary != nil {
			if err := r.Summary.Add(event); err != nil {
				r.Log.Warnf("Summary skipped event of track %d: %v", event.TrackID, err)
			}
		}
	}
	timer.ObserveDuration()

	observability.FramesProcessed.Inc()
	observability.Detections.Add(float64(len(detections)))
	observability.TracksCreated.Add(float64(created))
	observability.TracksPruned.Add(float64(len(result.Pruned)))
	observability.Reports.Add(float64(len(result.Events)))
	observability.LiveTracks.Set(float64(r.Tracker.Len()))

	if r.Output != nil {
		timer = observe("render")
		scene := overlay.Compose(contours, detections, result, r.Measure)
		err := r.Output.Write(frame, scene)
		timer.ObserveDuration()
		if err != nil {
			return false, errors.Wrap(err, "render")
		}
	}

	if r.Store != nil {
		r.Store.Publish(frameIdx, timestamp, r.Tracker.Tracks(), r.Tracker.ConfirmedCount())
	}

	if r.Display != nil {
		return r.Display.Show(frame), nil
	}
	return false, nil
}

func (r *Runner[F]) logProgress(frameIdx int) {
	current, total := r.Source.Progress()
	if r.ProgressEvery > 0 && frameIdx%r.ProgressEvery == 0 {
		r.Log.Infof("Frame %d/%d, live tracks: %d, eels: %d", current, total, r.Tracker.Len(), r.Tracker.ConfirmedCount())
		return
	}
	r.Log.Debugf("Frame %d/%d", current, total)
}
