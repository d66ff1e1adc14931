package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eeltrack",
		Name:      "frames_processed_total",
		Help:      "Total number of frames processed",
	})

	Detections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eeltrack",
		Name:      "detections_total",
		Help:      "Total number of candidate detections passed to the tracker",
	})

	TracksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eeltrack",
		Name:      "tracks_created_total",
		Help:      "Total number of tracks created",
	})

	TracksPruned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eeltrack",
		Name:      "tracks_pruned_total",
		Help:      "Total number of tracks removed after being unseen for too long",
	})

	EelsConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eeltrack",
		Name:      "eels_confirmed_total",
		Help:      "Total number of tracks promoted to confirmed eels",
	})

	Reports = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "eeltrack",
		Name:      "reports_total",
		Help:      "Total number of report events written to sinks",
	})

	LiveTracks = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "eeltrack",
		Name:      "live_tracks",
		Help:      "Number of tracks currently alive",
	})

	FrameDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "eeltrack",
		Name:      "frame_duration_seconds",
		Help:      "Duration of per-frame processing stages",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
	}, []string{"stage"})
)
