package api

import (
	"sync"

	"github.com/LdDl/eeltrack/internal/summary"
	"github.com/LdDl/eeltrack/mot"
)

// TrackView is JSON representation of a live track
type TrackView struct {
	ID            int     `json:"id"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	FramesTracked int     `json:"frames_tracked"`
	LastFrameSeen int     `json:"last_frame_seen"`
	Confirmed     bool    `json:"confirmed"`
}

// Status is a cheap view of the run progress
type Status struct {
	RunID      string  `json:"run_id"`
	Source     string  `json:"source"`
	Frame      int     `json:"frame"`
	Timestamp  float64 `json:"timestamp_sec"`
	LiveTracks int     `json:"live_tracks"`
	Confirmed  int     `json:"confirmed"`
	Finished   bool    `json:"finished"`
}

// Store holds the last state published by the processing loop.
// Readers never see the tracker itself, only copies taken between frames.
type Store struct {
	mu        sync.RWMutex
	status    Status
	tracks    []TrackView
	summaries []summary.TrackSummary
}

func NewStore(runID, source string) *Store {
	return &Store{
		status: Status{
			RunID:  runID,
			Source: source,
		},
		tracks:    []TrackView{},
		summaries: []summary.TrackSummary{},
	}
}

// Publish replaces the snapshot with state after the given frame
func (s *Store) Publish(frame int, timestamp float64, tracks []mot.Track, confirmed int) {
	views := make([]TrackView, len(tracks))
	for i, track := range tracks {
		views[i] = TrackView{
			ID:            track.ID,
			X:             track.Position.X,
			Y:             track.Position.Y,
			FramesTracked: track.FramesTracked,
			LastFrameSeen: track.LastFrameSeen,
			Confirmed:     track.Confirmed,
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Frame = frame
	s.status.Timestamp = timestamp
	s.status.LiveTracks = len(views)
	s.status.Confirmed = confirmed
	s.tracks = views
}

// PublishSummaries replaces per-track summaries
func (s *Store) PublishSummaries(summaries []summary.TrackSummary) {
	copied := make([]summary.TrackSummary, len(summaries))
	copy(copied, summaries)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries = copied
}

// Finish marks the run as over
func (s *Store) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Finished = true
}

func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Tracks returns live tracks. Slices are replaced on publish and never mutated, so sharing is fine.
func (s *Store) Tracks() []TrackView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracks
}

func (s *Store) Summaries() []summary.TrackSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summaries
}
