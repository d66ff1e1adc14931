package mot

import (
	"math"
)

// Event is emitted for every matched frame of a confirmed track
type Event struct {
	Frame     int
	Timestamp float64
	TrackID   int
	Position  Point
}

// TrackUpdate describes what happened to a single track on a frame. It is what overlay needs to draw the frame.
type TrackUpdate struct {
	// Copy of the track state after the frame has been processed
	Track Track
	// Index of the detection the track has been bound to
	DetectionIndex int
	// True when the track has been created on this frame
	IsNew bool
	// True when the track is confirmed on this frame (promoted now or earlier)
	Confirmed bool
	// True only on the frame when the track has been promoted
	Promoted bool
}

// FrameResult is outcome of a single MatchObjects call
type FrameResult struct {
	Frame int
	// Updated tracks in association order followed by created tracks in detection order
	Updates []TrackUpdate
	// Report events in association order
	Events []Event
	// Assigned[i] is true if detections[i] has been consumed by an existing track (including static ones)
	Assigned []bool
	// Identifiers of tracks removed on this frame
	Pruned []int
}

// EelTracker is greedy nearest neighbour tracker with confirmation state machine.
// It is not safe for concurrent use: a single goroutine must own it.
type EelTracker struct {
	tracks *trackStore
	// Max distance between track and detection to be considered the same object (pixels).
	// Default is quarter of the frame width
	gateDistance float64
	// Matches closer than this are considered to be a static object. Default 2.0
	minMotionDistance float64
	// Track must be matched more than this number of frames to be confirmed. Default 5
	minFramesEel int
	// Max number of frames when track could not be found again. Default 50
	maxFramesMissed int
	// Next identifier to assign
	nextTrackID int
	// Number of tracks promoted to confirmed since creation or last Reset
	confirmedCount int
}

// NewEelTrackerDefault creates default instance of EelTracker for given frame width
func NewEelTrackerDefault(frameWidth int) *EelTracker {
	return NewEelTracker(float64(frameWidth)/4.0, 2.0, 5, 50)
}

// NewEelTracker creates new instance of EelTracker
func NewEelTracker(gateDistance, minMotionDistance float64, minFramesEel, maxFramesMissed int) *EelTracker {
	return &EelTracker{
		tracks:            newTrackStore(),
		gateDistance:      gateDistance,
		minMotionDistance: minMotionDistance,
		minFramesEel:      minFramesEel,
		maxFramesMissed:   maxFramesMissed,
		nextTrackID:       1,
		confirmedCount:    0,
	}
}

// Reset drops all tracks and restarts identifiers and counters
func (tracker *EelTracker) Reset() {
	tracker.tracks.reset()
	tracker.nextTrackID = 1
	tracker.confirmedCount = 0
}

// MatchObjects processes detections of a single frame: association, confirmation, creation of new tracks and pruning.
// timestamp is position of the frame in the stream (seconds), it is only copied to events.
func (tracker *EelTracker) MatchObjects(frame int, timestamp float64, detections []Detection) FrameResult {
	result := FrameResult{
		Frame:    frame,
		Assigned: make([]bool, len(detections)),
	}

	tracker.tracks.each(func(track *Track) {
		bestIdx, minDistance := tracker.closestDetection(track, detections, result.Assigned)
		if bestIdx == -1 || minDistance >= tracker.gateDistance {
			return
		}
		// Static object (debris, reflections): consume detection so it won't spawn a duplicate track
		if minDistance < tracker.minMotionDistance {
			result.Assigned[bestIdx] = true
			return
		}
		track.update(detections[bestIdx].Centroid, frame)
		result.Assigned[bestIdx] = true

		update := TrackUpdate{
			DetectionIndex: bestIdx,
		}
		if track.FramesTracked > tracker.minFramesEel || track.Confirmed {
			if !track.Confirmed {
				track.Confirmed = true
				tracker.confirmedCount++
				update.Promoted = true
			}
			update.Confirmed = true
			result.Events = append(result.Events, Event{
				Frame:     frame,
				Timestamp: timestamp,
				TrackID:   track.ID,
				Position:  track.Position,
			})
		}
		update.Track = *track
		result.Updates = append(result.Updates, update)
	})

	for i := range detections {
		if result.Assigned[i] {
			continue
		}
		track := newTrack(tracker.nextTrackID, detections[i].Centroid, frame)
		tracker.nextTrackID++
		tracker.tracks.add(track)
		result.Updates = append(result.Updates, TrackUpdate{
			Track:          *track,
			DetectionIndex: i,
			IsNew:          true,
		})
	}

	result.Pruned = tracker.tracks.retain(func(track *Track) bool {
		return track.missedFrames(frame) <= tracker.maxFramesMissed
	})
	return result
}

// closestDetection returns index of the nearest unassigned detection and distance to it.
// Ties go to the detection enumerated first. Index is -1 when nothing is available.
func (tracker *EelTracker) closestDetection(track *Track, detections []Detection, assigned []bool) (int, float64) {
	bestIdx := -1
	minDistance := math.MaxFloat64
	for i := range detections {
		if assigned[i] {
			continue
		}
		dist := euclideanDistance(track.Position, detections[i].Centroid)
		if dist < minDistance {
			minDistance = dist
			bestIdx = i
		}
	}
	return bestIdx, minDistance
}

// Tracks returns copies of live tracks in association order
func (tracker *EelTracker) Tracks() []Track {
	tracks := make([]Track, 0, tracker.tracks.len())
	tracker.tracks.each(func(track *Track) {
		tracks = append(tracks, *track)
	})
	return tracks
}

// Track returns copy of live track with given identifier
func (tracker *EelTracker) Track(id int) (Track, bool) {
	track, ok := tracker.tracks.get(id)
	if !ok {
		return Track{}, false
	}
	return *track, true
}

// Len returns number of live tracks
func (tracker *EelTracker) Len() int {
	return tracker.tracks.len()
}

// ConfirmedCount returns number of tracks promoted to confirmed so far
func (tracker *EelTracker) ConfirmedCount() int {
	return tracker.confirmedCount
}

// NextTrackID returns identifier the next created track will get
func (tracker *EelTracker) NextTrackID() int {
	return tracker.nextTrackID
}

// GateDistance returns association gate in pixels
func (tracker *EelTracker) GateDistance() float64 {
	return tracker.gateDistance
}
