package mot

// Detection is a single candidate object found on a frame by an upstream detector.
// Only Centroid takes part in association, BBox is kept for drawing and reporting.
type Detection struct {
	Centroid Point
	BBox     RotatedRect
}

// NewDetection creates detection from oriented box, centroid is the box center
func NewDetection(bbox RotatedRect) Detection {
	return Detection{
		Centroid: bbox.Center,
		BBox:     bbox,
	}
}

// Track is a persistent identity of a moving object
type Track struct {
	// Unique identifier, assigned from 1 and never reused
	ID int
	// Last known centroid
	Position Point
	// Number of frames where the track has been matched (creation frame included)
	FramesTracked int
	// Index of the last frame where the track has been matched
	LastFrameSeen int
	// Once set it is never reset
	Confirmed bool
}

func newTrack(id int, position Point, frame int) *Track {
	return &Track{
		ID:            id,
		Position:      position,
		FramesTracked: 1,
		LastFrameSeen: frame,
		Confirmed:     false,
	}
}

// update moves track to the new position and counts the frame as tracked
func (track *Track) update(position Point, frame int) {
	track.Position = position
	track.LastFrameSeen = frame
	track.FramesTracked++
}

// missedFrames returns number of frames passed since the track has been matched last time
func (track *Track) missedFrames(frame int) int {
	return frame - track.LastFrameSeen
}
