// Package detect screens foreground blobs by size and elongation before they reach the tracker.
package detect

import (
	"github.com/LdDl/eeltrack/internal/config"
	"github.com/LdDl/eeltrack/mot"
)

// ShapeFilter accepts blobs of bounded area that are long and thin
type ShapeFilter struct {
	MinArea float64
	MaxArea float64
	// Short side divided by long side must not exceed this value
	MaxAspectRatio float64
}

// NewShapeFilter creates filter from detector settings
func NewShapeFilter(cfg config.DetectorConfig) ShapeFilter {
	return ShapeFilter{
		MinArea:        cfg.MinArea,
		MaxArea:        cfg.MaxArea,
		MaxAspectRatio: cfg.MaxAspectRatio,
	}
}

// AcceptArea checks contour area, bounds are inclusive
func (f ShapeFilter) AcceptArea(area float64) bool {
	return area >= f.MinArea && area <= f.MaxArea
}

// AcceptBox checks elongation of the minimal enclosing rectangle. Zero-size rectangles are rejected.
func (f ShapeFilter) AcceptBox(box mot.RotatedRect) bool {
	if box.Width <= 0 || box.Height <= 0 {
		return false
	}
	return box.AspectRatio() <= f.MaxAspectRatio
}

// Candidate is a foreground contour with its area and minimal enclosing rectangle
type Candidate struct {
	Area float64
	Box  mot.RotatedRect
}

// Screen keeps candidates passing both checks, order is preserved.
// It returns detections and indices of accepted candidates.
func (f ShapeFilter) Screen(candidates []Candidate) ([]mot.Detection, []int) {
	detections := make([]mot.Detection, 0, len(candidates))
	accepted := make([]int, 0, len(candidates))
	for i, candidate := range candidates {
		if !f.AcceptArea(candidate.Area) {
			continue
		}
		if !f.AcceptBox(candidate.Box) {
			continue
		}
		detections = append(detections, mot.NewDetection(candidate.Box))
		accepted = append(accepted, i)
	}
	return detections, accepted
}
