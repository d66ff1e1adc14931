// Package cv adapts OpenCV (gocv) capture, writing, display, background subtraction and drawing to the pipeline.
package cv

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Capture reads frames from a video file
type Capture struct {
	vc *gocv.VideoCapture
}

// OpenCapture opens video file for reading
func OpenCapture(path string) (*Capture, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't open video file '%s'", path)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, errors.Errorf("Can't open video file '%s'", path)
	}
	return &Capture{vc: vc}, nil
}

// Read grabs next frame into dst and returns its position in seconds. ok is false at the end of the stream.
func (c *Capture) Read(dst *gocv.Mat) (float64, bool) {
	if ok := c.vc.Read(dst); !ok || dst.Empty() {
		return 0, false
	}
	return c.PosMsec() / 1000.0, true
}

func (c *Capture) FrameWidth() int {
	return int(c.vc.Get(gocv.VideoCaptureFrameWidth))
}

func (c *Capture) FrameHeight() int {
	return int(c.vc.Get(gocv.VideoCaptureFrameHeight))
}

func (c *Capture) FPS() float64 {
	return c.vc.Get(gocv.VideoCaptureFPS)
}

// FrameCount is number of frames reported by the container, it may be zero for streams
func (c *Capture) FrameCount() int {
	return int(c.vc.Get(gocv.VideoCaptureFrameCount))
}

// PosFrames is index of the frame to be decoded next
func (c *Capture) PosFrames() int {
	return int(c.vc.Get(gocv.VideoCapturePosFrames))
}

// PosMsec is position of the last decoded frame in milliseconds
func (c *Capture) PosMsec() float64 {
	return c.vc.Get(gocv.VideoCapturePosMsec)
}

func (c *Capture) Close() error {
	return c.vc.Close()
}

// FrameSource reuses a single frame buffer while reading from Capture
type FrameSource struct {
	capture *Capture
	frame   gocv.Mat
}

func NewFrameSource(capture *Capture) *FrameSource {
	return &FrameSource{
		capture: capture,
		frame:   gocv.NewMat(),
	}
}

// Next returns the next frame and its timestamp in seconds. The frame is valid until the next call.
func (s *FrameSource) Next() (gocv.Mat, float64, bool) {
	timestamp, ok := s.capture.Read(&s.frame)
	return s.frame, timestamp, ok
}

// Progress returns decoded frames and total frames of the file
func (s *FrameSource) Progress() (int, int) {
	return s.capture.PosFrames(), s.capture.FrameCount()
}

func (s *FrameSource) Close() error {
	return s.frame.Close()
}
