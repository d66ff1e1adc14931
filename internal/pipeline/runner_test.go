package pipeline

import (
	"context"
	"image"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LdDl/eeltrack/internal/api"
	"github.com/LdDl/eeltrack/internal/summary"
	"github.com/LdDl/eeltrack/mot"
	"github.com/LdDl/eeltrack/overlay"
)

type fakeFrame struct {
	index int
}

type fakeSource struct {
	total int
	fps   float64
	pos   int
}

func (s *fakeSource) Next() (fakeFrame, float64, bool) {
	if s.pos >= s.total {
		return fakeFrame{}, 0, false
	}
	s.pos++
	return fakeFrame{index: s.pos}, float64(s.pos-1) / s.fps, true
}

func (s *fakeSource) Progress() (int, int) {
	return s.pos, s.total
}

// swimmer moves 10px to the right on every frame
type swimmer struct{}

func (swimmer) Detect(frame fakeFrame) ([]mot.Detection, [][]image.Point) {
	x := 100 + 10*float64(frame.index-1)
	box := mot.NewRotatedRect(mot.NewPoint(x, 100), 100, 20, 0)
	return []mot.Detection{mot.NewDetection(box)}, [][]image.Point{{image.Pt(int(x)-50, 90), image.Pt(int(x)+50, 110)}}
}

type memorySink struct {
	events []mot.Event
	failOn int
	closed bool
}

func (m *memorySink) Write(ctx context.Context, event mot.Event) error {
	if m.failOn > 0 && event.Frame == m.failOn {
		return errors.New("disk is full")
	}
	m.events = append(m.events, event)
	return nil
}

func (m *memorySink) Close() error {
	m.closed = true
	return nil
}

type recordingOutput struct {
	scenes []overlay.Scene
}

func (o *recordingOutput) Write(frame fakeFrame, scene overlay.Scene) error {
	o.scenes = append(o.scenes, scene)
	return nil
}

type quitOn int

func (q quitOn) Show(frame fakeFrame) bool {
	return frame.index == int(q)
}

func measure(string, float64, int) image.Point {
	return image.Pt(60, 10)
}

func newRunner(t *testing.T, frames int, s *memorySink) *Runner[fakeFrame] {
	return &Runner[fakeFrame]{
		Log:           logs.NewTestingLog(t),
		Source:        &fakeSource{total: frames, fps: 25},
		Detector:      swimmer{},
		Tracker:       mot.NewEelTrackerDefault(640),
		Sink:          s,
		Measure:       measure,
		ProgressEvery: 4,
	}
}

func TestRunToEndOfStream(t *testing.T) {
	s := &memorySink{}
	runner := newRunner(t, 10, s)
	output := &recordingOutput{}
	runner.Output = output
	runner.Summary = summary.NewCollector(25)
	runner.Store = api.NewStore("run", "fake")

	stats, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{
		Frames:        10,
		Detections:    10,
		TracksCreated: 1,
		Confirmed:     1,
		Reports:       5,
		Stopped:       StopEndOfStream,
	}, stats)

	require.Len(t, s.events, 5)
	for i, event := range s.events {
		assert.Equal(t, 6+i, event.Frame)
		assert.Equal(t, 1, event.TrackID)
		assert.InDelta(t, float64(5+i)/25.0, event.Timestamp, 1e-9)
		assert.Equal(t, mot.NewPoint(100+10*float64(5+i), 100), event.Position)
	}

	require.Len(t, output.scenes, 10)
	assert.Empty(t, output.scenes[4].Boxes)
	assert.Len(t, output.scenes[5].Boxes, 1)
	assert.Len(t, output.scenes[0].Contours, 1)

	assert.Equal(t, 1, runner.Summary.Len())
	status := runner.Store.Status()
	assert.Equal(t, 10, status.Frame)
	assert.Equal(t, 1, status.LiveTracks)
	assert.Equal(t, 1, status.Confirmed)
	assert.False(t, s.closed)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stats, err := newRunner(t, 10, &memorySink{}).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, StopCanceled, stats.Stopped)
	assert.Equal(t, 0, stats.Frames)
}

func TestRunUserQuit(t *testing.T) {
	runner := newRunner(t, 10, &memorySink{})
	runner.Display = quitOn(3)
	stats, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopUserQuit, stats.Stopped)
	assert.Equal(t, 3, stats.Frames)
	assert.Equal(t, 3, runner.Source.(*fakeSource).pos)
}

func TestRunSinkError(t *testing.T) {
	s := &memorySink{failOn: 7}
	stats, err := newRunner(t, 10, s).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame 7")
	assert.Contains(t, err.Error(), "disk is full")
	assert.Equal(t, 6, stats.Frames)
	assert.Len(t, s.events, 1)
}

func TestRunRequiresCollaborators(t *testing.T) {
	runner := &Runner[fakeFrame]{Log: logs.NewTestingLog(t)}
	_, err := runner.Run(context.Background())
	assert.Error(t, err)

	s := &memorySink{}
	runner = newRunner(t, 3, s)
	runner.Log = nil
	stats, err := runner.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, stats.Frames)
	assert.Equal(t, 0, runner.Source.(*fakeSource).pos)
}

func TestStopReasonString(t *testing.T) {
	assert.Equal(t, "end of stream", StopEndOfStream.String())
	assert.Equal(t, "canceled", StopCanceled.String())
	assert.Equal(t, "user quit", StopUserQuit.String())
}
