package mot

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func detectionAt(x, y float64) Detection {
	return NewDetection(NewRotatedRect(NewPoint(x, y), 120.0, 20.0, 30.0))
}

func TestNewEelTrackerDefault(t *testing.T) {
	tracker := NewEelTrackerDefault(640)
	if tracker.GateDistance() != 160.0 {
		t.Errorf("Expected gate 160, got %f", tracker.GateDistance())
	}
	if tracker.minMotionDistance != 2.0 {
		t.Errorf("Expected min motion distance 2.0, got %f", tracker.minMotionDistance)
	}
	if tracker.minFramesEel != 5 {
		t.Errorf("Expected min frames eel 5, got %d", tracker.minFramesEel)
	}
	if tracker.maxFramesMissed != 50 {
		t.Errorf("Expected max frames missed 50, got %d", tracker.maxFramesMissed)
	}
	if tracker.NextTrackID() != 1 {
		t.Errorf("Expected first identifier 1, got %d", tracker.NextTrackID())
	}
}

func TestEmptyInput(t *testing.T) {
	tracker := NewEelTrackerDefault(640)
	result := tracker.MatchObjects(1, 0.0, nil)
	if len(result.Updates) != 0 || len(result.Events) != 0 || len(result.Pruned) != 0 {
		t.Errorf("Expected empty result, got %+v", result)
	}
	if tracker.Len() != 0 {
		t.Errorf("Expected no tracks, got %d", tracker.Len())
	}
}

func TestTrackCreation(t *testing.T) {
	tracker := NewEelTrackerDefault(640)
	result := tracker.MatchObjects(3, 0.12, []Detection{detectionAt(10, 20), detectionAt(300, 200)})

	if len(result.Updates) != 2 {
		t.Fatalf("Expected 2 updates, got %d", len(result.Updates))
	}
	for i, update := range result.Updates {
		if !update.IsNew {
			t.Errorf("Update %d should be a new track", i)
		}
		if update.DetectionIndex != i {
			t.Errorf("Update %d should refer to detection %d, got %d", i, i, update.DetectionIndex)
		}
		if update.Track.ID != i+1 {
			t.Errorf("Expected id %d, got %d", i+1, update.Track.ID)
		}
		if update.Track.FramesTracked != 1 || update.Track.LastFrameSeen != 3 || update.Track.Confirmed {
			t.Errorf("Wrong initial state: %+v", update.Track)
		}
	}
	tracks := tracker.Tracks()
	if tracks[0].Position != NewPoint(10, 20) || tracks[1].Position != NewPoint(300, 200) {
		t.Errorf("Wrong positions: %+v", tracks)
	}
}

func TestUniqueIdentifiers(t *testing.T) {
	tracker := NewEelTracker(80.0, 2.0, 5, 10)
	rnd := rand.New(rand.NewSource(42))
	for frame := 1; frame <= 300; frame++ {
		n := rnd.Intn(6)
		detections := make([]Detection, n)
		for i := range detections {
			detections[i] = detectionAt(rnd.Float64()*640, rnd.Float64()*480)
		}
		tracker.MatchObjects(frame, float64(frame)/25.0, detections)

		seen := make(map[int]struct{})
		for _, track := range tracker.Tracks() {
			if _, ok := seen[track.ID]; ok {
				t.Fatalf("Duplicate identifier %d on frame %d", track.ID, frame)
			}
			if track.ID >= tracker.NextTrackID() {
				t.Fatalf("Identifier %d is not below next identifier %d", track.ID, tracker.NextTrackID())
			}
			seen[track.ID] = struct{}{}
		}
	}
}

func TestPruneBoundary(t *testing.T) {
	tracker := NewEelTracker(160.0, 2.0, 5, 50)
	created := 7
	tracker.MatchObjects(created, 0.0, []Detection{detectionAt(50, 50)})

	for frame := created + 1; frame <= created+50; frame++ {
		result := tracker.MatchObjects(frame, 0.0, nil)
		if len(result.Pruned) != 0 {
			t.Fatalf("Track should not be pruned on frame %d", frame)
		}
	}
	if _, ok := tracker.Track(1); !ok {
		t.Fatalf("Track should be alive on frame %d", created+50)
	}

	result := tracker.MatchObjects(created+51, 0.0, nil)
	if diff := cmp.Diff([]int{1}, result.Pruned); diff != "" {
		t.Errorf("Wrong pruned tracks (-want +got):\n%s", diff)
	}
	if tracker.Len() != 0 {
		t.Errorf("Expected no tracks, got %d", tracker.Len())
	}

	// Reappearing object is a new identity
	result = tracker.MatchObjects(created+52, 0.0, []Detection{detectionAt(50, 50)})
	if result.Updates[0].Track.ID != 2 {
		t.Errorf("Expected new identifier 2, got %d", result.Updates[0].Track.ID)
	}
}

func TestStaticObjectNeverConfirmed(t *testing.T) {
	tracker := NewEelTracker(160.0, 2.0, 5, 50)
	for frame := 1; frame <= 6; frame++ {
		result := tracker.MatchObjects(frame, 0.0, []Detection{detectionAt(200, 100)})
		if len(result.Events) != 0 {
			t.Fatalf("Static object should not be reported on frame %d", frame)
		}
		if frame > 1 {
			if len(result.Updates) != 0 {
				t.Errorf("Static detection should not update or create tracks on frame %d", frame)
			}
			if !result.Assigned[0] {
				t.Errorf("Static detection should be consumed on frame %d", frame)
			}
		}
	}
	track, ok := tracker.Track(1)
	if !ok {
		t.Fatal("Track 1 should be alive")
	}
	if track.FramesTracked != 1 {
		t.Errorf("Expected framesTracked 1, got %d", track.FramesTracked)
	}
	if track.Confirmed {
		t.Error("Static track should not be confirmed")
	}
	if tracker.Len() != 1 || tracker.NextTrackID() != 2 {
		t.Errorf("Static detection spawned duplicate tracks: len %d, next id %d", tracker.Len(), tracker.NextTrackID())
	}
}

func TestJitterAccruesOnlyAboveFloor(t *testing.T) {
	tracker := NewEelTracker(160.0, 2.0, 5, 50)
	// Alternating small and large moves: only the large ones count
	positions := []Point{{100, 100}, {101, 100}, {104, 100}, {104.5, 100}, {108, 100}, {108, 101}}
	for i, pos := range positions {
		tracker.MatchObjects(i+1, 0.0, []Detection{detectionAt(pos.X, pos.Y)})
	}
	track, _ := tracker.Track(1)
	// (100,100) -> (101,100) is jitter, track stays at (100,100); (104,100) moves 4px
	// (104.5,100) is jitter; (108,100) moves; (108,101) is jitter
	if track.FramesTracked != 3 {
		t.Errorf("Expected framesTracked 3, got %d", track.FramesTracked)
	}
	if track.Position != NewPoint(108, 100) {
		t.Errorf("Expected position (108,100), got %+v", track.Position)
	}
	if track.LastFrameSeen != 5 {
		t.Errorf("Expected last frame seen 5, got %d", track.LastFrameSeen)
	}
}

func TestBindsToStrictlyCloser(t *testing.T) {
	tracker := NewEelTracker(160.0, 2.0, 5, 50)
	tracker.MatchObjects(1, 0.0, []Detection{detectionAt(100, 100)})

	result := tracker.MatchObjects(2, 0.0, []Detection{detectionAt(130, 100), detectionAt(110, 100)})
	if len(result.Updates) != 2 {
		t.Fatalf("Expected 2 updates, got %d", len(result.Updates))
	}
	matched := result.Updates[0]
	if matched.IsNew || matched.Track.ID != 1 || matched.DetectionIndex != 1 {
		t.Errorf("Track 1 should bind to detection 1, got %+v", matched)
	}
	if matched.Track.Position != NewPoint(110, 100) || matched.Track.FramesTracked != 2 {
		t.Errorf("Wrong matched state: %+v", matched.Track)
	}
	created := result.Updates[1]
	if !created.IsNew || created.Track.ID != 2 || created.DetectionIndex != 0 || created.Track.Confirmed {
		t.Errorf("Farther detection should become tentative track 2, got %+v", created)
	}
}

func TestTieGoesToFirstDetection(t *testing.T) {
	tracker := NewEelTracker(160.0, 2.0, 5, 50)
	tracker.MatchObjects(1, 0.0, []Detection{detectionAt(100, 100)})
	result := tracker.MatchObjects(2, 0.0, []Detection{detectionAt(110, 100), detectionAt(90, 100)})
	if result.Updates[0].DetectionIndex != 0 {
		t.Errorf("Expected first enumerated detection, got %d", result.Updates[0].DetectionIndex)
	}
}

func TestEarlierTrackPicksFirst(t *testing.T) {
	tracker := NewEelTracker(160.0, 2.0, 5, 50)
	tracker.MatchObjects(1, 0.0, []Detection{detectionAt(100, 100), detectionAt(130, 100)})

	// Detection is closer to track 2, but track 1 is visited first
	result := tracker.MatchObjects(2, 0.0, []Detection{detectionAt(116, 100)})
	if len(result.Updates) != 1 || result.Updates[0].Track.ID != 1 {
		t.Fatalf("Track 1 should claim the detection, got %+v", result.Updates)
	}
	track2, _ := tracker.Track(2)
	if track2.LastFrameSeen != 1 || track2.FramesTracked != 1 {
		t.Errorf("Track 2 should stay unmatched, got %+v", track2)
	}
}

func TestGate(t *testing.T) {
	tracker := NewEelTracker(40.0, 2.0, 5, 50)
	tracker.MatchObjects(1, 0.0, []Detection{detectionAt(100, 100)})

	// Exactly at the gate is not a match
	result := tracker.MatchObjects(2, 0.0, []Detection{detectionAt(140, 100)})
	if len(result.Updates) != 1 || !result.Updates[0].IsNew {
		t.Fatalf("Detection on the gate should create new track, got %+v", result.Updates)
	}
	result = tracker.MatchObjects(3, 0.0, []Detection{detectionAt(100, 139.5)})
	if len(result.Updates) != 1 || result.Updates[0].IsNew || result.Updates[0].Track.ID != 1 {
		t.Errorf("Detection inside the gate should match track 1, got %+v", result.Updates)
	}
}

func TestSubFloorMatch(t *testing.T) {
	tracker := NewEelTracker(160.0, 2.0, 5, 50)
	tracker.MatchObjects(1, 0.0, []Detection{detectionAt(100, 100)})

	result := tracker.MatchObjects(2, 0.0, []Detection{detectionAt(100, 100.5)})
	if !result.Assigned[0] {
		t.Error("Detection should be consumed")
	}
	if len(result.Updates) != 0 {
		t.Errorf("Expected no updates, got %+v", result.Updates)
	}
	track, _ := tracker.Track(1)
	if track.FramesTracked != 1 || track.Position != NewPoint(100, 100) || track.LastFrameSeen != 1 {
		t.Errorf("Track should stay untouched, got %+v", track)
	}
}

func TestConfirmationEvents(t *testing.T) {
	tracker := NewEelTracker(160.0, 2.0, 5, 50)
	dt := 1.0 / 25.0

	var events []Event
	promotedOn := []int{}
	for frame := 1; frame <= 10; frame++ {
		pos := NewPoint(100+float64(frame)*5, 200)
		result := tracker.MatchObjects(frame, float64(frame)*dt, []Detection{detectionAt(pos.X, pos.Y)})
		events = append(events, result.Events...)
		for _, update := range result.Updates {
			if update.Promoted {
				promotedOn = append(promotedOn, frame)
			}
			if update.Confirmed != (frame >= 6) {
				t.Errorf("Wrong confirmed flag on frame %d: %v", frame, update.Confirmed)
			}
		}
	}

	if diff := cmp.Diff([]int{6}, promotedOn); diff != "" {
		t.Errorf("Wrong promotion frames (-want +got):\n%s", diff)
	}
	want := make([]Event, 0, 5)
	for frame := 6; frame <= 10; frame++ {
		want = append(want, Event{
			Frame:     frame,
			Timestamp: float64(frame) * dt,
			TrackID:   1,
			Position:  NewPoint(100+float64(frame)*5, 200),
		})
	}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Errorf("Wrong events (-want +got):\n%s", diff)
	}
	if tracker.ConfirmedCount() != 1 {
		t.Errorf("Expected 1 confirmed object, got %d", tracker.ConfirmedCount())
	}
}

func TestConfirmedIsMonotone(t *testing.T) {
	tracker := NewEelTracker(160.0, 2.0, 2, 50)
	frame := 0
	step := func(detections ...Detection) FrameResult {
		frame++
		return tracker.MatchObjects(frame, 0.0, detections)
	}
	step(detectionAt(10, 10))
	step(detectionAt(20, 10))
	result := step(detectionAt(30, 10))
	if len(result.Events) != 1 || !result.Updates[0].Promoted {
		t.Fatalf("Track should be promoted on frame 3, got %+v", result)
	}

	// Unseen frames and static matches keep the flag without reporting
	step()
	step()
	result = step(detectionAt(30.5, 10))
	if len(result.Events) != 0 {
		t.Errorf("Static match should not be reported, got %+v", result.Events)
	}
	track, _ := tracker.Track(1)
	if !track.Confirmed {
		t.Fatal("Confirmed flag has been reset")
	}

	// Moving again re-reports without second promotion
	result = step(detectionAt(45, 10))
	if len(result.Events) != 1 || result.Updates[0].Promoted || !result.Updates[0].Confirmed {
		t.Errorf("Expected plain report, got %+v", result)
	}
	if tracker.ConfirmedCount() != 1 {
		t.Errorf("Expected 1 confirmed object, got %d", tracker.ConfirmedCount())
	}
}

func TestDegenerateGeometry(t *testing.T) {
	tracker := NewEelTrackerDefault(640)
	detections := []Detection{
		NewDetection(NewRotatedRect(NewPoint(0, 0), 0, 0, 0)),
		{Centroid: NewPoint(5, 5)},
	}
	result := tracker.MatchObjects(1, 0.0, detections)
	if len(result.Updates) != 2 {
		t.Errorf("Expected 2 new tracks, got %d", len(result.Updates))
	}
}

func TestReset(t *testing.T) {
	tracker := NewEelTracker(160.0, 2.0, 1, 50)
	tracker.MatchObjects(1, 0.0, []Detection{detectionAt(10, 10)})
	tracker.MatchObjects(2, 0.0, []Detection{detectionAt(20, 10)})
	if tracker.ConfirmedCount() != 1 {
		t.Fatalf("Expected 1 confirmed object, got %d", tracker.ConfirmedCount())
	}
	tracker.Reset()
	if tracker.Len() != 0 || tracker.ConfirmedCount() != 0 || tracker.NextTrackID() != 1 {
		t.Errorf("Reset left state behind: len %d, confirmed %d, next %d", tracker.Len(), tracker.ConfirmedCount(), tracker.NextTrackID())
	}
}
