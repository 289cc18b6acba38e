package tracker

import "testing"

func TestKalmanTrackerStableIDs(t *testing.T) {

	kt := NewKalmanTracker(0.3, 5)
	frame := []Object{person(0, 0, 100, 200), person(300, 0, 400, 200)}

	for i := 0; i < 5; i++ {
		out, err := kt.Update(frame)

		if err != nil {
			t.Fatalf("frame %d: unexpected error: %v", i, err)
		}

		if ids := trackIDs(out); !equalInts(ids, []int{0, 1}) {
			t.Fatalf("frame %d: expected ids [0 1], got %v", i, ids)
		}
	}

	for _, tr := range kt.Tracks() {
		if tr.GetLostCount() != 0 {
			t.Errorf("track %d unexpectedly lost", tr.GetTrackID())
		}
	}
}

func TestKalmanTrackerFollowsMotion(t *testing.T) {

	kt := NewKalmanTracker(0.3, 5)

	for i := 0; i < 6; i++ {
		x := float32(i * 10)
		out, err := kt.Update([]Object{person(x, 0, x+100, 200)})

		if err != nil {
			t.Fatalf("frame %d: unexpected error: %v", i, err)
		}

		if ids := trackIDs(out); !equalInts(ids, []int{0}) {
			t.Fatalf("frame %d: expected id [0], got %v", i, ids)
		}
	}
}

func TestKalmanTrackerEviction(t *testing.T) {

	kt := NewKalmanTracker(0.3, 5)
	kt.Update([]Object{person(0, 0, 100, 200)})

	for i := 0; i < 5; i++ {
		kt.Update(nil)
	}

	if len(kt.Tracks()) != 1 {
		t.Fatalf("track removed too early")
	}

	kt.Update(nil)

	if len(kt.Tracks()) != 0 {
		t.Fatalf("expected track to be evicted")
	}

	out, _ := kt.Update([]Object{person(0, 0, 100, 200)})

	if ids := trackIDs(out); !equalInts(ids, []int{1}) {
		t.Errorf("expected new id [1], got %v", ids)
	}
}

func TestKalmanTrackerReset(t *testing.T) {

	kt := NewKalmanTracker(0.3, 5)
	kt.Update([]Object{person(0, 0, 100, 200)})
	kt.Reset()

	if len(kt.Tracks()) != 0 {
		t.Fatalf("expected no tracks after reset")
	}

	out, _ := kt.Update([]Object{person(500, 0, 600, 200)})

	if ids := trackIDs(out); !equalInts(ids, []int{0}) {
		t.Errorf("expected numbering to restart, got %v", ids)
	}
}
