package tracker

import (
	"testing"

	"github.com/ViceAguilera/go-epptrack/postprocess"
)

func TestSplitPersons(t *testing.T) {

	objs := DetectionsToObjects([]postprocess.DetectResult{
		{Label: postprocess.Helmet, Box: postprocess.BoxRect{Left: 10, Top: 0, Right: 30, Bottom: 20}, Probability: 0.7, ID: 1},
		{Label: postprocess.Person, Box: postprocess.BoxRect{Left: 0, Top: 0, Right: 100, Bottom: 200}, Probability: 0.9, ID: 2},
		{Label: postprocess.Unknown, Box: postprocess.BoxRect{Left: 0, Top: 0, Right: 5, Bottom: 5}, Probability: 0.9, ID: 3},
		{Label: postprocess.NoVest, Box: postprocess.BoxRect{Left: 20, Top: 60, Right: 80, Bottom: 120}, Probability: 0.8, ID: 4},
	})

	if len(objs) != 4 {
		t.Fatalf("expected 4 objects, got %d", len(objs))
	}

	for _, obj := range objs {
		if obj.TrackID != NoTrack {
			t.Errorf("object %d should not have an identity, got %d", obj.ID, obj.TrackID)
		}
	}

	persons, equipment := SplitPersons(objs)

	if len(persons) != 1 || persons[0].ID != 2 {
		t.Errorf("unexpected persons %v", persons)
	}

	if len(equipment) != 2 || equipment[0].ID != 1 || equipment[1].ID != 4 {
		t.Errorf("unexpected equipment %v", equipment)
	}

	if persons[0].Rect != NewRect(0, 0, 100, 200) {
		t.Errorf("unexpected person rect %v", persons[0].Rect)
	}
}
