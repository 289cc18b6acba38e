// Package compliance links equipment detections to tracked persons and
// summarises which protective equipment each person is wearing.
package compliance

import (
	"math"

	"github.com/ViceAguilera/go-epptrack/tracker"
)

// Assignment is the owner of one equipment detection for the current frame
type Assignment struct {
	// Object is the equipment detection
	Object tracker.Object
	// TrackID is the identity of the person the equipment belongs to, or
	// tracker.NoTrack when Assigned is false
	TrackID int
	// Assigned is false when no person qualified
	Assigned bool
}

// Associator links equipment detections to tracked persons.  One Assignment
// is returned per equipment detection in input order.  Persons without a
// TrackID are never candidates.
type Associator interface {
	Associate(equipment, persons []tracker.Object) []Assignment
}

// ContainmentAssociator assigns a piece of equipment to the person whose box,
// grown by Margin pixels, contains the equipment centre and who overlaps the
// equipment the most.  The overlap must exceed IoUFloor.
type ContainmentAssociator struct {
	// Margin is the number of pixels to expand each person box by before
	// testing the equipment centre
	Margin float32
	// IoUFloor is the IoU the best candidate must exceed
	IoUFloor float32
}

// NewContainmentAssociator returns a ContainmentAssociator with a 40 pixel
// margin and 0.07 IoU floor
func NewContainmentAssociator() *ContainmentAssociator {
	return &ContainmentAssociator{
		Margin:   40,
		IoUFloor: 0.07,
	}
}

// Associate implements Associator
func (c *ContainmentAssociator) Associate(equipment, persons []tracker.Object) []Assignment {

	res := make([]Assignment, 0, len(equipment))

	for _, eq := range equipment {

		cx, cy := eq.Rect.Center()

		best := -1
		bestIoU := float32(0)

		for i, p := range persons {
			if p.TrackID == tracker.NoTrack {
				continue
			}

			if !p.Rect.Expand(c.Margin).ContainsPoint(cx, cy) {
				continue
			}

			iou := eq.Rect.IoU(p.Rect)

			if best < 0 || iou > bestIoU {
				best = i
				bestIoU = iou
			}
		}

		if best >= 0 && bestIoU > c.IoUFloor {
			res = append(res, assigned(eq, persons[best].TrackID))
		} else {
			res = append(res, unassigned(eq))
		}
	}

	return res
}

// CentroidAssociator assigns a piece of equipment to the person whose box
// centre is nearest to the equipment centre, provided the distance is below
// MaxDistance pixels
type CentroidAssociator struct {
	MaxDistance float32
}

// NewCentroidAssociator returns a CentroidAssociator with a 300 pixel cutoff
func NewCentroidAssociator() *CentroidAssociator {
	return &CentroidAssociator{
		MaxDistance: 300,
	}
}

// Associate implements Associator
func (c *CentroidAssociator) Associate(equipment, persons []tracker.Object) []Assignment {

	res := make([]Assignment, 0, len(equipment))

	for _, eq := range equipment {

		ex, ey := eq.Rect.Center()

		best := -1
		bestDist := math.Inf(1)

		for i, p := range persons {
			if p.TrackID == tracker.NoTrack {
				continue
			}

			px, py := p.Rect.Center()
			dist := math.Hypot(float64(px-ex), float64(py-ey))

			if dist < bestDist {
				best = i
				bestDist = dist
			}
		}

		if best >= 0 && bestDist < float64(c.MaxDistance) {
			res = append(res, assigned(eq, persons[best].TrackID))
		} else {
			res = append(res, unassigned(eq))
		}
	}

	return res
}

func assigned(eq tracker.Object, trackID int) Assignment {
	eq.TrackID = trackID
	return Assignment{Object: eq, TrackID: trackID, Assigned: true}
}

func unassigned(eq tracker.Object) Assignment {
	return Assignment{Object: eq, TrackID: tracker.NoTrack}
}
