package compliance

import (
	"sort"

	"github.com/ViceAguilera/go-epptrack/postprocess"
	"github.com/ViceAguilera/go-epptrack/tracker"
)

// Status is the state of one equipment category for a person
type Status int

const (
	// Unknown means nothing of the category was associated to the person
	Unknown Status = iota
	// Compliant means the equipment was detected on the person
	Compliant
	// Violation means the detector flagged the equipment as missing
	Violation
)

func (s Status) String() string {
	switch s {
	case Compliant:
		return "compliant"
	case Violation:
		return "violation"
	default:
		return "unknown"
	}
}

// CategoryStatus is the Status of one EquipmentPair for a person
type CategoryStatus struct {
	Pair   postprocess.EquipmentPair
	Status Status
	// Confidence of the detection that decided the status, zero when
	// Unknown
	Confidence float32
}

// Label returns the label of the detection that decided the status, or
// postprocess.Unknown
func (c CategoryStatus) Label() postprocess.Label {
	switch c.Status {
	case Compliant:
		return c.Pair.Positive
	case Violation:
		return c.Pair.Negative
	default:
		return postprocess.Unknown
	}
}

// PersonRecord is the compliance summary of one tracked person
type PersonRecord struct {
	TrackID int
	// Items holds one entry per postprocess.EquipmentPairs in the same
	// order
	Items []CategoryStatus
}

// Violations returns the number of categories flagged as missing
func (r PersonRecord) Violations() int {
	n := 0
	for _, item := range r.Items {
		if item.Status == Violation {
			n++
		}
	}
	return n
}

// Summarize builds a record for every tracked person from the equipment
// assigned to them this frame.  A negative detection makes the category a
// Violation regardless of any positive one, otherwise a positive detection
// makes it Compliant.  When several detections compete the most confident
// is used.  Records are sorted by ascending TrackID.
func Summarize(persons []tracker.Object, assignments []Assignment) []PersonRecord {

	owned := make(map[int][]tracker.Object)

	for _, a := range assignments {
		if a.Assigned {
			owned[a.TrackID] = append(owned[a.TrackID], a.Object)
		}
	}

	records := make([]PersonRecord, 0, len(persons))
	seen := make(map[int]bool, len(persons))

	for _, p := range persons {
		if p.TrackID == tracker.NoTrack || seen[p.TrackID] {
			continue
		}

		seen[p.TrackID] = true

		rec := PersonRecord{
			TrackID: p.TrackID,
			Items:   make([]CategoryStatus, 0, len(postprocess.EquipmentPairs)),
		}

		for _, pair := range postprocess.EquipmentPairs {
			rec.Items = append(rec.Items, categoryStatus(pair, owned[p.TrackID]))
		}

		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].TrackID < records[j].TrackID
	})

	return records
}

// categoryStatus decides the status of one pair from the equipment owned by
// a person
func categoryStatus(pair postprocess.EquipmentPair, items []tracker.Object) CategoryStatus {

	cs := CategoryStatus{Pair: pair}

	for _, item := range items {
		switch item.Label {
		case pair.Negative:
			if cs.Status != Violation || item.Prob > cs.Confidence {
				cs.Status = Violation
				cs.Confidence = item.Prob
			}
		case pair.Positive:
			if cs.Status == Violation {
				continue
			}
			if cs.Status == Unknown || item.Prob > cs.Confidence {
				cs.Status = Compliant
				cs.Confidence = item.Prob
			}
		}
	}

	return cs
}
