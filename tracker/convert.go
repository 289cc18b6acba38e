package tracker

import "github.com/ViceAguilera/go-epptrack/postprocess"

// DetectionsToObjects takes a postprocess object detection results and
// converts it into tracker objects that do not have an identity yet
func DetectionsToObjects(dets []postprocess.DetectResult) []Object {

	objs := make([]Object, 0, len(dets))

	for _, det := range dets {
		objs = append(objs, NewObject(RectFromBox(det.Box), det.Label,
			det.Probability, det.ID))
	}

	return objs
}

// SplitPersons separates person objects from equipment objects keeping the
// order of each.  Objects with any other label are dropped.
func SplitPersons(objs []Object) (persons, equipment []Object) {

	for _, obj := range objs {
		switch {
		case obj.Label == postprocess.Person:
			persons = append(persons, obj)
		case obj.Label.IsEquipment():
			equipment = append(equipment, obj)
		}
	}

	return persons, equipment
}
