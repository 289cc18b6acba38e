package postprocess

// ResolveConflicts reduces the detections of a frame so every Person
// detection is kept and each EquipmentPair contributes at most one
// detection.
//
// For a pair, the most confident negative detection wins and suppresses
// every positive one, as violation evidence always takes precedence.  With
// no negative present the most confident positive detection is kept.  Ties
// go to the detection seen first.  Survivors keep their input order.
func ResolveConflicts(dets []DetectResult) []DetectResult {

	keep := make(map[int]bool, len(EquipmentPairs))

	for _, pair := range EquipmentPairs {
		if idx := bestOf(dets, pair.Negative); idx >= 0 {
			keep[idx] = true
			continue
		}
		if idx := bestOf(dets, pair.Positive); idx >= 0 {
			keep[idx] = true
		}
	}

	res := make([]DetectResult, 0, len(dets))

	for i, det := range dets {
		if det.Label == Person || keep[i] {
			res = append(res, det)
		}
	}

	return res
}

// bestOf returns the index of the highest probability detection with the
// given label, or -1 if there is none
func bestOf(dets []DetectResult, label Label) int {

	best := -1

	for i, det := range dets {
		if det.Label != label {
			continue
		}
		if best < 0 || det.Probability > dets[best].Probability {
			best = i
		}
	}

	return best
}
