package postprocess

import (
	"math"
	"sort"
)

// clamp restricts the value to be within the range min and max
func clamp(val float32, min, max int) float32 {

	if val > float32(min) {

		if val < float32(max) {
			return val
		}

		return float32(max)
	}

	return float32(min)
}

// candidate is a decoded box, in model input pixels, that has passed the
// score threshold
type candidate struct {
	x1, y1, x2, y2 float32
	score          float32
	class          int
}

// suppress runs per class Non-Maximum Suppression.  Candidates are ranked by
// descending score, equal scores keeping their decode order, and a box is
// dropped when its IoU with a kept box of the same class exceeds threshold.
// The kept candidates are returned in rank order.
func suppress(cands []candidate, threshold float32) []candidate {

	ranked := make([]candidate, len(cands))
	copy(ranked, cands)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	kept := make([]candidate, 0, len(ranked))

	for _, c := range ranked {
		overlaps := false

		for _, k := range kept {
			if k.class == c.class &&
				IoU(k.x1, k.y1, k.x2, k.y2, c.x1, c.y1, c.x2, c.y2) > threshold {
				overlaps = true
				break
			}
		}

		if !overlaps {
			kept = append(kept, c)
		}
	}

	return kept
}

// IoU returns the Intersection over Union of two boxes given by their top
// left and bottom right corners.  Disjoint boxes and a degenerate union
// return 0.
func IoU(ax1, ay1, ax2, ay2, bx1, by1, bx2, by2 float32) float32 {

	iw := math.Min(float64(ax2), float64(bx2)) - math.Max(float64(ax1), float64(bx1))

	if iw <= 0 {
		return 0
	}

	ih := math.Min(float64(ay2), float64(by2)) - math.Max(float64(ay1), float64(by1))

	if ih <= 0 {
		return 0
	}

	inter := iw * ih
	union := float64(ax2-ax1)*float64(ay2-ay1) + float64(bx2-bx1)*float64(by2-by1) - inter

	if union <= 0 {
		return 0
	}

	return float32(inter / union)
}
