package tracker

import (
	"image"
	"math"
	"testing"

	"github.com/ViceAguilera/go-epptrack/postprocess"
)

func almostEqual(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-4
}

func TestRectIoU(t *testing.T) {

	tests := []struct {
		name string
		a, b Rect
		want float32
	}{
		{"identical", NewRect(0, 0, 10, 10), NewRect(0, 0, 10, 10), 1},
		{"half overlap", NewRect(0, 0, 10, 10), NewRect(5, 0, 15, 10), 1.0 / 3},
		{"disjoint", NewRect(0, 0, 10, 10), NewRect(20, 20, 30, 30), 0},
		{"touching edge", NewRect(0, 0, 10, 10), NewRect(10, 0, 20, 10), 0},
		{"degenerate", NewRect(5, 5, 5, 5), NewRect(0, 0, 10, 10), 0},
		{"shifted person", NewRect(0, 0, 100, 200), NewRect(5, 0, 105, 200), 19000.0 / 21000},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.a.IoU(tc.b)

			if !almostEqual(got, tc.want) {
				t.Errorf("IoU(%v, %v) = %f, want %f", tc.a, tc.b, got, tc.want)
			}

			if rev := tc.b.IoU(tc.a); !almostEqual(rev, got) {
				t.Errorf("IoU not symmetric: %f vs %f", got, rev)
			}
		})
	}
}

func TestRectExpandContains(t *testing.T) {

	r := NewRect(10, 10, 20, 20).Expand(5)

	if r != NewRect(5, 5, 25, 25) {
		t.Fatalf("unexpected expanded rect %v", r)
	}

	if !r.ContainsPoint(5, 5) {
		t.Errorf("expected corner to be contained")
	}

	if r.ContainsPoint(4.9, 10) {
		t.Errorf("expected point left of rect to be outside")
	}

	if cx, cy := r.Center(); cx != 15 || cy != 15 {
		t.Errorf("unexpected center %f,%f", cx, cy)
	}
}

func TestRectFromBox(t *testing.T) {

	r := RectFromBox(postprocess.BoxRect{Left: 1, Top: 2, Right: 11, Bottom: 22})

	if r.Width() != 10 || r.Height() != 20 || r.Area() != 200 {
		t.Errorf("unexpected rect %v", r)
	}

	if r.Image() != image.Rect(1, 2, 11, 22) {
		t.Errorf("unexpected image rect %v", r.Image())
	}
}

func TestRectXyahRoundTrip(t *testing.T) {

	r := NewRect(10, 20, 50, 100)
	got := GenerateRectByXyah(r.GetXyah())

	if !almostEqual(got.X1, r.X1) || !almostEqual(got.Y1, r.Y1) ||
		!almostEqual(got.X2, r.X2) || !almostEqual(got.Y2, r.Y2) {
		t.Errorf("expected %v, got %v", r, got)
	}
}
