package tracker

import (
	"image"

	"github.com/ViceAguilera/go-epptrack/postprocess"
)

// Xyah (center x, center y, aspect ratio, height) represents a 1x4 matrix
type Xyah []float32

// Rect represents a bounding box with top left (X1,Y1) and bottom right
// (X2,Y2) corners in pixel coordinates
type Rect struct {
	X1, Y1, X2, Y2 float32
}

// NewRect creates a new Rect with given corner coordinates
func NewRect(x1, y1, x2, y2 float32) Rect {
	return Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// RectFromBox creates a Rect from a detection bounding box
func RectFromBox(box postprocess.BoxRect) Rect {
	return NewRect(float32(box.Left), float32(box.Top), float32(box.Right),
		float32(box.Bottom))
}

// Width returns the width of the rectangle
func (r Rect) Width() float32 {
	return r.X2 - r.X1
}

// Height returns the height of the rectangle
func (r Rect) Height() float32 {
	return r.Y2 - r.Y1
}

// Area returns the area of the rectangle, zero for degenerate rectangles
func (r Rect) Area() float32 {
	if r.Width() <= 0 || r.Height() <= 0 {
		return 0
	}
	return r.Width() * r.Height()
}

// Center returns the midpoint of the rectangle
func (r Rect) Center() (float32, float32) {
	return (r.X1 + r.X2) / 2, (r.Y1 + r.Y2) / 2
}

// Expand returns the rectangle grown by margin pixels on every side
func (r Rect) Expand(margin float32) Rect {
	return NewRect(r.X1-margin, r.Y1-margin, r.X2+margin, r.Y2+margin)
}

// ContainsPoint reports whether the point lies inside the rectangle, edges
// included
func (r Rect) ContainsPoint(x, y float32) bool {
	return x >= r.X1 && x <= r.X2 && y >= r.Y1 && y <= r.Y2
}

// GetXyah converts the rectangle to Xyah (center x, center y, aspect ratio,
// height) format
func (r Rect) GetXyah() Xyah {
	cx, cy := r.Center()
	return Xyah{cx, cy, r.Width() / r.Height(), r.Height()}
}

// Image converts the rectangle to integer image coordinates for drawing
func (r Rect) Image() image.Rectangle {
	return image.Rect(int(r.X1), int(r.Y1), int(r.X2), int(r.Y2))
}

// IoU calculates the Intersection over Union (IoU) with another rectangle.
// Non overlapping rectangles return 0.
func (r Rect) IoU(other Rect) float32 {
	return postprocess.IoU(r.X1, r.Y1, r.X2, r.Y2, other.X1, other.Y1, other.X2, other.Y2)
}

// GenerateRectByXyah creates a Rect from Xyah (center x, center y,
// aspect ratio, height) format
func GenerateRectByXyah(xyah Xyah) Rect {
	width := xyah[2] * xyah[3]
	return NewRect(xyah[0]-width/2, xyah[1]-xyah[3]/2, xyah[0]+width/2,
		xyah[1]+xyah[3]/2)
}
