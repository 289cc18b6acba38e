package render

import (
	"image/color"

	"gocv.io/x/gocv"
)

// Alignment positions a label horizontally against the top edge of its box
type Alignment int

const (
	AlignLeft Alignment = iota + 1
	AlignCenter
	AlignRight
)

// Font defines the parameters for rendering text on an image using GoCV
type Font struct {
	Face      gocv.HersheyFont
	Scale     float64
	Color     color.RGBA
	Thickness int
	LineType  gocv.LineType
	// Padding to place around text
	LeftPad   int
	RightPad  int
	TopPad    int
	BottomPad int
	// Alignment of the text label to the bounding box
	Alignment Alignment
}

// DefaultFont returns default font settings.  Text is black as the label
// boxes are filled with the light person and equipment colors.
func DefaultFont() Font {
	return Font{
		Face:      gocv.FontHersheySimplex,
		Scale:     0.5,
		Color:     Black,
		Thickness: 1,
		LineType:  gocv.LineAA,
		LeftPad:   4,
		RightPad:  4,
		TopPad:    4,
		BottomPad: 6,
		Alignment: AlignLeft,
	}
}
