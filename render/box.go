package render

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ViceAguilera/go-epptrack/tracker"
)

// boxLabel is a text label rendered above a bounding box
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
	font    Font
}

// LabelText returns the caption for a tracked object, eg: "ID0 helmet 0.70".
// Objects without an identity have no ID prefix.
func LabelText(obj tracker.Object) string {
	if obj.TrackID == tracker.NoTrack {
		return fmt.Sprintf("%s %.2f", obj.Label, obj.Prob)
	}
	return fmt.Sprintf("ID%d %s %.2f", obj.TrackID, obj.Label, obj.Prob)
}

// TrackedBoxes renders the bounding boxes of tracked persons and their
// equipment.  Persons are drawn in PersonColor, equipment in CompliantColor
// or ViolationColor depending on the label, violation labels are written
// in white.
func TrackedBoxes(img *gocv.Mat, objs []tracker.Object, font Font,
	lineThickness int) {

	// keep a record of all box labels for later rendering
	boxLabels := make([]boxLabel, 0, len(objs))

	for _, obj := range objs {

		useClr := LabelColor(obj.Label)
		rect := obj.Rect.Image()

		gocv.Rectangle(img, rect, useClr, lineThickness)

		useFont := font

		if obj.Label.IsNegative() {
			useFont.Color = White
		}

		boxLabels = append(boxLabels, placeLabel(rect, LabelText(obj), useClr,
			useFont, lineThickness))
	}

	// draw all precalculated box labels so they are the top most layer on the
	// image and don't get overlapped by other boxes
	for _, box := range boxLabels {
		// draw box text gets written on
		gocv.Rectangle(img, box.rect, box.clr, -1)

		// Draw the label over box
		gocv.PutTextWithParams(img, box.text, box.textPos,
			box.font.Face, box.font.Scale, box.font.Color, box.font.Thickness,
			box.font.LineType, false)
	}
}

// placeLabel calculates where the label text of a box is drawn according to
// the font alignment
func placeLabel(rect image.Rectangle, text string, clr color.RGBA, font Font,
	lineThickness int) boxLabel {

	textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

	// Calculate the alignment of text label
	var centerX int

	switch font.Alignment {
	case AlignCenter:
		centerX = (rect.Min.X + rect.Max.X) / 2

	case AlignRight:
		centerX = rect.Max.X - (textSize.X / 2) - font.RightPad + (lineThickness / 2)

	case AlignLeft:
		fallthrough
	default:
		centerX = rect.Min.X + (textSize.X / 2) + font.LeftPad - (lineThickness / 2)
	}

	top := rect.Min.Y

	// keep the label inside the image when the box touches the top edge
	if minTop := textSize.Y + font.TopPad + font.BottomPad; top < minTop {
		top = minTop
	}

	return boxLabel{
		rect: image.Rect(centerX-textSize.X/2-font.LeftPad,
			top-textSize.Y-font.TopPad-font.BottomPad,
			centerX+textSize.X/2+font.RightPad, top),
		clr:     clr,
		text:    text,
		textPos: image.Pt(centerX-textSize.X/2, top-font.BottomPad),
		font:    font,
	}
}
