package render

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ViceAguilera/go-epptrack/tracker"
)

// TrailStyle defines the parameters used for rendering the trail style
type TrailStyle struct {
	// LineSame defines if the color of the trail line should be the
	// color of the track.  If set to false then use the color specified at
	// LineColor
	LineSame      bool
	LineColor     color.RGBA
	LineThickness int
	// CircleSame defines if the color of the midpoint circle should be the
	// color of the track.  If set to false then use the color specified at
	// CircleColor
	CircleSame   bool
	CircleColor  color.RGBA
	CircleRadius int
}

// DefaultTrailStyle returns default trail style settings
func DefaultTrailStyle() TrailStyle {
	return TrailStyle{
		LineSame:      true,
		LineColor:     Yellow,
		LineThickness: 2,
		CircleSame:    false,
		CircleColor:   Pink,
		CircleRadius:  3,
	}
}

// Trail draws the movement history of each tracked person on the source
// image
func Trail(img *gocv.Mat, persons []tracker.Object, trail *tracker.Trail,
	style TrailStyle) {

	for _, p := range persons {

		if p.TrackID == tracker.NoTrack {
			continue
		}

		trackClr := TrackColor(p.TrackID)

		// determine style colors to use
		lineClr := trackClr
		circleClr := trackClr

		if !style.LineSame {
			lineClr = style.LineColor
		}

		if !style.CircleSame {
			circleClr = style.CircleColor
		}

		points := trail.Points(p.TrackID)

		if len(points) < 2 {
			continue
		}

		for i := 1; i < len(points); i++ {
			gocv.Line(img,
				image.Pt(points[i-1].X, points[i-1].Y),
				image.Pt(points[i].X, points[i].Y),
				lineClr, style.LineThickness,
			)
		}

		// draw center point circle on current box
		last := points[len(points)-1]
		gocv.Circle(img, image.Pt(last.X, last.Y), style.CircleRadius, circleClr, -1)
	}
}
