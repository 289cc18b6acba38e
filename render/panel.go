package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"gocv.io/x/gocv"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	// panelLineHeight is the spacing between report lines in pixels
	panelLineHeight = 16
	panelPadding    = 10
	pausedText      = "PAUSADO"
)

// panelLineColor picks the text color of a report line so missing
// equipment stands out
func panelLineColor(line string) color.RGBA {
	switch {
	case strings.HasPrefix(strings.TrimSpace(line), "no-"):
		return ViolationColor
	case strings.HasSuffix(line, "no detectado"):
		return color.RGBA{R: 160, G: 160, B: 160, A: 255}
	default:
		return White
	}
}

// ReportPanel draws the report lines onto a new BGR image of the given size
// to be shown beside the video.  Lines that do not fit are cut off.  When
// paused is set a marker is drawn at the bottom of the panel.  The returned
// Mat must be closed by the caller.
func ReportPanel(lines []string, width, height int, paused bool) (gocv.Mat, error) {

	if width <= 0 || height <= 0 {
		return gocv.NewMat(), fmt.Errorf("invalid panel size %dx%d", width, height)
	}

	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(rgba, rgba.Bounds(), image.NewUniform(PanelColor), image.Point{}, draw.Src)

	face := basicfont.Face7x13

	drawLine := func(text string, clr color.RGBA, y int) {
		dr := &font.Drawer{
			Dst:  rgba,
			Src:  image.NewUniform(clr),
			Face: face,
			Dot: fixed.Point26_6{
				X: fixed.I(panelPadding),
				Y: fixed.I(y),
			},
		}
		dr.DrawString(text)
	}

	y := panelPadding + face.Ascent

	for _, line := range lines {
		if y > height-panelLineHeight {
			break
		}
		drawLine(line, panelLineColor(line), y)
		y += panelLineHeight
	}

	if paused {
		drawLine(pausedText, Yellow, height-panelPadding)
	}

	// Convert image.RGBA to gocv.Mat
	imgRGBA, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC4, rgba.Pix)

	if err != nil {
		return gocv.NewMat(), fmt.Errorf("error creating Mat from RGBA: %w", err)
	}

	defer imgRGBA.Close()

	panel := gocv.NewMat()
	gocv.CvtColor(imgRGBA, &panel, gocv.ColorRGBAToBGR)

	return panel, nil
}

// AppendPanel joins the panel to the right hand side of the frame into dst.
// Both images must be the same height.
func AppendPanel(frame, panel gocv.Mat, dst *gocv.Mat) error {

	if frame.Rows() != panel.Rows() {
		return fmt.Errorf("panel height %d does not match frame height %d",
			panel.Rows(), frame.Rows())
	}

	gocv.Hconcat(frame, panel, dst)

	return nil
}
