// Package preprocess prepares video frames for the detection model.
package preprocess

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ViceAguilera/go-epptrack/postprocess"
)

// PadColor is the grey YOLO models are trained with for letterbox borders
var PadColor = color.RGBA{R: 114, G: 114, B: 114, A: 255}

// Letterbox scales frames to the model input size whilst keeping their
// aspect ratio, padding the remainder with borders
type Letterbox struct {
	srcWidth   int
	srcHeight  int
	destWidth  int
	destHeight int
	// tempMat holds the resized frame before padding
	tempMat gocv.Mat
	xPad    int
	yPad    int
	scale   float32
	resizeW int
	resizeH int
}

// NewLetterbox returns a Letterbox for frames of the source dimensions
func NewLetterbox(srcWidth, srcHeight, destWidth, destHeight int) *Letterbox {
	l := &Letterbox{
		srcWidth:   srcWidth,
		srcHeight:  srcHeight,
		destWidth:  destWidth,
		destHeight: destHeight,
		tempMat:    gocv.NewMat(),
	}

	l.preCalc()

	return l
}

// Close frees the intermediate Mat
func (l *Letterbox) Close() error {
	return l.tempMat.Close()
}

// preCalc works out the resize dimensions and border sizes
func (l *Letterbox) preCalc() {

	l.resizeW = l.destWidth
	l.resizeH = l.destHeight

	scaleW := float32(l.destWidth) / float32(l.srcWidth)
	scaleH := float32(l.destHeight) / float32(l.srcHeight)
	l.scale = scaleH

	if scaleW < scaleH {
		l.scale = scaleW
		l.resizeH = int(float32(l.srcHeight) * l.scale)
	} else {
		l.resizeW = int(float32(l.srcWidth) * l.scale)
	}

	l.yPad = (l.destHeight - l.resizeH) / 2
	l.xPad = (l.destWidth - l.resizeW) / 2
}

// Fits reports whether frames of the given size can use this Letterbox
func (l *Letterbox) Fits(width, height int) bool {
	return l.srcWidth == width && l.srcHeight == height
}

// Resize letterboxes src into dest
func (l *Letterbox) Resize(src gocv.Mat, dest *gocv.Mat) {

	gocv.Resize(src, &l.tempMat, image.Pt(l.resizeW, l.resizeH),
		0, 0, gocv.InterpolationArea)

	gocv.CopyMakeBorder(l.tempMat, dest, l.yPad, l.destHeight-l.resizeH-l.yPad,
		l.xPad, l.destWidth-l.resizeW-l.xPad, gocv.BorderConstant, PadColor)
}

// FrameScale returns the parameters needed to map model boxes back to the
// source frame
func (l *Letterbox) FrameScale() postprocess.FrameScale {
	return postprocess.FrameScale{
		InputWidth:  l.destWidth,
		InputHeight: l.destHeight,
		FrameWidth:  l.srcWidth,
		FrameHeight: l.srcHeight,
		XPad:        l.xPad,
		YPad:        l.yPad,
		Scale:       l.scale,
	}
}
