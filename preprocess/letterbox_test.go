package preprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gocv.io/x/gocv"

	"github.com/ViceAguilera/go-epptrack/postprocess"
)

func TestLetterboxResize(t *testing.T) {

	tests := []struct {
		srcWidth  int
		srcHeight int
		xPad      int
		yPad      int
		scale     float32
	}{
		{1280, 720, 0, 140, 0.50},
		{800, 1000, 64, 0, 0.64},
		{800, 800, 0, 0, 0.8},
	}

	for _, tc := range tests {
		img := gocv.NewMatWithSize(tc.srcHeight, tc.srcWidth, gocv.MatTypeCV8UC3)
		dest := gocv.NewMat()

		lb := NewLetterbox(tc.srcWidth, tc.srcHeight, 640, 640)
		lb.Resize(img, &dest)

		assert.Equal(t, 640, dest.Cols())
		assert.Equal(t, 640, dest.Rows())
		assert.True(t, lb.Fits(tc.srcWidth, tc.srcHeight))

		assert.Equal(t, postprocess.FrameScale{
			InputWidth:  640,
			InputHeight: 640,
			FrameWidth:  tc.srcWidth,
			FrameHeight: tc.srcHeight,
			XPad:        tc.xPad,
			YPad:        tc.yPad,
			Scale:       tc.scale,
		}, lb.FrameScale(), "src %dx%d", tc.srcWidth, tc.srcHeight)

		img.Close()
		dest.Close()
		lb.Close()
	}
}
