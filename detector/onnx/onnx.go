// Package onnx runs a YOLOv8 or YOLO11 PPE detection model exported to ONNX
// using the OpenCV DNN module.
package onnx

import (
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"

	"github.com/ViceAguilera/go-epptrack/postprocess"
	"github.com/ViceAguilera/go-epptrack/preprocess"
)

// Options are the settings used to load a Detector
type Options struct {
	// ModelPath is the .onnx model file
	ModelPath string
	// Classes maps each model class index to a Label
	Classes []postprocess.Label
	// InputSize is the square model input resolution, 640 for the stock
	// YOLO exports
	InputSize int
	// ConfidenceFloor is the minimum class score to keep a detection
	ConfidenceFloor float32
	// NMSThresh is the IoU above which overlapping boxes of the same class
	// are suppressed
	NMSThresh float32
}

// Detector produces detections from video frames.  A Detector is not safe
// for concurrent use.
type Detector struct {
	net       gocv.Net
	post      *postprocess.YOLOv8
	inputSize image.Point
	classes   int
	// letterbox is rebuilt when the frame size changes
	letterbox *preprocess.Letterbox
	input     gocv.Mat
}

// New loads the model and returns a Detector
func New(opts Options) (*Detector, error) {

	if _, err := os.Stat(opts.ModelPath); err != nil {
		return nil, fmt.Errorf("model file not found: %w", err)
	}

	if len(opts.Classes) == 0 {
		return nil, fmt.Errorf("no model classes given")
	}

	if opts.InputSize <= 0 {
		opts.InputSize = 640
	}

	net := gocv.ReadNetFromONNX(opts.ModelPath)

	if net.Empty() {
		return nil, fmt.Errorf("failed to load network from %s", opts.ModelPath)
	}

	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, fmt.Errorf("error setting network backend: %w", err)
	}

	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, fmt.Errorf("error setting network target: %w", err)
	}

	params := postprocess.YOLOv8EPPParams(opts.Classes)
	params.BoxThreshold = opts.ConfidenceFloor
	params.NMSThreshold = opts.NMSThresh

	return &Detector{
		net:       net,
		post:      postprocess.NewYOLOv8(params),
		inputSize: image.Pt(opts.InputSize, opts.InputSize),
		classes:   len(opts.Classes),
		input:     gocv.NewMat(),
	}, nil
}

// Detect runs the model on a BGR frame and returns the detections in frame
// pixel coordinates
func (d *Detector) Detect(img gocv.Mat) ([]postprocess.DetectResult, error) {

	if img.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	if d.letterbox == nil || !d.letterbox.Fits(img.Cols(), img.Rows()) {
		if d.letterbox != nil {
			d.letterbox.Close()
		}

		d.letterbox = preprocess.NewLetterbox(img.Cols(), img.Rows(), d.inputSize.X, d.inputSize.Y)
	}

	d.letterbox.Resize(img, &d.input)

	blob := gocv.BlobFromImage(d.input, 1.0/255.0, d.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	output := d.net.Forward("")
	defer output.Close()

	anchors, err := anchorCount(output.Size(), d.classes)

	if err != nil {
		return nil, err
	}

	data, err := output.DataPtrFloat32()

	if err != nil {
		return nil, fmt.Errorf("error reading output tensor: %w", err)
	}

	res := d.post.DetectObjects(data, anchors, d.letterbox.FrameScale())

	return res.GetDetectResults(), nil
}

// Close frees the network and letterbox buffers
func (d *Detector) Close() error {

	if d.letterbox != nil {
		d.letterbox.Close()
	}

	d.input.Close()

	return d.net.Close()
}

// anchorCount validates the output tensor shape [1, 4+classes, anchors] and
// returns the number of anchors
func anchorCount(dims []int, classes int) (int, error) {

	if len(dims) != 3 || dims[0] != 1 {
		return 0, fmt.Errorf("unexpected output tensor shape %v", dims)
	}

	if dims[1] != 4+classes {
		return 0, fmt.Errorf("output tensor has %d rows, model with %d classes expects %d",
			dims[1], classes, 4+classes)
	}

	return dims[2], nil
}
