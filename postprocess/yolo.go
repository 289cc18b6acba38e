package postprocess

import (
	"github.com/ViceAguilera/go-epptrack/postprocess/result"
)

// YOLOv8 defines the struct for post processing the float output tensor of
// a YOLOv8 or YOLO11 detection model exported to ONNX.  The tensor has the
// shape [1, 4+classes, anchors] where the first four rows are the box
// (center x, center y, width, height) in model input pixels and the
// remaining rows are the per class scores.
type YOLOv8 struct {
	// Params are the Model configuration parameters
	Params YOLOv8Params
	// idGen provides the next number for each detection result ID
	idGen *result.IDGenerator
}

// YOLOv8Params defines the struct containing the YOLOv8 parameters to use
// for post processing operations
type YOLOv8Params struct {
	// BoxThreshold is the minimum probability score required for a bounding box
	// region to be considered for processing
	BoxThreshold float32
	// NMSThreshold is the Non-Maximum Suppression threshold used for defining
	// the maximum allowed Intersection Over Union (IoU) between two
	// bounding boxes for both to be kept
	NMSThreshold float32
	// Classes maps each class index of the Model to a Label
	Classes []Label
	// MaxObjectNumber is the maximum number of objects detected that can be
	// returned
	MaxObjectNumber int
}

// YOLOv8EPPParams returns an instance of YOLOv8Params configured for the
// PPE model featuring:
// - Object Classes: the given class labels
// - Box Threshold: 0.5
// - NMS Threshold: 0.45
// - Maximum Object Number: 64
func YOLOv8EPPParams(classes []Label) YOLOv8Params {
	return YOLOv8Params{
		BoxThreshold:    0.5,
		NMSThreshold:    0.45,
		Classes:         classes,
		MaxObjectNumber: 64,
	}
}

// NewYOLOv8 returns an instance of the YOLOv8 post processor
func NewYOLOv8(p YOLOv8Params) *YOLOv8 {
	return &YOLOv8{
		Params: p,
		idGen:  result.NewIDGenerator(),
	}
}

// FrameScale describes the resize applied to a video frame to fit the Model
// input tensor, used to map boxes back to frame pixels
type FrameScale struct {
	InputWidth  int
	InputHeight int
	FrameWidth  int
	FrameHeight int
	// XPad and YPad are the letterbox borders added around the resized
	// frame and Scale its resize factor.  A zero Scale means the frame was
	// stretched to the input size.
	XPad  int
	YPad  int
	Scale float32
}

// scaleX returns the horizontal factor between frame and input size
func (f FrameScale) scaleX() float32 {
	return float32(f.FrameWidth) / float32(f.InputWidth)
}

// scaleY returns the vertical factor between frame and input size
func (f FrameScale) scaleY() float32 {
	return float32(f.FrameHeight) / float32(f.InputHeight)
}

// toFrame maps a box in input tensor coordinates to frame pixels
func (f FrameScale) toFrame(x1, y1, x2, y2 float32) BoxRect {

	if f.Scale <= 0 {
		return BoxRect{
			Left:   int(clamp(x1, 0, f.InputWidth) * f.scaleX()),
			Top:    int(clamp(y1, 0, f.InputHeight) * f.scaleY()),
			Right:  int(clamp(x2, 0, f.InputWidth) * f.scaleX()),
			Bottom: int(clamp(y2, 0, f.InputHeight) * f.scaleY()),
		}
	}

	x1 -= float32(f.XPad)
	y1 -= float32(f.YPad)
	x2 -= float32(f.XPad)
	y2 -= float32(f.YPad)

	return BoxRect{
		Left:   int(clamp(x1/f.Scale, 0, f.FrameWidth)),
		Top:    int(clamp(y1/f.Scale, 0, f.FrameHeight)),
		Right:  int(clamp(x2/f.Scale, 0, f.FrameWidth)),
		Bottom: int(clamp(y2/f.Scale, 0, f.FrameHeight)),
	}
}

// YOLOv8Result defines a struct used for object detection results
type YOLOv8Result struct {
	DetectResults []DetectResult
}

// GetDetectResults returns the object detection results containing bounding
// boxes
func (r YOLOv8Result) GetDetectResults() []DetectResult {
	return r.DetectResults
}

// DetectObjects takes the output tensor data and the number of anchors it
// holds, runs the object detection process then returns the results
func (y *YOLOv8) DetectObjects(tensor []float32, anchors int,
	scale FrameScale) DetectionResult {

	numClasses := len(y.Params.Classes)

	if anchors <= 0 || numClasses == 0 || len(tensor) < (4+numClasses)*anchors {
		return YOLOv8Result{}
	}

	var cands []candidate

	for i := 0; i < anchors; i++ {

		bestScore := float32(0)
		bestClass := -1

		for c := 0; c < numClasses; c++ {
			score := tensor[(4+c)*anchors+i]

			if score > bestScore {
				bestScore = score
				bestClass = c
			}
		}

		if bestClass < 0 || bestScore < y.Params.BoxThreshold {
			continue
		}

		cx := tensor[i]
		cy := tensor[anchors+i]
		w := tensor[2*anchors+i]
		h := tensor[3*anchors+i]

		cands = append(cands, candidate{
			x1:    cx - w/2,
			y1:    cy - h/2,
			x2:    cx + w/2,
			y2:    cy + h/2,
			score: bestScore,
			class: bestClass,
		})
	}

	if len(cands) == 0 {
		// no object detected
		return YOLOv8Result{}
	}

	kept := suppress(cands, y.Params.NMSThreshold)

	if len(kept) > y.Params.MaxObjectNumber {
		kept = kept[:y.Params.MaxObjectNumber]
	}

	group := make([]DetectResult, 0, len(kept))

	for _, c := range kept {
		group = append(group, DetectResult{
			Box:         scale.toFrame(c.x1, c.y1, c.x2, c.y2),
			Probability: c.score,
			Label:       y.Params.Classes[c.class],
			ID:          y.idGen.GetNext(),
		})
	}

	return YOLOv8Result{
		DetectResults: group,
	}
}
