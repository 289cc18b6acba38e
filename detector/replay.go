// Package detector provides sources of per frame detections for the
// tracking engine.
package detector

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ViceAguilera/go-epptrack/postprocess"
)

// Frame is the detector output for one video frame
type Frame struct {
	// Index is the frame number as recorded, or the line sequence number
	// when the recording does not carry one
	Index int
	// Detections are in detector order
	Detections []postprocess.DetectResult
}

// Replay reads recorded detector output from JSON lines, one frame per line
//
//	{"frame":0,"detections":[{"bbox":[x1,y1,x2,y2],"label":"helmet","conf":0.7}]}
//
// A detection may give a "class" index into the model class list instead of
// a "label" name, and an optional integer "id".  Blank lines are skipped.
type Replay struct {
	scanner *bufio.Scanner
	classes []postprocess.Label
	// line is the number of the last line read
	line   int
	frames int
	closer io.Closer
}

// NewReplay returns a Replay reading from r.  Classes maps "class" indexes
// to labels and may be nil when the recording uses label names.
func NewReplay(r io.Reader, classes []postprocess.Label) *Replay {

	scanner := bufio.NewScanner(r)
	// frames with many detections produce long lines
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	return &Replay{
		scanner: scanner,
		classes: classes,
	}
}

// OpenReplay opens a recording file.  Close must be called when done.
func OpenReplay(path string, classes []postprocess.Label) (*Replay, error) {

	f, err := os.Open(path)

	if err != nil {
		return nil, fmt.Errorf("error opening replay file: %w", err)
	}

	r := NewReplay(f, classes)
	r.closer = f

	return r, nil
}

// Close releases the underlying file if the Replay was opened from one
func (r *Replay) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Next returns the next recorded frame, or io.EOF when the recording has
// ended
func (r *Replay) Next(ctx context.Context) (Frame, error) {

	for {
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}

		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return Frame{}, fmt.Errorf("error reading replay line %d: %w", r.line+1, err)
			}
			return Frame{}, io.EOF
		}

		r.line++

		text := strings.TrimSpace(r.scanner.Text())

		if text == "" {
			continue
		}

		frame, err := r.parseFrame(text)

		if err != nil {
			return Frame{}, fmt.Errorf("replay line %d: %w", r.line, err)
		}

		r.frames++

		return frame, nil
	}
}

// parseFrame decodes one JSON line
func (r *Replay) parseFrame(text string) (Frame, error) {

	if !gjson.Valid(text) {
		return Frame{}, errors.New("invalid JSON")
	}

	doc := gjson.Parse(text)

	frame := Frame{Index: r.frames}

	if idx := doc.Get("frame"); idx.Exists() {
		frame.Index = int(idx.Int())
	}

	dets := doc.Get("detections")

	if dets.Exists() && !dets.IsArray() {
		return Frame{}, errors.New("detections is not an array")
	}

	for i, d := range dets.Array() {

		det, err := r.parseDetection(d)

		if err != nil {
			return Frame{}, fmt.Errorf("detection %d: %w", i, err)
		}

		frame.Detections = append(frame.Detections, det)
	}

	return frame, nil
}

// parseDetection decodes one detection object
func (r *Replay) parseDetection(d gjson.Result) (postprocess.DetectResult, error) {

	var det postprocess.DetectResult

	bbox := d.Get("bbox").Array()

	if len(bbox) != 4 {
		return det, fmt.Errorf("bbox must have 4 values, got %d", len(bbox))
	}

	for _, v := range bbox {
		if v.Type != gjson.Number {
			return det, fmt.Errorf("bbox value %q is not a number", v.Raw)
		}
	}

	det.Box = postprocess.BoxRect{
		Left:   int(math.Round(bbox[0].Float())),
		Top:    int(math.Round(bbox[1].Float())),
		Right:  int(math.Round(bbox[2].Float())),
		Bottom: int(math.Round(bbox[3].Float())),
	}

	if det.Box.Right < det.Box.Left || det.Box.Bottom < det.Box.Top {
		return det, fmt.Errorf("bbox %s has inverted corners", d.Get("bbox").Raw)
	}

	conf := d.Get("conf")

	if conf.Type != gjson.Number {
		return det, errors.New("missing conf")
	}

	det.Probability = float32(conf.Float())

	switch {
	case d.Get("label").Exists():
		// names the model does not know map to Unknown and are dropped by
		// the engine
		det.Label, _ = postprocess.ParseLabel(d.Get("label").String())

	case d.Get("class").Exists():
		class := int(d.Get("class").Int())

		if class < 0 || class >= len(r.classes) {
			return det, fmt.Errorf("class index %d out of range of %d labels", class, len(r.classes))
		}

		det.Label = r.classes[class]

	default:
		return det, errors.New("missing label or class")
	}

	det.ID = d.Get("id").Int()

	return det, nil
}
