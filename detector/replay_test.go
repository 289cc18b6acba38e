package detector

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ViceAguilera/go-epptrack/postprocess"
)

const recording = `{"frame":0,"detections":[{"bbox":[0,0,100,200],"label":"Person","conf":0.9},{"bbox":[10,5,90,60],"label":"helmet","conf":0.7}]}

{"frame":1,"detections":[]}
{"detections":[{"bbox":[1.4,2.6,3,4],"class":1,"conf":0.55,"id":42},{"bbox":[0,0,1,1],"label":"forklift","conf":0.9}]}
`

func TestReplayNext(t *testing.T) {

	ctx := context.Background()
	r := NewReplay(strings.NewReader(recording), []postprocess.Label{postprocess.Person, postprocess.NoVest})

	f, err := r.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, f.Index)
	require.Len(t, f.Detections, 2)
	assert.Equal(t, postprocess.DetectResult{
		Label:       postprocess.Helmet,
		Box:         postprocess.BoxRect{Left: 10, Top: 5, Right: 90, Bottom: 60},
		Probability: 0.7,
	}, f.Detections[1])

	f, err = r.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.Index)
	assert.Empty(t, f.Detections)

	f, err = r.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Index, "frame index falls back to sequence number")
	require.Len(t, f.Detections, 2)
	assert.Equal(t, postprocess.NoVest, f.Detections[0].Label)
	assert.Equal(t, postprocess.BoxRect{Left: 1, Top: 3, Right: 3, Bottom: 4}, f.Detections[0].Box)
	assert.Equal(t, int64(42), f.Detections[0].ID)
	assert.Equal(t, postprocess.Unknown, f.Detections[1].Label)

	_, err = r.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReplayErrors(t *testing.T) {

	tests := []struct {
		name string
		line string
		want string
	}{
		{"invalid json", `{"frame":0,`, "invalid JSON"},
		{"short bbox", `{"detections":[{"bbox":[0,0,1],"label":"vest","conf":0.9}]}`, "bbox must have 4 values"},
		{"inverted bbox", `{"detections":[{"bbox":[10,0,1,5],"label":"vest","conf":0.9}]}`, "inverted corners"},
		{"missing conf", `{"detections":[{"bbox":[0,0,1,1],"label":"vest"}]}`, "missing conf"},
		{"missing label", `{"detections":[{"bbox":[0,0,1,1],"conf":0.9}]}`, "missing label or class"},
		{"class out of range", `{"detections":[{"bbox":[0,0,1,1],"class":9,"conf":0.9}]}`, "out of range"},
		{"detections not array", `{"detections":{}}`, "not an array"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := NewReplay(strings.NewReader("\n"+tc.line), nil)

			_, err := r.Next(context.Background())

			require.Error(t, err)
			assert.Contains(t, err.Error(), "replay line 2")
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestReplayCancelled(t *testing.T) {

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewReplay(strings.NewReader(recording), nil).Next(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenReplay(t *testing.T) {

	path := filepath.Join(t.TempDir(), "dets.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(recording), 0o644))

	r, err := OpenReplay(path, nil)
	require.NoError(t, err)
	defer r.Close()

	f, err := r.Next(context.Background())
	require.NoError(t, err)
	assert.Len(t, f.Detections, 2)

	_, err = OpenReplay(filepath.Join(t.TempDir(), "missing.jsonl"), nil)
	assert.Error(t, err)
}
