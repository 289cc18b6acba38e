package epptrack

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ViceAguilera/go-epptrack/compliance"
	"github.com/ViceAguilera/go-epptrack/postprocess"
	"github.com/ViceAguilera/go-epptrack/tracker"
)

func det(label postprocess.Label, x1, y1, x2, y2 int, conf float32) postprocess.DetectResult {
	return postprocess.DetectResult{
		Label:       label,
		Box:         postprocess.BoxRect{Left: x1, Top: y1, Right: x2, Bottom: y2},
		Probability: conf,
	}
}

func frameOne() []postprocess.DetectResult {
	return []postprocess.DetectResult{
		det(postprocess.Person, 0, 0, 100, 200, 0.9),
		det(postprocess.Person, 300, 0, 400, 200, 0.8),
		det(postprocess.Helmet, 10, 5, 90, 60, 0.7),
	}
}

func frameTwo() []postprocess.DetectResult {
	return []postprocess.DetectResult{
		det(postprocess.Person, 5, 0, 105, 200, 0.9),
		det(postprocess.Person, 305, 0, 405, 200, 0.8),
	}
}

func personIDs(f *Frame) []int {
	ids := make([]int, 0, len(f.Persons))
	for _, p := range f.Persons {
		ids = append(ids, p.TrackID)
	}
	return ids
}

func newObservedEngine(t *testing.T, cfg Config) (*Engine, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)

	e, err := NewEngine(cfg, WithLogger(zap.New(core)))
	require.NoError(t, err)

	return e, logs
}

const frameOneReport = "Detectadas: 2 persona(s)\n" +
	"\n" +
	"Persona 0:\n" +
	"  helmet: 0.70\n" +
	"  goggles: no detectado\n" +
	"  vest: no detectado\n" +
	"\n" +
	"Persona 1:\n" +
	"  helmet: no detectado\n" +
	"  goggles: no detectado\n" +
	"  vest: no detectado\n"

func TestEngineTwoFrames(t *testing.T) {

	for _, backend := range []tracker.Backend{tracker.BackendIoU, tracker.BackendKalman} {
		t.Run(string(backend), func(t *testing.T) {

			cfg := DefaultConfig()
			cfg.Tracker.Backend = string(backend)

			e, logs := newObservedEngine(t, cfg)

			f, err := e.Process(frameOne())
			require.NoError(t, err)

			assert.Equal(t, 0, f.Index)
			assert.Equal(t, []int{0, 1}, personIDs(f))
			require.Len(t, f.Assignments, 1)
			assert.True(t, f.Assignments[0].Assigned)
			assert.Equal(t, 0, f.Assignments[0].TrackID)
			assert.Equal(t, frameOneReport, f.Report())

			require.Len(t, f.Tracked, 3)
			assert.Equal(t, postprocess.Helmet, f.Tracked[2].Label)
			assert.Equal(t, 0, f.Tracked[2].TrackID)

			assert.Equal(t, 2, logs.FilterMessage("track created").Len())

			assigned := logs.FilterMessage("equipment assigned").All()
			require.Len(t, assigned, 1)
			assert.Equal(t, int64(0), assigned[0].ContextMap()["track_id"])
			assert.Equal(t, int64(0), assigned[0].ContextMap()["frame"])

			f, err = e.Process(frameTwo())
			require.NoError(t, err)

			assert.Equal(t, 1, f.Index)
			assert.Equal(t, []int{0, 1}, personIDs(f))
			assert.Equal(t, 2, logs.FilterMessage("track created").Len())
		})
	}
}

func TestEngineLostCountStaysZero(t *testing.T) {

	trk := tracker.NewIoUTracker(0.3, 5)

	e, err := NewEngine(DefaultConfig(), WithTracker(trk))
	require.NoError(t, err)

	_, err = e.Process(frameOne())
	require.NoError(t, err)
	_, err = e.Process(frameTwo())
	require.NoError(t, err)

	for _, tr := range trk.Tracks() {
		assert.Equal(t, 0, tr.GetLostCount())
	}
}

func TestEngineDropsLowConfidenceAndUnknown(t *testing.T) {

	e, logs := newObservedEngine(t, DefaultConfig())

	f, err := e.Process([]postprocess.DetectResult{
		det(postprocess.Person, 0, 0, 100, 200, 0.9),
		det(postprocess.Helmet, 10, 5, 90, 60, 0.4),
		det(postprocess.Unknown, 10, 5, 90, 60, 0.99),
		det(postprocess.Person, 300, 0, 400, 200, 0.49),
	})
	require.NoError(t, err)

	assert.Equal(t, []int{0}, personIDs(f))
	assert.Empty(t, f.Assignments)
	assert.Equal(t, compliance.Unknown, f.Records[0].Items[0].Status)

	assert.Equal(t, 2, logs.FilterMessage("dropping detection below confidence floor").Len())
	assert.Equal(t, 1, logs.FilterMessage("dropping detection with unknown label").Len())
}

func TestEngineDropsNaNConfidence(t *testing.T) {

	e, logs := newObservedEngine(t, DefaultConfig())

	f, err := e.Process([]postprocess.DetectResult{
		det(postprocess.Person, 0, 0, 100, 200, nan),
		det(postprocess.NoHelmet, 10, 5, 90, 60, nan),
		det(postprocess.Helmet, 10, 5, 90, 60, 0.8),
	})
	require.NoError(t, err)

	assert.Empty(t, f.Persons)
	assert.Empty(t, f.Records)
	require.Len(t, f.Assignments, 1)
	assert.Equal(t, postprocess.Helmet, f.Assignments[0].Object.Label)

	assert.Equal(t, 2, logs.FilterMessage("dropping detection below confidence floor").Len())
}

func TestEngineAssignsDetectionIDs(t *testing.T) {

	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	dets := frameOne()
	dets[1].ID = 99

	f, err := e.Process(dets)
	require.NoError(t, err)

	assert.Equal(t, int64(1), f.Persons[0].ID)
	assert.Equal(t, int64(99), f.Persons[1].ID)
	assert.Equal(t, int64(2), f.Assignments[0].Object.ID)
}

func TestEngineNegativeOverrides(t *testing.T) {

	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	f, err := e.Process([]postprocess.DetectResult{
		det(postprocess.Person, 0, 0, 100, 200, 0.9),
		det(postprocess.Helmet, 10, 5, 90, 60, 0.95),
		det(postprocess.NoHelmet, 12, 5, 88, 60, 0.6),
	})
	require.NoError(t, err)

	require.Len(t, f.Records, 1)
	assert.Equal(t, compliance.Violation, f.Records[0].Items[0].Status)
	assert.Contains(t, f.Report(), "  no-helmet: 0.60\n")
}

func TestEngineEvictionAndNewID(t *testing.T) {

	e, logs := newObservedEngine(t, DefaultConfig())

	person := []postprocess.DetectResult{det(postprocess.Person, 0, 0, 100, 200, 0.9)}

	_, err := e.Process(person)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, e.LiveTrackIDs())

	for i := 0; i < 6; i++ {
		f, err := e.Process(nil)
		require.NoError(t, err)
		assert.Empty(t, f.Records)

		// lost tracks stay alive until max_lost is exceeded
		if i < 5 {
			assert.Equal(t, []int{0}, e.LiveTrackIDs(), "after %d missed frames", i+1)
		}
	}

	assert.Empty(t, e.LiveTrackIDs())

	assert.Equal(t, 1, logs.FilterMessage("track removed").Len())

	f, err := e.Process(person)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, personIDs(f))
}

func TestEngineCentroidPolicy(t *testing.T) {

	cfg := DefaultConfig()
	cfg.Association.Policy = PolicyCentroid

	e, err := NewEngine(cfg)
	require.NoError(t, err)

	dets := frameOne()[:2]
	dets = append(dets, det(postprocess.Vest, 320, 80, 380, 150, 0.8))

	f, err := e.Process(dets)
	require.NoError(t, err)

	require.Len(t, f.Assignments, 1)
	assert.Equal(t, 1, f.Assignments[0].TrackID)
}

func TestEngineReset(t *testing.T) {

	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	_, err = e.Process(frameOne())
	require.NoError(t, err)

	e.Reset()

	f, err := e.Process(frameTwo()[1:])
	require.NoError(t, err)

	assert.Equal(t, 0, f.Index)
	assert.Equal(t, []int{0}, personIDs(f))
	assert.Equal(t, int64(1), f.Persons[0].ID)
}

func TestNewEngineErrors(t *testing.T) {

	cfg := DefaultConfig()
	cfg.Tracker.MaxLost = -1

	_, err := NewEngine(cfg)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "tracker.max_lost", cfgErr.Field)

	cfg = DefaultConfig()
	cfg.Tracker.IoUThresh = nan

	_, err = NewEngine(cfg)

	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "tracker.iou_thresh", cfgErr.Field)

	cfg = DefaultConfig()
	cfg.Tracker.Backend = "reid"

	_, err = NewEngine(cfg)

	assert.ErrorIs(t, err, tracker.ErrBackendUnavailable)

	var backendErr *tracker.BackendError
	require.True(t, errors.As(err, &backendErr))
	assert.Equal(t, tracker.Backend("reid"), backendErr.Backend)
}

// failingTracker is a backend whose update always fails
type failingTracker struct {
	err error
}

func (f failingTracker) Update([]tracker.Object) ([]tracker.Object, error) {
	return nil, f.err
}

func (f failingTracker) Reset() {}

func TestEngineTrackerFailure(t *testing.T) {

	cause := errors.New("matrix not positive definite")

	e, err := NewEngine(DefaultConfig(), WithTracker(failingTracker{err: cause}))
	require.NoError(t, err)

	_, err = e.Process(frameOne())

	assert.ErrorIs(t, err, cause)
	assert.ErrorContains(t, err, "frame 0")
	assert.Nil(t, e.LiveTrackIDs())
}
