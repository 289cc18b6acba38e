package epptrack

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/ViceAguilera/go-epptrack/compliance"
	"github.com/ViceAguilera/go-epptrack/postprocess"
	"github.com/ViceAguilera/go-epptrack/postprocess/result"
	"github.com/ViceAguilera/go-epptrack/tracker"
)

// Frame is the outcome of processing the detections of one video frame
type Frame struct {
	// Index is the number of the frame since the engine started or was
	// reset, starting at 0
	Index int
	// Persons are the tracked person detections
	Persons []tracker.Object
	// Assignments holds one entry per equipment detection that survived
	// conflict resolution
	Assignments []compliance.Assignment
	// Tracked are the persons followed by the assigned equipment, each
	// stamped with the owning person's TrackID, for rendering
	Tracked []tracker.Object
	// Records are the compliance summaries in ascending TrackID order
	Records []compliance.PersonRecord
}

// Report returns the text report of the frame
func (f *Frame) Report() string {
	return compliance.FormatReport(f.Records)
}

// Engine runs the per frame tracking and compliance pipeline.  Frames must
// be given in capture order and an Engine is not safe for concurrent use.
type Engine struct {
	cfg        Config
	log        *zap.Logger
	tracker    tracker.Tracker
	associator compliance.Associator
	idGen      *result.IDGenerator
	frames     int
	// live are the track IDs alive after the last frame, nil when the
	// backend does not list its tracks
	live map[int]bool
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger, the default discards all output
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithTracker uses the given tracker instead of the configured backend
func WithTracker(t tracker.Tracker) Option {
	return func(e *Engine) {
		e.tracker = t
	}
}

// WithAssociator uses the given policy instead of the configured one
func WithAssociator(a compliance.Associator) Option {
	return func(e *Engine) {
		e.associator = a
	}
}

// trackLister is implemented by backends that can list their live tracks
type trackLister interface {
	Tracks() []tracker.Track
}

// NewEngine validates the config and returns an Engine.  A *ConfigError is
// returned for out of range parameters and a *tracker.BackendError when the
// tracker backend cannot be created.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:   cfg,
		log:   zap.NewNop(),
		idGen: result.NewIDGenerator(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.tracker == nil {
		t, err := tracker.New(tracker.Backend(cfg.Tracker.Backend), cfg.TrackerParams())

		if err != nil {
			return nil, err
		}

		e.tracker = t
	}

	if e.associator == nil {
		e.associator = cfg.Associator()
	}

	e.log.Debug("engine created",
		zap.String("backend", cfg.Tracker.Backend),
		zap.String("policy", cfg.Association.Policy),
		zap.Float32("confidence_floor", cfg.Detection.ConfidenceFloor),
	)

	return e, nil
}

// Process runs one frame of detections through the pipeline.  Detections
// with a zero ID are given one.  An error is only returned when the tracker
// backend fails, in which case the frame should be skipped.
func (e *Engine) Process(dets []postprocess.DetectResult) (*Frame, error) {

	index := e.frames
	e.frames++

	log := e.log.With(zap.Int("frame", index))

	accepted := make([]postprocess.DetectResult, 0, len(dets))

	for _, det := range dets {
		if det.ID == 0 {
			det.ID = e.idGen.GetNext()
		}

		switch {
		case det.Label == postprocess.Unknown:
			log.Debug("dropping detection with unknown label", zap.Int64("id", det.ID))
			continue

		case math.IsNaN(float64(det.Probability)) || det.Probability < e.cfg.Detection.ConfidenceFloor:
			log.Debug("dropping detection below confidence floor",
				zap.Int64("id", det.ID),
				zap.Stringer("label", det.Label),
				zap.Float32("conf", det.Probability),
			)
			continue
		}

		accepted = append(accepted, det)
	}

	resolved := postprocess.ResolveConflicts(accepted)

	if dropped := len(accepted) - len(resolved); dropped > 0 {
		log.Debug("conflicting equipment detections suppressed", zap.Int("count", dropped))
	}

	persons, equipment := tracker.SplitPersons(tracker.DetectionsToObjects(resolved))

	tracked, err := e.tracker.Update(persons)

	if err != nil {
		return nil, fmt.Errorf("frame %d: error updating tracker: %w", index, err)
	}

	e.logTrackChanges(log)

	assignments := e.associator.Associate(equipment, tracked)

	frame := &Frame{
		Index:       index,
		Persons:     tracked,
		Assignments: assignments,
		Tracked:     make([]tracker.Object, 0, len(tracked)+len(assignments)),
	}

	frame.Tracked = append(frame.Tracked, tracked...)

	for _, a := range assignments {
		if !a.Assigned {
			log.Debug("equipment not assigned",
				zap.Stringer("label", a.Object.Label),
				zap.Float32("conf", a.Object.Prob),
			)
			continue
		}

		log.Debug("equipment assigned",
			zap.Stringer("label", a.Object.Label),
			zap.Float32("conf", a.Object.Prob),
			zap.Int("track_id", a.TrackID),
		)

		frame.Tracked = append(frame.Tracked, a.Object)
	}

	frame.Records = compliance.Summarize(tracked, assignments)

	return frame, nil
}

// logTrackChanges logs the tracks created and removed by the last update
func (e *Engine) logTrackChanges(log *zap.Logger) {

	lister, ok := e.tracker.(trackLister)

	if !ok {
		return
	}

	now := make(map[int]bool)

	for _, t := range lister.Tracks() {
		id := t.GetTrackID()
		now[id] = true

		if !e.live[id] {
			log.Debug("track created", zap.Int("track_id", id))
		}
	}

	for id := range e.live {
		if !now[id] {
			log.Debug("track removed", zap.Int("track_id", id))
		}
	}

	e.live = now
}

// LiveTrackIDs returns the IDs of the tracks alive after the last frame in
// ascending order, including tracks not matched in that frame.  It returns
// nil if the tracker backend does not list its tracks.
func (e *Engine) LiveTrackIDs() []int {

	if e.live == nil {
		return nil
	}

	ids := make([]int, 0, len(e.live))

	for id := range e.live {
		ids = append(ids, id)
	}

	sort.Ints(ids)

	return ids
}

// Reset drops all tracks and restarts frame, detection and track numbering
func (e *Engine) Reset() {
	e.tracker.Reset()
	e.idGen.Reset()
	e.frames = 0
	e.live = nil

	e.log.Debug("engine reset")
}
