package tracker

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Tracker is implemented by person tracking backends.  Update takes the
// person detections of one frame and returns the detections that received
// an identity, stamped with their TrackID.  A Tracker holds state across
// frames and must be fed frames in capture order from a single goroutine.
type Tracker interface {
	Update(objects []Object) ([]Object, error)
	Reset()
}

// Backend names a tracking implementation
type Backend string

const (
	// BackendIoU is the greedy IoU matching tracker
	BackendIoU Backend = "iou"
	// BackendKalman is the motion predicting tracker with optimal
	// assignment
	BackendKalman Backend = "kalman"
)

// ErrBackendUnavailable is returned when a backend has not been registered
var ErrBackendUnavailable = errors.New("tracker backend unavailable")

// BackendError reports a failure to construct a tracking backend
type BackendError struct {
	Backend Backend
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("tracker backend %q: %v", e.Backend, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Params are the settings shared by all backends
type Params struct {
	// IoUThresh is the minimum IoU between a track and a detection for
	// them to match
	IoUThresh float32
	// MaxLost is the number of consecutive frames a track may go unmatched
	// before being removed
	MaxLost int
}

// DefaultParams returns an IoU threshold of 0.3 and a loss tolerance of
// 5 frames
func DefaultParams() Params {
	return Params{
		IoUThresh: 0.3,
		MaxLost:   5,
	}
}

// Constructor builds a Tracker from Params
type Constructor func(p Params) (Tracker, error)

var (
	registryMu sync.RWMutex
	registry   = map[Backend]Constructor{
		BackendIoU: func(p Params) (Tracker, error) {
			return NewIoUTracker(p.IoUThresh, p.MaxLost), nil
		},
		BackendKalman: func(p Params) (Tracker, error) {
			return NewKalmanTracker(p.IoUThresh, p.MaxLost), nil
		},
	}
)

// Register makes a backend available to New.  Registering an existing name
// replaces it.
func Register(backend Backend, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[backend] = ctor
}

// Backends returns the registered backend names in sorted order
func Backends() []Backend {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]Backend, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	return names
}

// New creates a Tracker for the named backend
func New(backend Backend, p Params) (Tracker, error) {

	registryMu.RLock()
	ctor, ok := registry[backend]
	registryMu.RUnlock()

	if !ok {
		return nil, &BackendError{Backend: backend, Err: ErrBackendUnavailable}
	}

	t, err := ctor(p)

	if err != nil {
		return nil, &BackendError{Backend: backend, Err: err}
	}

	return t, nil
}
