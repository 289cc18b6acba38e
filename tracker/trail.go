package tracker

import "sync"

// Point represents the x,y coordinates of the center of a tracked bounding
// box
type Point struct {
	X, Y int
}

// history is the list of recent center points of one track
type history struct {
	points []Point
}

// Trail is the struct to keep a history of tracked person positions used
// for drawing a trail.  It is safe for concurrent use so a renderer may read
// it while the tracking loop writes.
type Trail struct {
	// size is the maximum number of most recent points to keep in history
	size int
	// history of tracked points keyed by track ID
	history map[int]*history
	sync.Mutex
}

// NewTrail returns a new trail history track instance.  Size is the number
// of most recent points to keep and specifies the maximum length of the
// trail to maintain
func NewTrail(size int) *Trail {
	return &Trail{
		size:    size,
		history: make(map[int]*history),
	}
}

// Reset clears all history
func (t *Trail) Reset() {
	t.Lock()
	defer t.Unlock()

	t.history = make(map[int]*history)
}

// Add records the center of a tracked object.  Objects without a TrackID
// are ignored.
func (t *Trail) Add(obj Object) {

	if obj.TrackID == NoTrack {
		return
	}

	t.Lock()
	defer t.Unlock()

	h, exists := t.history[obj.TrackID]

	if !exists {
		h = &history{}
		t.history[obj.TrackID] = h
	}

	x, y := obj.Rect.Center()

	h.points = append(h.points, Point{
		X: int(x),
		Y: int(y),
	})

	// check if history is exceeded and drop oldest point
	if len(h.points) > t.size {
		h.points = h.points[1:]
	}
}

// Points gets a copy of the point history for a specific track id
func (t *Trail) Points(id int) []Point {
	t.Lock()
	defer t.Unlock()

	h, exists := t.history[id]

	if !exists {
		// no history yet
		return nil
	}

	res := make([]Point, len(h.points))
	copy(res, h.points)

	return res
}

// Prune drops the history of every track not in the active list
func (t *Trail) Prune(active []int) {
	t.Lock()
	defer t.Unlock()

	keep := make(map[int]bool, len(active))

	for _, id := range active {
		keep[id] = true
	}

	for id := range t.history {
		if !keep[id] {
			delete(t.history, id)
		}
	}
}
