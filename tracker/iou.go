package tracker

// Track is a person identity held by the IoUTracker
type Track struct {
	// id is unique for the lifetime of the tracker and never reused
	id int
	// rect is the bounding box of the last matched detection
	rect Rect
	// lostCount is the number of consecutive frames without a match
	lostCount int
}

// GetTrackID returns the unique ID of the track
func (t Track) GetTrackID() int {
	return t.id
}

// GetRect returns the bounding box of the last matched detection
func (t Track) GetRect() Rect {
	return t.rect
}

// GetLostCount returns the number of frames since the track last matched
func (t Track) GetLostCount() int {
	return t.lostCount
}

// IoUTracker assigns identities to person detections by greedy IoU
// matching against the last known position of each track.
//
// Matching is track first: tracks are visited in creation order and each
// claims the unclaimed detection it overlaps the most.  This is not a
// globally optimal assignment and the result depends on track order, which
// is kept stable so runs are reproducible.
type IoUTracker struct {
	// iouThresh is the minimum IoU for a track to claim a detection
	iouThresh float32
	// maxLost is the number of consecutive misses a track survives
	maxLost int
	// tracks are the live identities in creation order
	tracks []*Track
	// nextID is the ID given to the next new track
	nextID int
}

// NewIoUTracker returns an IoUTracker with the given match threshold and
// loss tolerance
func NewIoUTracker(iouThresh float32, maxLost int) *IoUTracker {
	return &IoUTracker{
		iouThresh: iouThresh,
		maxLost:   maxLost,
		tracks:    make([]*Track, 0),
	}
}

// Reset clears all tracks and restarts ID numbering
func (it *IoUTracker) Reset() {
	it.tracks = make([]*Track, 0)
	it.nextID = 0
}

// Tracks returns a copy of the live tracks in creation order
func (it *IoUTracker) Tracks() []Track {

	res := make([]Track, 0, len(it.tracks))

	for _, t := range it.tracks {
		res = append(res, *t)
	}

	return res
}

// Update matches the person detections of a frame to the existing tracks,
// removes tracks lost for more than maxLost frames and creates a track for
// every unclaimed detection.  All detections are returned in input order
// stamped with their TrackID.  The error is always nil.
func (it *IoUTracker) Update(objects []Object) ([]Object, error) {

	out := make([]Object, len(objects))
	copy(out, objects)

	claimed := make([]bool, len(out))

	for _, track := range it.tracks {

		best := -1
		bestIoU := float32(0)

		for i := range out {
			if claimed[i] {
				continue
			}

			iou := track.rect.IoU(out[i].Rect)

			if best < 0 || iou > bestIoU {
				best = i
				bestIoU = iou
			}
		}

		if best < 0 || bestIoU < it.iouThresh {
			track.lostCount++
			continue
		}

		track.rect = out[best].Rect
		track.lostCount = 0
		claimed[best] = true
		out[best].TrackID = track.id
	}

	// remove tracks that have exceeded the loss tolerance
	live := it.tracks[:0]

	for _, track := range it.tracks {
		if track.lostCount <= it.maxLost {
			live = append(live, track)
		}
	}

	it.tracks = live

	for i := range out {
		if claimed[i] {
			continue
		}

		track := &Track{
			id:   it.nextID,
			rect: out[i].Rect,
		}
		it.nextID++

		it.tracks = append(it.tracks, track)
		out[i].TrackID = track.id
	}

	return out, nil
}
