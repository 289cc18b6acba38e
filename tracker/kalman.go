package tracker

import (
	"fmt"
)

// KalmanTracker assigns identities to person detections using a constant
// velocity Kalman filter per track to predict where each person will be,
// then matching predictions to detections with a globally optimal
// assignment on IoU distance.  Loss tolerance and ID numbering follow the
// same rules as the IoUTracker.
type KalmanTracker struct {
	// iouThresh is the minimum IoU between a prediction and a detection
	// for them to match
	iouThresh float32
	// maxLost is the number of consecutive misses a track survives
	maxLost int
	// tracks are the live identities in creation order
	tracks []*kalmanTrack
	// nextID is the ID given to the next new track
	nextID int
}

// NewKalmanTracker returns a KalmanTracker with the given match threshold
// and loss tolerance
func NewKalmanTracker(iouThresh float32, maxLost int) *KalmanTracker {
	return &KalmanTracker{
		iouThresh: iouThresh,
		maxLost:   maxLost,
		tracks:    make([]*kalmanTrack, 0),
	}
}

// Reset clears all tracks and restarts ID numbering
func (kt *KalmanTracker) Reset() {
	kt.tracks = make([]*kalmanTrack, 0)
	kt.nextID = 0
}

// Tracks returns a snapshot of the live tracks in creation order
func (kt *KalmanTracker) Tracks() []Track {

	res := make([]Track, 0, len(kt.tracks))

	for _, t := range kt.tracks {
		res = append(res, Track{id: t.id, rect: t.rect, lostCount: t.lostCount})
	}

	return res
}

// Update predicts every track forward one frame, matches the person
// detections to the predictions and creates tracks for unmatched
// detections.  Matched and new detections are returned in input order with
// their TrackID set and Rect replaced by the filtered track box.
func (kt *KalmanTracker) Update(objects []Object) ([]Object, error) {

	for _, track := range kt.tracks {
		track.predict()
	}

	matchesIdx, unmatchTrackIdx, _, err := linearAssignment(
		kt.iouDistance(objects), len(kt.tracks), len(objects), 1-kt.iouThresh,
	)

	if err != nil {
		return nil, fmt.Errorf("fatal error in linearAssignment call: %w", err)
	}

	out := make([]Object, len(objects))
	copy(out, objects)

	matched := make([]bool, len(objects))

	for _, matchIdx := range matchesIdx {

		track := kt.tracks[matchIdx[0]]
		det := objects[matchIdx[1]]

		// the assignment may pair boxes right at the threshold boundary
		if track.rect.IoU(det.Rect) < kt.iouThresh {
			unmatchTrackIdx = append(unmatchTrackIdx, matchIdx[0])
			continue
		}

		if err := track.update(det); err != nil {
			return nil, err
		}

		matched[matchIdx[1]] = true
		out[matchIdx[1]].TrackID = track.id
		out[matchIdx[1]].Rect = track.rect
	}

	for _, idx := range unmatchTrackIdx {
		kt.tracks[idx].lostCount++
	}

	live := make([]*kalmanTrack, 0, len(kt.tracks))

	for _, track := range kt.tracks {
		if track.lostCount <= kt.maxLost {
			live = append(live, track)
		}
	}

	kt.tracks = live

	// new tracks are created in detection order
	for i := range out {
		if matched[i] {
			continue
		}

		track := newKalmanTrack(objects[i], kt.nextID)
		kt.nextID++

		kt.tracks = append(kt.tracks, track)
		out[i].TrackID = track.id
	}

	return out, nil
}

// iouDistance calculates the 1 - IoU cost between every track prediction
// and detection
func (kt *KalmanTracker) iouDistance(objects []Object) [][]float32 {

	cost := make([][]float32, len(kt.tracks))

	for i, track := range kt.tracks {
		cost[i] = make([]float32, len(objects))

		for j, obj := range objects {
			cost[i][j] = 1 - track.rect.IoU(obj.Rect)
		}
	}

	return cost
}
