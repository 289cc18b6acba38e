package tracker

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// kalmanTrack is a person identity whose position is estimated by a
// Kalman filter
type kalmanTrack struct {
	// Kalman filter used for tracking
	kalmanFilter *KalmanFilter
	// Mean state vector
	mean StateMean
	// Covariance matrix
	covariance StateCov
	// rect is the filtered bounding box
	rect Rect
	// id is unique for the lifetime of the tracker
	id int
	// lostCount is the number of consecutive frames without a match
	lostCount int
}

// newKalmanTrack starts a track at the position of the given detection
func newKalmanTrack(obj Object, id int) *kalmanTrack {

	kt := &kalmanTrack{
		kalmanFilter: NewKalmanFilter(1.0/20, 1.0/160),
		mean:         make(StateMean, 8),
		covariance:   StateCov{mat.NewDense(8, 8, nil)},
		rect:         obj.Rect,
		id:           id,
	}

	kt.kalmanFilter.Initiate(kt.mean, &kt.covariance, DetectBox(obj.Rect.GetXyah()))

	return kt
}

// predict moves the track state one frame forward
func (kt *kalmanTrack) predict() {

	// a lost track should not keep growing or shrinking
	if kt.lostCount > 0 {
		kt.mean[7] = 0
	}

	kt.kalmanFilter.Predict(kt.mean, &kt.covariance)
	kt.updateRect()
}

// update corrects the track state with a matched detection
func (kt *kalmanTrack) update(obj Object) error {

	err := kt.kalmanFilter.Update(kt.mean, &kt.covariance,
		DetectBox(obj.Rect.GetXyah()))

	if err != nil {
		return fmt.Errorf("error updating track %d: %w", kt.id, err)
	}

	kt.updateRect()

	kt.lostCount = 0

	return nil
}

// updateRect updates the bounding box of the track based on the state mean
func (kt *kalmanTrack) updateRect() {
	kt.rect = GenerateRectByXyah(Xyah(kt.mean[:4]))
}
