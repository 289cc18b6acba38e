package tracker

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// DetectBox represents a 1x4 measurement (center x, center y, aspect ratio,
// height)
type DetectBox []float32

// StateMean represents a 1x8 state vector, the measurement followed by its
// velocities
type StateMean []float32

// StateCov represents an 8x8 state covariance matrix
type StateCov struct {
	*mat.Dense
}

// StateHMean represents a 1x4 state projected to measurement space
type StateHMean []float32

// StateHCov represents a 4x4 covariance projected to measurement space
type StateHCov struct {
	*mat.SymDense
}

// KalmanFilter is a constant velocity Kalman filter over the Xyah box state
type KalmanFilter struct {
	stdWeightPosition float32
	stdWeightVelocity float32
	// motionMat is the 8x8 state transition for a time step of one frame
	motionMat *mat.Dense
	// updateMat is the 4x8 observation matrix
	updateMat *mat.Dense
}

// NewKalmanFilter initializes and returns a new KalmanFilter with the given
// position and velocity noise weights relative to box height
func NewKalmanFilter(stdWeightPosition, stdWeightVelocity float32) *KalmanFilter {

	const ndim = 4

	motionMat := mat.NewDense(2*ndim, 2*ndim, nil)
	updateMat := mat.NewDense(ndim, 2*ndim, nil)

	for i := 0; i < 2*ndim; i++ {
		motionMat.Set(i, i, 1)
	}

	for i := 0; i < ndim; i++ {
		motionMat.Set(i, ndim+i, 1)
		updateMat.Set(i, i, 1)
	}

	return &KalmanFilter{
		stdWeightPosition: stdWeightPosition,
		stdWeightVelocity: stdWeightVelocity,
		motionMat:         motionMat,
		updateMat:         updateMat,
	}
}

// varianceDiag returns a square matrix with the squared standard deviations
// on its diagonal
func varianceDiag(std []float32) *mat.Dense {

	d := mat.NewDense(len(std), len(std), nil)

	for i, v := range std {
		d.Set(i, i, float64(v*v))
	}

	return d
}

// Initiate initializes the state mean and covariance from an unassociated
// measurement
func (kf *KalmanFilter) Initiate(mean StateMean, covariance *StateCov,
	measurement DetectBox) {

	copy(mean[:4], measurement[:4])

	for i := 4; i < 8; i++ {
		mean[i] = 0
	}

	h := measurement[3]
	pos := 2 * kf.stdWeightPosition * h
	vel := 10 * kf.stdWeightVelocity * h

	covariance.Dense = varianceDiag([]float32{
		pos, pos, 1e-2, pos,
		vel, vel, 1e-5, vel,
	})
}

// Predict runs the prediction step, moving the state one frame forward
func (kf *KalmanFilter) Predict(mean StateMean, covariance *StateCov) {

	h := mean[3]
	pos := kf.stdWeightPosition * h
	vel := kf.stdWeightVelocity * h

	motionCov := varianceDiag([]float32{
		pos, pos, 1e-2, pos,
		vel, vel, 1e-5, vel,
	})

	state := mat.NewVecDense(8, nil)

	for i := 0; i < 8; i++ {
		state.SetVec(i, float64(mean[i]))
	}

	var next mat.VecDense
	next.MulVec(kf.motionMat, state)

	for i := 0; i < 8; i++ {
		mean[i] = float32(next.AtVec(i))
	}

	var cov mat.Dense
	cov.Mul(kf.motionMat, covariance.Dense)
	cov.Mul(&cov, kf.motionMat.T())
	cov.Add(&cov, motionCov)

	covariance.Dense = &cov
}

// Update runs the correction step with a new measurement
func (kf *KalmanFilter) Update(mean StateMean, covariance *StateCov,
	measurement DetectBox) error {

	projectedMean, projectedCov := kf.project(mean, covariance)

	var chol mat.Cholesky

	if ok := chol.Factorize(projectedCov); !ok {
		return errors.New("failed to factorize projected covariance")
	}

	// kalman gain K satisfies S K = (P H^T)^T
	var b mat.Dense
	b.Mul(covariance.Dense, kf.updateMat.T())

	var kalmanGain mat.Dense

	if err := chol.SolveTo(&kalmanGain, b.T()); err != nil {
		return fmt.Errorf("failed to compute kalman gain: %w", err)
	}

	innovation := mat.NewVecDense(4, nil)

	for i := 0; i < 4; i++ {
		innovation.SetVec(i, float64(measurement[i]-projectedMean[i]))
	}

	var correction mat.VecDense
	correction.MulVec(kalmanGain.T(), innovation)

	for i := 0; i < 8; i++ {
		mean[i] += float32(correction.AtVec(i))
	}

	var gainCov, reduce mat.Dense
	gainCov.Mul(kalmanGain.T(), projectedCov)
	reduce.Mul(&gainCov, &kalmanGain)

	newCov := mat.NewDense(8, 8, nil)
	newCov.Sub(covariance.Dense, &reduce)

	covariance.Dense = newCov

	return nil
}

// project projects the state mean and covariance to measurement space
func (kf *KalmanFilter) project(mean StateMean,
	covariance *StateCov) (StateHMean, *StateHCov) {

	h := mean[3]
	pos := kf.stdWeightPosition * h

	innovationCov := varianceDiag([]float32{pos, pos, 1e-1, pos})

	state := mat.NewVecDense(8, nil)

	for i, v := range mean {
		state.SetVec(i, float64(v))
	}

	var projected mat.VecDense
	projected.MulVec(kf.updateMat, state)

	var hp, hph mat.Dense
	hp.Mul(kf.updateMat, covariance.Dense)
	hph.Mul(&hp, kf.updateMat.T())
	hph.Add(&hph, innovationCov)

	projectedCov := mat.NewSymDense(4, nil)

	for i := 0; i < 4; i++ {
		for j := i; j < 4; j++ {
			projectedCov.SetSym(i, j, hph.At(i, j))
		}
	}

	projectedMean := make(StateHMean, 4)

	for i := 0; i < 4; i++ {
		projectedMean[i] = float32(projected.AtVec(i))
	}

	return projectedMean, &StateHCov{projectedCov}
}
