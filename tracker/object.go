package tracker

import "github.com/ViceAguilera/go-epptrack/postprocess"

// NoTrack is the TrackID of an object that has not been given an identity
const NoTrack = -1

// Object represents an object detected in a frame, as given to and returned
// from a Tracker
type Object struct {
	// Rect is the bounding box representation of the detected object
	Rect Rect
	// Label is the class label of the object detected
	Label postprocess.Label
	// Prob is the confidence/probability of the object detected
	Prob float32
	// ID is a unique ID to give this object which can be used to match
	// the input detection object and tracked object
	ID int64
	// TrackID is the identity the tracker stamped on the object, or NoTrack
	TrackID int
}

// NewObject is a constructor function for the Object struct
func NewObject(rect Rect, label postprocess.Label, prob float32, id int64) Object {
	return Object{
		Rect:    rect,
		Label:   label,
		Prob:    prob,
		ID:      id,
		TrackID: NoTrack,
	}
}
