package epptrack

import (
	"fmt"
	"math"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/ViceAguilera/go-epptrack/compliance"
	"github.com/ViceAguilera/go-epptrack/tracker"
)

const (
	// PolicyContainment associates equipment by centre containment and IoU
	PolicyContainment = "containment"
	// PolicyCentroid associates equipment to the nearest person centre
	PolicyCentroid = "centroid"
)

// Config holds the tunable parameters of an Engine
type Config struct {
	Tracker     TrackerConfig     `toml:"tracker"`
	Association AssociationConfig `toml:"association"`
	Detection   DetectionConfig   `toml:"detection"`
}

type TrackerConfig struct {
	// Backend names the tracker implementation, see tracker.Backends
	Backend   string  `toml:"backend"`
	IoUThresh float32 `toml:"iou_thresh"`
	MaxLost   int     `toml:"max_lost"`
}

type AssociationConfig struct {
	Policy        string  `toml:"policy"`
	MarginPx      float32 `toml:"margin_px"`
	IoUFloor      float32 `toml:"iou_floor"`
	MaxDistancePx float32 `toml:"max_distance_px"`
}

type DetectionConfig struct {
	ConfidenceFloor float32 `toml:"confidence_floor"`
	// NMSThresh is only used by the ONNX detector
	NMSThresh float32 `toml:"nms_thresh"`
}

// ConfigError reports a configuration parameter that is out of range
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s = %v: %s", e.Field, e.Value, e.Reason)
}

// DefaultConfig returns the settings the PPE model was tuned with
func DefaultConfig() Config {

	params := tracker.DefaultParams()

	return Config{
		Tracker: TrackerConfig{
			Backend:   string(tracker.BackendIoU),
			IoUThresh: params.IoUThresh,
			MaxLost:   params.MaxLost,
		},
		Association: AssociationConfig{
			Policy:        PolicyContainment,
			MarginPx:      40,
			IoUFloor:      0.07,
			MaxDistancePx: 300,
		},
		Detection: DetectionConfig{
			ConfidenceFloor: 0.5,
			NMSThresh:       0.45,
		},
	}
}

// LoadConfig reads a TOML config file over the defaults.  Keys missing from
// the file keep their default value and unknown keys are an error.
func LoadConfig(path string) (Config, error) {

	cfg := DefaultConfig()

	file, err := os.Open(path)

	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}

	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks every parameter is in range and returns a *ConfigError
// for the first one that is not
func (c Config) Validate() error {

	unit := func(field string, v float32) error {
		if math.IsNaN(float64(v)) || v < 0 || v > 1 {
			return &ConfigError{Field: field, Value: v, Reason: "must be within [0,1]"}
		}
		return nil
	}

	if c.Tracker.Backend == "" {
		return &ConfigError{Field: "tracker.backend", Value: c.Tracker.Backend, Reason: "must not be empty"}
	}

	if err := unit("tracker.iou_thresh", c.Tracker.IoUThresh); err != nil {
		return err
	}

	if c.Tracker.MaxLost < 0 {
		return &ConfigError{Field: "tracker.max_lost", Value: c.Tracker.MaxLost, Reason: "must not be negative"}
	}

	switch c.Association.Policy {
	case PolicyContainment, PolicyCentroid:
	default:
		return &ConfigError{Field: "association.policy", Value: c.Association.Policy,
			Reason: fmt.Sprintf("must be %q or %q", PolicyContainment, PolicyCentroid)}
	}

	if !finite(c.Association.MarginPx) || c.Association.MarginPx < 0 {
		return &ConfigError{Field: "association.margin_px", Value: c.Association.MarginPx, Reason: "must be a finite, non negative number"}
	}

	if err := unit("association.iou_floor", c.Association.IoUFloor); err != nil {
		return err
	}

	if !finite(c.Association.MaxDistancePx) || c.Association.MaxDistancePx <= 0 {
		return &ConfigError{Field: "association.max_distance_px", Value: c.Association.MaxDistancePx, Reason: "must be a finite, positive number"}
	}

	if err := unit("detection.confidence_floor", c.Detection.ConfidenceFloor); err != nil {
		return err
	}

	return unit("detection.nms_thresh", c.Detection.NMSThresh)
}

// finite reports whether v is neither NaN nor infinite
func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// TrackerParams returns the settings for tracker.New
func (c Config) TrackerParams() tracker.Params {
	return tracker.Params{
		IoUThresh: c.Tracker.IoUThresh,
		MaxLost:   c.Tracker.MaxLost,
	}
}

// Associator returns the equipment association policy
func (c Config) Associator() compliance.Associator {

	if c.Association.Policy == PolicyCentroid {
		return &compliance.CentroidAssociator{
			MaxDistance: c.Association.MaxDistancePx,
		}
	}

	return &compliance.ContainmentAssociator{
		Margin:   c.Association.MarginPx,
		IoUFloor: c.Association.IoUFloor,
	}
}
