package nesting

import (
	"time"

	"github.com/golang/geo/r2"

	nestplan "github.com/danailatanasov3333-lab/cobot-nesting/nest_plan"
)

// visionThresholdRegionTopic is the broker topic the vision subsystem
// listens on for threshold-region selection.
const visionThresholdRegionTopic = "vision/threshold_region"

// Config holds all tunables of the nesting cell. Values not overridden keep
// the rig's measured calibration from DefaultConfig.
type Config struct {
	Grippers nestplan.GripperGeometry
	Plane    nestplan.PlaneConfig

	// BaseRzDeg is the base RZ orientation of the pickup frame.
	BaseRzDeg float64

	// DescentOffsetMm is the clearance above ZMin for descent/lift poses.
	DescentOffsetMm float64

	// DefaultMatchHeightMm is the assumed part height used to plan the
	// grasp before the laser has measured the real one.
	DefaultMatchHeightMm float64

	// MeasurementHeightMm is the safe Z the robot holds while the laser
	// probes part height.
	MeasurementHeightMm float64

	// HeightAdjustmentMm is added to every laser reading to compensate the
	// tracker's systematic underestimate.
	HeightAdjustmentMm float64

	// StaleFrameDiscard is how many camera frames to throw away after a
	// move, letting auto-exposure settle before the laser read.
	StaleFrameDiscard int

	// TransducerOffset is the TCP correction applied after the homography
	// for the pickup-side transform, measured at rz = 0.
	TransducerOffset r2.Point

	// PlaceWaypoint is the fixed X/Y the place sequence routes through
	// between lift and drop-off.
	PlaceWaypoint r2.Point

	MaxContourRetries  int
	ContourRetryDelay  time.Duration
	CaptureSettleDelay time.Duration

	// PlotDir, when set, is a directory for debug nesting plots (one PNG
	// per placement). Empty disables plotting.
	PlotDir string
}

// DefaultConfig returns the calibration measured on the production rig.
func DefaultConfig() Config {
	return Config{
		Grippers:             nestplan.DefaultGripperGeometry(),
		Plane:                nestplan.DefaultPlaneConfig(),
		BaseRzDeg:            90,
		DescentOffsetMm:      150,
		DefaultMatchHeightMm: 3,
		MeasurementHeightMm:  350,
		HeightAdjustmentMm:   2,
		StaleFrameDiscard:    5,
		TransducerOffset:     r2.Point{X: -2.528, Y: 78.335},
		PlaceWaypoint:        r2.Point{X: -317.997, Y: 261.207},
		MaxContourRetries:    10,
		ContourRetryDelay:    time.Second,
		CaptureSettleDelay:   time.Second,
	}
}
