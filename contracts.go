package nesting

import (
	"context"
	"image"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"

	nestplan "github.com/danailatanasov3333-lab/cobot-nesting/nest_plan"
)

// RobotService is the motion and tooling contract of the cobot. Nonzero
// status codes from the underlying driver surface here as non-nil errors.
type RobotService interface {
	// CurrentPosition reads the robot's pose in the base frame.
	CurrentPosition(ctx context.Context) (nestplan.Position, error)

	// MoveToPosition commands a blocking move to the pose using the cell's
	// configured tool frame, workpiece frame, velocity and acceleration.
	MoveToPosition(ctx context.Context, pos nestplan.Position) error

	// MoveToCalibrationPosition returns the arm to its calibration pose.
	MoveToCalibrationPosition(ctx context.Context) error

	// ZMin is the configured lower safety limit of the Z axis in mm.
	ZMin() float64

	// CurrentTool reports the mounted tool-changer slot, if any.
	CurrentTool() (int, bool)

	PickupGripper(ctx context.Context, id int) error
	DropOffGripper(ctx context.Context, id int) error

	// VerifyGripperChange confirms the expected gripper is mounted after an
	// exchange.
	VerifyGripperChange(ctx context.Context, id int) error
}

// CaptureMover moves the cell to the nesting capture pose. It is owned by
// the surrounding glue-dispensing application, not by this module.
type CaptureMover interface {
	MoveToCapturePosition(ctx context.Context) error
}

// VisionService is the detection side of the cell: a polled snapshot of the
// current contours plus the calibration artifacts this module consumes.
type VisionService interface {
	// Contours returns the current detection snapshot in camera pixels.
	Contours(ctx context.Context) ([]nestplan.Contour, error)

	// PickupAreaPoints returns the configured 4-point pickup polygon, or nil
	// when no area is configured.
	PickupAreaPoints(ctx context.Context) ([]r2.Point, error)

	// CameraToRobotMatrix returns the 3x3 camera-to-robot homography.
	CameraToRobotMatrix(ctx context.Context) (*mat.Dense, error)

	// LatestFrame returns the most recent camera frame.
	LatestFrame(ctx context.Context) (image.Image, error)
}

// Template is a known workpiece the matcher compares detections against.
type Template struct {
	Name        string
	Contour     nestplan.Contour
	PickupPoint *r2.Point // optional explicit pickup point in camera pixels
	Gripper     nestplan.GripperKind
	HeightMm    float64 // nominal part height; 0 means use the cell default
}

// Match pairs a template with the detected contour it matched.
type Match struct {
	Template *Template
	Contour  nestplan.Contour
}

// MatchSet is the matcher's output: matches with their per-part orientation
// in degrees, index-aligned.
type MatchSet struct {
	Workpieces   []Match
	Orientations []float64
}

// WorkpieceMatcher matches detected contours against workpiece templates.
// Matching internals (template comparison, scoring) live outside this
// module.
type WorkpieceMatcher interface {
	FindMatchingWorkpieces(ctx context.Context, templates []Template,
		contours []nestplan.Contour) (*MatchSet, []nestplan.Contour, error)
}

// LaserRanger estimates a part height from a camera frame containing the
// laser line.
type LaserRanger interface {
	// MeasureHeight returns the estimated height in mm and the raw pixel
	// displacement it was derived from.
	MeasureHeight(ctx context.Context, frame image.Image) (heightMm, rawPixels float64, err error)
}

// MessageBroker is a fire-and-forget publish channel into the vision
// subsystem.
type MessageBroker interface {
	Publish(ctx context.Context, topic string, payload map[string]interface{}) error
}

// Switch is an on/off tool mounted on the cell (laser, vacuum pump).
type Switch interface {
	TurnOn(ctx context.Context) error
	TurnOff(ctx context.Context) error
}
