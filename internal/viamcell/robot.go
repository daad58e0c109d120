// Package viamcell adapts the Viam machine's components and services to the
// collaborator contracts of the nesting pipeline.
package viamcell

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r3"

	"go.viam.com/rdk/components/arm"
	"go.viam.com/rdk/components/generic"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/referenceframe"
	"go.viam.com/rdk/resource"
	"go.viam.com/rdk/robot"
	"go.viam.com/rdk/spatialmath"

	nestplan "github.com/danailatanasov3333-lab/cobot-nesting/nest_plan"
)

// Config names the machine resources the cell is wired to and carries the
// rig's motion calibration.
type Config struct {
	ArmName         string
	ToolchangerName string
	CameraName      string
	VisionName      string
	MatcherName     string
	LaserTrackName  string
	BrokerName      string
	LaserName       string
	PumpName        string

	// ZMinMm is the lower safety limit of the Z axis.
	ZMinMm float64

	// CaptureJoints and CalibrationJoints are the recorded joint positions
	// of the capture pose and the calibration pose, in degrees.
	CaptureJoints     []float64
	CalibrationJoints []float64
}

// DefaultConfig returns the resource names and limits of the production cell.
func DefaultConfig() Config {
	return Config{
		ArmName:           "cobot",
		ToolchangerName:   "toolchanger",
		CameraName:        "overhead-cam",
		VisionName:        "contour-vision",
		MatcherName:       "workpiece-matcher",
		LaserTrackName:    "laser-tracker",
		BrokerName:        "cell-broker",
		LaserName:         "laser-switch",
		PumpName:          "vacuum-pump",
		ZMinMm:            55,
		CaptureJoints:     []float64{0, -45, 90, 0, 45, 0},
		CalibrationJoints: []float64{0, -30, 60, 0, 60, 0},
	}
}

// Robot drives the cobot arm and its tool changer. It satisfies both the
// motion and the capture-move contracts of the pipeline.
type Robot struct {
	logger logging.Logger
	cfg    Config

	arm         arm.Arm
	toolchanger resource.Resource

	mu          sync.Mutex
	currentTool int
	hasTool     bool
}

// NewRobot looks up the arm and tool changer on the machine. Both are
// required.
func NewRobot(ctx context.Context, machine robot.Robot, cfg Config, logger logging.Logger) (*Robot, error) {
	r := &Robot{logger: logger, cfg: cfg}

	cobotArm, err := arm.FromRobot(machine, cfg.ArmName)
	if err != nil {
		return nil, fmt.Errorf("arm (%s): %w", cfg.ArmName, err)
	}
	r.arm = cobotArm

	toolchanger, err := generic.FromRobot(machine, cfg.ToolchangerName)
	if err != nil {
		return nil, fmt.Errorf("toolchanger (%s): %w", cfg.ToolchangerName, err)
	}
	r.toolchanger = toolchanger

	if id, mounted, err := r.queryMountedTool(ctx); err != nil {
		logger.Warnf("Could not query mounted tool, assuming none: %v", err)
	} else {
		r.currentTool, r.hasTool = id, mounted
	}

	return r, nil
}

// CurrentPosition reads the arm's end-effector pose as a 6-value position in
// millimeters and degrees.
func (r *Robot) CurrentPosition(ctx context.Context) (nestplan.Position, error) {
	pose, err := r.arm.EndPosition(ctx, nil)
	if err != nil {
		return nestplan.Position{}, fmt.Errorf("reading end position: %w", err)
	}
	pt := pose.Point()
	ea := pose.Orientation().EulerAngles()
	return nestplan.Position{
		X:  pt.X,
		Y:  pt.Y,
		Z:  pt.Z,
		RX: radToDeg(ea.Roll),
		RY: radToDeg(ea.Pitch),
		RZ: radToDeg(ea.Yaw),
	}, nil
}

// MoveToPosition commands a blocking linear move to the pose.
func (r *Robot) MoveToPosition(ctx context.Context, pos nestplan.Position) error {
	pose := spatialmath.NewPose(
		r3.Vector{X: pos.X, Y: pos.Y, Z: pos.Z},
		&spatialmath.EulerAngles{
			Roll:  degToRad(pos.RX),
			Pitch: degToRad(pos.RY),
			Yaw:   degToRad(pos.RZ),
		},
	)
	if err := r.arm.MoveToPosition(ctx, pose, nil); err != nil {
		return fmt.Errorf("move to (%.1f, %.1f, %.1f): %w", pos.X, pos.Y, pos.Z, err)
	}
	return nil
}

// MoveToCalibrationPosition returns the arm to its recorded calibration pose.
func (r *Robot) MoveToCalibrationPosition(ctx context.Context) error {
	return r.moveToJoints(ctx, r.cfg.CalibrationJoints)
}

// MoveToCapturePosition moves the arm to the recorded capture pose, clearing
// the camera's view of the pickup table.
func (r *Robot) MoveToCapturePosition(ctx context.Context) error {
	return r.moveToJoints(ctx, r.cfg.CaptureJoints)
}

func (r *Robot) moveToJoints(ctx context.Context, degrees []float64) error {
	radians := make([]float64, len(degrees))
	for i, d := range degrees {
		radians[i] = degToRad(d)
	}
	if err := r.arm.MoveToJointPositions(ctx, referenceframe.FloatsToInputs(radians), nil); err != nil {
		return fmt.Errorf("move to joint pose: %w", err)
	}
	return nil
}

// ZMin is the configured lower safety limit of the Z axis.
func (r *Robot) ZMin() float64 {
	return r.cfg.ZMinMm
}

// CurrentTool reports the mounted tool-changer slot, if any.
func (r *Robot) CurrentTool() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currentTool, r.hasTool
}

// PickupGripper mounts the gripper in the given slot.
func (r *Robot) PickupGripper(ctx context.Context, id int) error {
	if _, err := r.toolchanger.DoCommand(ctx, map[string]interface{}{"pickup_gripper": id}); err != nil {
		return fmt.Errorf("pickup gripper %d: %w", id, err)
	}
	r.mu.Lock()
	r.currentTool, r.hasTool = id, true
	r.mu.Unlock()
	return nil
}

// DropOffGripper returns the gripper in the given slot to its dock.
func (r *Robot) DropOffGripper(ctx context.Context, id int) error {
	if _, err := r.toolchanger.DoCommand(ctx, map[string]interface{}{"dropoff_gripper": id}); err != nil {
		return fmt.Errorf("drop off gripper %d: %w", id, err)
	}
	r.mu.Lock()
	r.hasTool = false
	r.mu.Unlock()
	return nil
}

// VerifyGripperChange confirms the expected gripper is mounted by asking the
// tool changer which slot is docked.
func (r *Robot) VerifyGripperChange(ctx context.Context, id int) error {
	mountedID, mounted, err := r.queryMountedTool(ctx)
	if err != nil {
		return fmt.Errorf("verify gripper %d: %w", id, err)
	}
	if !mounted || mountedID != id {
		return fmt.Errorf("expected gripper %d mounted, toolchanger reports %d (mounted=%t)",
			id, mountedID, mounted)
	}
	return nil
}

// toolStatus is the decoded toolchanger status response.
type toolStatus struct {
	CurrentTool int  `mapstructure:"current_tool"`
	Mounted     bool `mapstructure:"mounted"`
}

func (r *Robot) queryMountedTool(ctx context.Context) (int, bool, error) {
	resp, err := r.toolchanger.DoCommand(ctx, map[string]interface{}{"get_status": true})
	if err != nil {
		return 0, false, fmt.Errorf("toolchanger status: %w", err)
	}
	var status toolStatus
	if err := mapstructure.Decode(resp, &status); err != nil {
		return 0, false, fmt.Errorf("decode toolchanger status: %w", err)
	}
	return status.CurrentTool, status.Mounted, nil
}

func degToRad(deg float64) float64 { return deg * math.Pi / 180 }

func radToDeg(rad float64) float64 { return rad * 180 / math.Pi }
