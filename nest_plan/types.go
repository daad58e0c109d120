package nestplan

import (
	"github.com/golang/geo/r2"
)

// GripperKind identifies which vacuum gripper is mounted on the robot flange.
type GripperKind int

const (
	// GripperSingle is the single-cup gripper used for small workpieces.
	GripperSingle GripperKind = iota + 1
	// GripperDouble is the dual-cup gripper used for long workpieces. It is
	// mounted 90 degrees off the single gripper's axis.
	GripperDouble
)

func (g GripperKind) String() string {
	switch g {
	case GripperSingle:
		return "single"
	case GripperDouble:
		return "double"
	default:
		return "unknown"
	}
}

// ID returns the tool-changer slot ID for the gripper.
func (g GripperKind) ID() int {
	return int(g)
}

// Valid reports whether g is one of the known gripper kinds.
func (g GripperKind) Valid() bool {
	return g == GripperSingle || g == GripperDouble
}

// Position is a 6-DOF robot pose in the robot base frame: millimeters for
// X/Y/Z and degrees for RX/RY/RZ. Values are set once and only adjusted
// through explicit offset application.
type Position struct {
	X  float64
	Y  float64
	Z  float64
	RX float64
	RY float64
	RZ float64
}

// Values returns the pose as the ordered 6-element slice the robot driver
// consumes: [x, y, z, rx, ry, rz].
func (p Position) Values() []float64 {
	return []float64{p.X, p.Y, p.Z, p.RX, p.RY, p.RZ}
}

// PickupPositions is the three-stage vertical approach for one grasp:
// descend to clearance height, drop to the grasp height, retreat back up.
type PickupPositions struct {
	Descent Position
	Pickup  Position
	Lift    Position
}

// DropOffPositions is the two-step descent used on placement. High sits
// 50mm above the pickup height, Low 20mm above it.
type DropOffPositions struct {
	High Position
	Low  Position
}

// MinRect is a minimum-area rotated bounding rectangle of a contour.
type MinRect struct {
	Center   r2.Point
	Width    float64
	Height   float64
	AngleDeg float64
}

// WorkpieceDimensions describes the axis-aligned extent of a rotated
// workpiece contour. Width >= Height always holds; the raw min-area
// rectangle is kept for diagnostics.
type WorkpieceDimensions struct {
	Width      float64
	Height     float64
	BBoxCenter r2.Point
	MinRect    MinRect
}

// PlacementTarget is the chosen drop coordinate on the staging plane.
type PlacementTarget struct {
	X float64
	Y float64
}

// WorkpiecePlacement aggregates everything needed to pick one matched part
// and set it down on the staging plane. Pickup is populated by the pickup
// planner after the placement has been computed.
type WorkpiecePlacement struct {
	Dimensions   WorkpieceDimensions
	Target       PlacementTarget
	Pickup       *PickupPositions
	DropOff      DropOffPositions
	PickupHeight float64

	// Contour is the part outline rotated and translated to its final spot
	// on the plane; Translation is the (dx, dy) that was applied.
	Contour     Contour
	Translation r2.Point
}

// PlacementResult is the outcome of one placement computation. Soft
// geometry failures are carried in Err; a full plane is reported through
// PlaneFull with no placement computed.
type PlacementResult struct {
	Placement *WorkpiecePlacement
	PlaneFull bool
	Err       error
}

// OK reports whether a usable placement was produced.
func (r PlacementResult) OK() bool {
	return r.Err == nil && !r.PlaneFull && r.Placement != nil
}

// RowOverflowResult is the outcome of the row-wrap decision for one part.
type RowOverflowResult struct {
	NewTargetX       float64
	NewTargetY       float64
	OverflowOccurred bool
	PlaneFull        bool
}
