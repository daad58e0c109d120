package nestplan

import (
	"fmt"

	"github.com/golang/geo/r2"
)

// PickupPlanner computes the three-stage pickup trajectory and the height
// probe pose for one matched part. It is a pure computation: no I/O and no
// shared state.
type PickupPlanner struct {
	grippers        *Grippers
	descentOffsetMm float64
}

// NewPickupPlanner returns a planner using the given gripper calibration and
// descent clearance (the safety margin above zMin for the approach and
// retreat poses).
func NewPickupPlanner(grippers *Grippers, descentOffsetMm float64) *PickupPlanner {
	return &PickupPlanner{grippers: grippers, descentOffsetMm: descentOffsetMm}
}

// Plan computes the pickup trajectory for a part whose homography-transformed
// centroid is flatCentroid.
//
// The camera frame is mounted 90 degrees off the robot pickup frame, so the
// centroid is first remapped with (x', y') = (−y, x). The double gripper is
// itself mounted 90 degrees off, so its effective RZ is baseRzDeg − 90. The
// static gripper offset is rotated by (rz − orientation) to follow the part,
// then added to the remapped centroid.
//
// Returns the trajectory, the height probe pose (at the bare remapped
// centroid, before gripper offsets, so the laser probes the part itself and
// not the gripper contact point), and the computed pickup height.
func (p *PickupPlanner) Plan(flatCentroid r2.Point, matchHeightMm, zMin, orientationDeg float64,
	kind GripperKind, baseRzDeg float64,
) (PickupPositions, Position, float64, error) {
	xRot := -flatCentroid.Y
	yRot := flatCentroid.X

	rz := baseRzDeg
	if kind == GripperDouble {
		rz = baseRzDeg - 90
	}

	finalRz := rz - orientationDeg
	offX, offY := rotateOffsets(p.grippers.geo.XOffsetMm, p.grippers.geo.YOffsetMm, degToRad(finalRz))

	finalX := xRot + offX
	finalY := yRot + offY

	zOffset, err := p.grippers.ZOffset(kind)
	if err != nil {
		return PickupPositions{}, Position{}, 0, fmt.Errorf("pickup height: %w", err)
	}
	descentHeight := zMin + p.descentOffsetMm
	pickupHeight := zMin + zOffset + matchHeightMm

	at := func(z float64) Position {
		return Position{X: finalX, Y: finalY, Z: z, RX: 180, RY: 0, RZ: finalRz}
	}
	positions := PickupPositions{
		Descent: at(descentHeight),
		Pickup:  at(pickupHeight),
		Lift:    at(descentHeight),
	}

	probe := Position{X: xRot, Y: yRot, Z: descentHeight, RX: 180, RY: 0, RZ: finalRz}

	return positions, probe, pickupHeight, nil
}
