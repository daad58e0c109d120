package nestplan

import (
	"fmt"
	"math"
)

// Grippers translates gripper identity into geometric offsets, independent
// of part geometry.
type Grippers struct {
	geo GripperGeometry
}

// NewGrippers returns a gripper offset service for the given calibration.
func NewGrippers(geo GripperGeometry) *Grippers {
	return &Grippers{geo: geo}
}

// Geometry returns the calibration offsets the service was built with.
func (g *Grippers) Geometry() GripperGeometry {
	return g.geo
}

// ApplyOffsets shifts both drop-off positions by the transducer-to-tip
// offset. For the double gripper the offset vector is first rotated by -90
// degrees to follow the gripper's mounting; for the single gripper it is
// applied as measured. Both positions are mutated in place.
func (g *Grippers) ApplyOffsets(kind GripperKind, pos1, pos2 *Position) {
	dx, dy := g.geo.XOffsetMm, g.geo.YOffsetMm
	if kind == GripperDouble {
		dx, dy = rotateOffsets(dx, dy, degToRad(-90))
	}
	pos1.X += dx
	pos1.Y += dy
	pos2.X += dx
	pos2.Y += dy
}

// ZOffset returns the transducer-to-tip Z offset for the gripper kind.
func (g *Grippers) ZOffset(kind GripperKind) (float64, error) {
	switch kind {
	case GripperDouble:
		return g.geo.DoubleZOffsetMm, nil
	case GripperSingle:
		return g.geo.SingleZOffsetMm, nil
	default:
		return 0, fmt.Errorf("%w: %v", ErrUnknownGripper, kind)
	}
}

// rotateOffsets rotates the (x, y) offset vector by the given angle using
// the standard 2D rotation: x' = x·cosθ − y·sinθ, y' = x·sinθ + y·cosθ.
func rotateOffsets(x, y, radians float64) (float64, float64) {
	sin, cos := math.Sincos(radians)
	return x*cos - y*sin, x*sin + y*cos
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}
