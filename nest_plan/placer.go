package nestplan

import (
	"fmt"

	"github.com/golang/geo/r2"
)

// Drop-off approach heights above the pickup height.
const (
	dropHighClearanceMm = 50
	dropLowClearanceMm  = 20
)

// Placer computes the full placement for one matched, camera-frame contour:
// axis alignment, shelf-packing target selection, contour translation, and
// the two-step drop-off poses.
type Placer struct {
	planes *PlaneManager
}

// NewPlacer returns a placer packing onto the given plane manager.
func NewPlacer(planes *PlaneManager) *Placer {
	return &Placer{planes: planes}
}

// CalculatePlacement runs the placement computation for a part. Geometry
// failures are returned in the result, never panicked; a full plane is
// reported with PlaneFull and leaves the plane untouched apart from the
// sticky full flag. On success the returned placement has everything except
// the pickup trajectory, which the caller fills in.
func (p *Placer) CalculatePlacement(contour Contour, centroid r2.Point, orientationDeg,
	pickupHeight float64, kind GripperKind,
) PlacementResult {
	// Rotate by -orientation about the centroid to align the part's
	// principal axis with X.
	aligned := contour.Close().Rotate(-orientationDeg, centroid)

	rect, err := aligned.MinAreaRect()
	if err != nil {
		return PlacementResult{Err: fmt.Errorf("min-area rect: %w", err)}
	}
	width, height := rect.Width, rect.Height
	if width < height {
		width, height = height, width
	}
	dims := WorkpieceDimensions{
		Width:      width,
		Height:     height,
		BBoxCenter: rect.Center,
		MinRect:    rect,
	}

	p.planes.UpdateHeightTracking(dims.Height)

	target := p.planes.TargetFor(dims.Width, dims.Height)
	overflow := p.planes.HandleRowOverflow(dims.Width, dims.Height, target.X, target.Y)
	if overflow.PlaneFull {
		return PlacementResult{PlaneFull: true, Err: ErrPlaneFull}
	}
	if overflow.OverflowOccurred {
		target.X = overflow.NewTargetX
		target.Y = overflow.NewTargetY
	}

	// Land the bbox center exactly on the target.
	dx := target.X - dims.BBoxCenter.X
	dy := target.Y - dims.BBoxCenter.Y
	placed := aligned.Translate(dx, dy)
	newCentroid, err := placed.Centroid()
	if err != nil {
		return PlacementResult{Err: fmt.Errorf("translated centroid: %w", err)}
	}

	dropRz := 0.0
	if kind == GripperDouble {
		dropRz = -90
	}
	dropOff := DropOffPositions{
		High: Position{X: newCentroid.X, Y: newCentroid.Y, Z: pickupHeight + dropHighClearanceMm, RX: 180, RY: 0, RZ: dropRz},
		Low:  Position{X: newCentroid.X, Y: newCentroid.Y, Z: pickupHeight + dropLowClearanceMm, RX: 180, RY: 0, RZ: dropRz},
	}

	p.planes.AdvanceCursor(dims.Width)

	return PlacementResult{
		Placement: &WorkpiecePlacement{
			Dimensions:   dims,
			Target:       target,
			DropOff:      dropOff,
			PickupHeight: pickupHeight,
			Contour:      placed,
			Translation:  r2.Point{X: dx, Y: dy},
		},
	}
}
