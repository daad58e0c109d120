package nestplan

import "errors"

var (
	// ErrUnknownGripper is returned when a gripper kind outside the known
	// set reaches an offset or height computation.
	ErrUnknownGripper = errors.New("unknown gripper kind")

	// ErrEmptyContour is returned when a geometric operation is asked to
	// work on a contour with no points.
	ErrEmptyContour = errors.New("contour has no points")

	// ErrDegenerateContour is returned when a contour collapses to a point
	// or a line and no area-based property can be computed.
	ErrDegenerateContour = errors.New("contour is degenerate")

	// ErrPlaneFull is returned once the staging plane cannot fit another
	// row. It is sticky for the remainder of a nesting run.
	ErrPlaneFull = errors.New("staging plane is full")
)
