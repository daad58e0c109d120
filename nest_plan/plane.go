package nestplan

// interRowGapMm is the fixed vertical gap between packing rows, on top of
// the tallest part seen in the finished row.
const interRowGapMm = 50

// Plane is the mutable state of the staging area: bounds, the current
// packing cursor, and row bookkeeping. It is the only persistent cross-call
// state in the nesting subsystem and lives for exactly one run. All
// mutation goes through PlaneManager.
type Plane struct {
	XMin    float64
	XMax    float64
	YMin    float64
	YMax    float64
	Spacing float64

	XOffset        float64
	YOffset        float64
	TallestContour float64
	RowCount       int

	// Full is monotonic: once the plane reports full it stays full for the
	// rest of the run.
	Full bool
}

// NewPlane returns an empty staging plane with the given bounds.
func NewPlane(cfg PlaneConfig) *Plane {
	return &Plane{
		XMin:    cfg.XMin,
		XMax:    cfg.XMax,
		YMin:    cfg.YMin,
		YMax:    cfg.YMax,
		Spacing: cfg.Spacing,
	}
}

// PlaneManager owns a Plane and decides where the next part goes, wrapping
// rows left to right like text lines (shelf packing).
type PlaneManager struct {
	plane *Plane
}

// NewPlaneManager wraps the given plane. The manager is the plane's single
// writer.
func NewPlaneManager(plane *Plane) *PlaneManager {
	return &PlaneManager{plane: plane}
}

// Plane exposes the managed plane for read-only inspection.
func (m *PlaneManager) Plane() *Plane {
	return m.plane
}

// IsFull reports whether the plane has run out of rows.
func (m *PlaneManager) IsFull() bool {
	return m.plane.Full
}

// UpdateHeightTracking records the height of the current part if it is the
// tallest seen in the current row, and returns the previous tallest value.
func (m *PlaneManager) UpdateHeightTracking(height float64) float64 {
	previous := m.plane.TallestContour
	if height > m.plane.TallestContour {
		m.plane.TallestContour = height
	}
	return previous
}

// TargetFor computes the initial drop target for a part of the given size at
// the current packing cursor: rows fill left to right, starting at the top
// of the plane and moving down.
func (m *PlaneManager) TargetFor(width, height float64) PlacementTarget {
	return PlacementTarget{
		X: m.plane.XOffset + m.plane.XMin + width/2,
		Y: m.plane.YMax - m.plane.YOffset - height/2,
	}
}

// HandleRowOverflow starts a new row when the part would cross the plane's
// right bound. The new row sits below the previous one by the tallest part
// seen plus a fixed gap; if that row's lower edge would fall past YMin the
// plane is marked full. When no overflow occurs the target passes through
// unchanged.
func (m *PlaneManager) HandleRowOverflow(width, height, targetX, targetY float64) RowOverflowResult {
	p := m.plane
	if targetX+width/2 <= p.XMax {
		return RowOverflowResult{NewTargetX: targetX, NewTargetY: targetY}
	}

	p.RowCount++
	p.XOffset = 0
	p.YOffset += p.TallestContour + interRowGapMm
	newX := p.XMin + width/2
	newY := p.YMax - p.YOffset
	p.TallestContour = height // new row starts with this part

	result := RowOverflowResult{
		NewTargetX:       newX,
		NewTargetY:       newY,
		OverflowOccurred: true,
	}
	if newY-height/2 < p.YMin {
		p.Full = true
		result.PlaneFull = true
	}
	return result
}

// AdvanceCursor moves the packing cursor past a part that has just been
// committed to the plane.
func (m *PlaneManager) AdvanceCursor(width float64) {
	m.plane.XOffset += width + m.plane.Spacing
}
