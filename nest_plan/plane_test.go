package nestplan

import "testing"

func testPlaneManager() *PlaneManager {
	return NewPlaneManager(NewPlane(PlaneConfig{
		XMin: 0, XMax: 1000, YMin: 0, YMax: 1000, Spacing: 10,
	}))
}

func TestTargetFor_FirstPlacement(t *testing.T) {
	m := testPlaneManager()

	target := m.TargetFor(100, 50)
	if target.X != 50 || target.Y != 975 {
		t.Errorf("target = (%v, %v), want (50, 975)", target.X, target.Y)
	}

	m.AdvanceCursor(100)
	if got := m.Plane().XOffset; got != 110 {
		t.Errorf("xOffset after advance = %v, want 110", got)
	}
}

func TestAdvanceCursor_TwiceAdvancesTwice(t *testing.T) {
	m := testPlaneManager()

	m.AdvanceCursor(100)
	m.AdvanceCursor(100)
	if got := m.Plane().XOffset; got != 220 {
		t.Errorf("xOffset after two advances = %v, want 220", got)
	}
}

func TestHandleRowOverflow_NoOverflowPassesThrough(t *testing.T) {
	m := testPlaneManager()

	target := m.TargetFor(100, 50)
	result := m.HandleRowOverflow(100, 50, target.X, target.Y)
	if result.OverflowOccurred {
		t.Fatal("unexpected overflow on empty plane")
	}
	if result.NewTargetX != target.X || result.NewTargetY != target.Y {
		t.Errorf("target changed without overflow: (%v, %v) != (%v, %v)",
			result.NewTargetX, result.NewTargetY, target.X, target.Y)
	}
	// The invariant that keeps parts inside the plane.
	if result.NewTargetX+100/2.0 > m.Plane().XMax {
		t.Errorf("part right edge %v crosses xMax", result.NewTargetX+50)
	}
}

func TestHandleRowOverflow_WrapsToNewRow(t *testing.T) {
	m := testPlaneManager()

	// Fill most of the first row with a 900-wide part of height 80.
	m.UpdateHeightTracking(80)
	m.AdvanceCursor(900)

	target := m.TargetFor(200, 50)
	result := m.HandleRowOverflow(200, 50, target.X, target.Y)
	if !result.OverflowOccurred {
		t.Fatal("expected overflow when part crosses xMax")
	}
	if result.PlaneFull {
		t.Fatal("plane should not be full after one wrap")
	}

	// New row: x restarts at the left edge, y drops by tallest + gap.
	if result.NewTargetX != 100 {
		t.Errorf("new row x = %v, want 100", result.NewTargetX)
	}
	wantY := 1000.0 - (80 + 50)
	if result.NewTargetY != wantY {
		t.Errorf("new row y = %v, want %v", result.NewTargetY, wantY)
	}
	if result.NewTargetY >= target.Y {
		t.Errorf("new row y %v did not decrease from %v", result.NewTargetY, target.Y)
	}

	// Row bookkeeping resets for the new row.
	p := m.Plane()
	if p.RowCount != 1 {
		t.Errorf("row count = %d, want 1", p.RowCount)
	}
	if p.XOffset != 0 {
		t.Errorf("xOffset = %v, want 0 after wrap", p.XOffset)
	}
	if p.TallestContour != 50 {
		t.Errorf("tallestContour = %v, want the new part's height 50", p.TallestContour)
	}
}

func TestHandleRowOverflow_PlaneFull(t *testing.T) {
	m := NewPlaneManager(NewPlane(PlaneConfig{
		XMin: 0, XMax: 1000, YMin: 900, YMax: 1000, Spacing: 10,
	}))

	m.UpdateHeightTracking(80)
	m.AdvanceCursor(950)

	target := m.TargetFor(200, 60)
	result := m.HandleRowOverflow(200, 60, target.X, target.Y)
	if !result.OverflowOccurred {
		t.Fatal("expected overflow")
	}
	if !result.PlaneFull {
		t.Fatal("expected plane full: new row falls below yMin")
	}
	if !m.IsFull() {
		t.Error("manager does not report full after overflow marked it")
	}
}

func TestIsFull_Monotonic(t *testing.T) {
	m := NewPlaneManager(NewPlane(PlaneConfig{
		XMin: 0, XMax: 1000, YMin: 900, YMax: 1000, Spacing: 10,
	}))

	m.UpdateHeightTracking(80)
	m.AdvanceCursor(950)
	m.HandleRowOverflow(200, 60, m.TargetFor(200, 60).X, m.TargetFor(200, 60).Y)
	if !m.IsFull() {
		t.Fatal("plane should be full")
	}

	// Nothing that happens afterwards may clear the flag.
	m.UpdateHeightTracking(5)
	m.AdvanceCursor(10)
	m.HandleRowOverflow(10, 10, 5, 995)
	if !m.IsFull() {
		t.Error("full flag was cleared; it must be monotonic within a run")
	}
}

func TestUpdateHeightTracking_ReturnsPrevious(t *testing.T) {
	m := testPlaneManager()

	if prev := m.UpdateHeightTracking(40); prev != 0 {
		t.Errorf("first previous = %v, want 0", prev)
	}
	if prev := m.UpdateHeightTracking(30); prev != 40 {
		t.Errorf("previous = %v, want 40", prev)
	}
	if got := m.Plane().TallestContour; got != 40 {
		t.Errorf("tallest = %v, shorter part must not lower it", got)
	}
}
