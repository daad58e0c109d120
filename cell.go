package nesting

import (
	"context"

	"go.viam.com/rdk/logging"

	nestplan "github.com/danailatanasov3333-lab/cobot-nesting/nest_plan"
)

// Cell holds all collaborators, services, and run state for the nesting
// pipeline.
type Cell struct {
	logger logging.Logger
	cfg    Config

	// Collaborators
	robot   RobotService
	station CaptureMover
	vision  VisionService
	matcher WorkpieceMatcher
	ranger  LaserRanger
	broker  MessageBroker

	// Tools
	laser Switch
	pump  Switch

	// Planning services
	grippers *nestplan.Grippers
	pickup   *nestplan.PickupPlanner
	plane    *nestplan.Plane
	planes   *nestplan.PlaneManager
	placer   *nestplan.Placer

	// Workflows
	visionWF  *VisionWorkflow
	robotWF   *RobotWorkflow
	measureWF *MeasurementWorkflow
	placeWF   *PlacementWorkflow

	// State for the current run.
	state *RunState
}

// RunState tracks one nesting run's bookkeeping. The placed history is kept
// even when the run fails, for diagnostics.
type RunState struct {
	Count          int
	WorkpieceFound bool
	Placed         []PlacedPart
}

// PlacedPart records one successfully placed workpiece.
type PlacedPart struct {
	Contour      nestplan.Contour
	DropPosition nestplan.Position
	Width        float64
	Height       float64
	MatchIndex   int
}

// CellDeps bundles the external collaborators a Cell is wired to.
type CellDeps struct {
	Robot   RobotService
	Station CaptureMover
	Vision  VisionService
	Matcher WorkpieceMatcher
	Ranger  LaserRanger
	Broker  MessageBroker
	Laser   Switch
	Pump    Switch
}

// NewCell wires a nesting cell from its collaborators and configuration.
// Plane and gripper state are fresh; a new cell means a new run.
func NewCell(deps CellDeps, cfg Config, logger logging.Logger) *Cell {
	c := &Cell{
		logger:  logger,
		cfg:     cfg,
		robot:   deps.Robot,
		station: deps.Station,
		vision:  deps.Vision,
		matcher: deps.Matcher,
		ranger:  deps.Ranger,
		broker:  deps.Broker,
		laser:   deps.Laser,
		pump:    deps.Pump,
		state:   &RunState{},
	}

	c.grippers = nestplan.NewGrippers(cfg.Grippers)
	c.pickup = nestplan.NewPickupPlanner(c.grippers, cfg.DescentOffsetMm)
	c.plane = nestplan.NewPlane(cfg.Plane)
	c.planes = nestplan.NewPlaneManager(c.plane)
	c.placer = nestplan.NewPlacer(c.planes)

	c.visionWF = &VisionWorkflow{vision: deps.Vision, broker: deps.Broker, matcher: deps.Matcher, cfg: cfg, logger: logger}
	c.robotWF = &RobotWorkflow{robot: deps.Robot, station: deps.Station, logger: logger}
	c.measureWF = &MeasurementWorkflow{robot: deps.Robot, vision: deps.Vision, ranger: deps.Ranger, cfg: cfg, logger: logger}
	c.placeWF = &PlacementWorkflow{
		pickup:   c.pickup,
		placer:   c.placer,
		grippers: c.grippers,
		measure:  c.measureWF,
		robot:    deps.Robot,
		vision:   deps.Vision,
		pump:     deps.Pump,
		cfg:      cfg,
		logger:   logger,
	}

	return c
}

// State returns the current run's bookkeeping.
func (c *Cell) State() *RunState {
	return c.state
}

// Plane returns the staging plane for inspection (plotting, diagnostics).
func (c *Cell) Plane() *nestplan.Plane {
	return c.plane
}

// MoveToCapture moves the cell to the capture pose. Exposed for step-by-step
// diagnostics from the CLI.
func (c *Cell) MoveToCapture(ctx context.Context) error {
	return c.robotWF.MoveToCapture(ctx, c.laser)
}

// DetectContours runs one detection pass (capture setup, retries, pickup-area
// filter) without matching or placing anything.
func (c *Cell) DetectContours(ctx context.Context) ([]nestplan.Contour, error) {
	if err := c.visionWF.SetupCapture(ctx, thresholdRegionNesting); err != nil {
		return nil, err
	}
	contours, err := c.visionWF.ContoursWithRetries(ctx)
	if err != nil {
		return nil, err
	}
	contours = c.visionWF.ProcessDetected(contours)
	return c.visionWF.FilterByPickupArea(ctx, contours)
}

// MeasureHeightAt probes the part height above the given robot-frame point.
// Exposed for calibration checks from the CLI. The laser is left on.
func (c *Cell) MeasureHeightAt(ctx context.Context, x, y float64) (float64, error) {
	if err := c.laser.TurnOn(ctx); err != nil {
		return 0, err
	}
	probe := nestplan.Position{X: x, Y: y, Z: c.cfg.MeasurementHeightMm, RX: 180, RY: 0, RZ: c.cfg.BaseRzDeg}
	return c.measureWF.MeasureHeight(ctx, probe)
}

// LaserOff turns the measurement laser off.
func (c *Cell) LaserOff(ctx context.Context) error {
	return c.laser.TurnOff(ctx)
}
