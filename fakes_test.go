package nesting

import (
	"context"
	"fmt"
	"image"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"

	nestplan "github.com/danailatanasov3333-lab/cobot-nesting/nest_plan"
)

// fakeRobot scripts the motion and tooling side of the cell.
type fakeRobot struct {
	zMin        float64
	currentTool int
	hasTool     bool

	moves        []nestplan.Position
	calibrations int
	pickups      []int
	dropoffs     []int
	verifies     []int

	failMoveAt  int // 1-based move index that fails; 0 disables
	failPickup  bool
	failDropoff bool
	failVerify  bool
}

func (f *fakeRobot) CurrentPosition(context.Context) (nestplan.Position, error) {
	return nestplan.Position{}, nil
}

func (f *fakeRobot) MoveToPosition(_ context.Context, pos nestplan.Position) error {
	f.moves = append(f.moves, pos)
	if f.failMoveAt > 0 && len(f.moves) == f.failMoveAt {
		return fmt.Errorf("motion fault at move %d", f.failMoveAt)
	}
	return nil
}

func (f *fakeRobot) MoveToCalibrationPosition(context.Context) error {
	f.calibrations++
	return nil
}

func (f *fakeRobot) ZMin() float64 { return f.zMin }

func (f *fakeRobot) CurrentTool() (int, bool) { return f.currentTool, f.hasTool }

func (f *fakeRobot) PickupGripper(_ context.Context, id int) error {
	f.pickups = append(f.pickups, id)
	if f.failPickup {
		return fmt.Errorf("toolchanger jam")
	}
	f.currentTool, f.hasTool = id, true
	return nil
}

func (f *fakeRobot) DropOffGripper(_ context.Context, id int) error {
	f.dropoffs = append(f.dropoffs, id)
	if f.failDropoff {
		return fmt.Errorf("dock blocked")
	}
	f.hasTool = false
	return nil
}

func (f *fakeRobot) VerifyGripperChange(_ context.Context, id int) error {
	f.verifies = append(f.verifies, id)
	if f.failVerify {
		return fmt.Errorf("wrong gripper mounted")
	}
	return nil
}

// fakeStation counts capture-pose moves.
type fakeStation struct {
	moves    int
	failMove bool
}

func (f *fakeStation) MoveToCapturePosition(context.Context) error {
	f.moves++
	if f.failMove {
		return fmt.Errorf("capture axis fault")
	}
	return nil
}

// fakeVision serves scripted contour snapshots, one per poll.
type fakeVision struct {
	snapshots  [][]nestplan.Contour
	polls      int
	pickupArea []r2.Point
	matrix     *mat.Dense
	frames     int
}

func (f *fakeVision) Contours(context.Context) ([]nestplan.Contour, error) {
	if f.polls < len(f.snapshots) {
		snap := f.snapshots[f.polls]
		f.polls++
		return snap, nil
	}
	f.polls++
	return nil, nil
}

func (f *fakeVision) PickupAreaPoints(context.Context) ([]r2.Point, error) {
	return f.pickupArea, nil
}

func (f *fakeVision) CameraToRobotMatrix(context.Context) (*mat.Dense, error) {
	if f.matrix == nil {
		return identityHomography(), nil
	}
	return f.matrix, nil
}

func (f *fakeVision) LatestFrame(context.Context) (image.Image, error) {
	f.frames++
	return image.NewGray(image.Rect(0, 0, 4, 4)), nil
}

// identityHomography maps camera pixels straight to robot millimeters.
func identityHomography() *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}

// fakeMatcher returns one scripted match set per call.
type fakeMatcher struct {
	sets  []*MatchSet
	calls int
	fail  bool
}

func (f *fakeMatcher) FindMatchingWorkpieces(_ context.Context, _ []Template,
	contours []nestplan.Contour,
) (*MatchSet, []nestplan.Contour, error) {
	if f.fail {
		return nil, nil, fmt.Errorf("matcher crashed")
	}
	if f.calls < len(f.sets) {
		set := f.sets[f.calls]
		f.calls++
		return set, nil, nil
	}
	f.calls++
	return &MatchSet{}, contours, nil
}

// fakeRanger returns a fixed height reading.
type fakeRanger struct {
	heightMm float64
	fail     bool
	calls    int
}

func (f *fakeRanger) MeasureHeight(context.Context, image.Image) (float64, float64, error) {
	f.calls++
	if f.fail {
		return 0, 0, fmt.Errorf("laser line not found")
	}
	return f.heightMm, 42, nil
}

// fakeBroker records publishes.
type fakeBroker struct {
	topics []string
}

func (f *fakeBroker) Publish(_ context.Context, topic string, _ map[string]interface{}) error {
	f.topics = append(f.topics, topic)
	return nil
}

// fakeSwitch tracks its last commanded state.
type fakeSwitch struct {
	on       bool
	onCalls  int
	offCalls int
}

func (f *fakeSwitch) TurnOn(context.Context) error {
	f.on = true
	f.onCalls++
	return nil
}

func (f *fakeSwitch) TurnOff(context.Context) error {
	f.on = false
	f.offCalls++
	return nil
}

// fastConfig is DefaultConfig with the retry sleeps removed so tests run
// instantly.
func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.ContourRetryDelay = 0
	cfg.CaptureSettleDelay = 0
	cfg.StaleFrameDiscard = 2
	return cfg
}
