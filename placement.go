package nesting

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang/geo/r2"
	"go.viam.com/rdk/logging"

	nestplan "github.com/danailatanasov3333-lab/cobot-nesting/nest_plan"
)

// PlacementWorkflow turns one matched workpiece into a planned placement and
// then executes it on the robot: homography transforms, pickup planning,
// shelf packing, height measurement, and the pick-move-drop sequence.
type PlacementWorkflow struct {
	pickup   *nestplan.PickupPlanner
	placer   *nestplan.Placer
	grippers *nestplan.Grippers
	measure  *MeasurementWorkflow
	robot    RobotService
	vision   VisionService
	pump     Switch
	cfg      Config
	logger   logging.Logger
}

// DeterminePickupPoint picks the grasp point in camera pixels: the template's
// calibrated pickup point when one exists, otherwise the detected contour's
// centroid.
func (w *PlacementWorkflow) DeterminePickupPoint(match Match) (r2.Point, error) {
	if match.Template != nil && match.Template.PickupPoint != nil {
		w.logger.Infof("Using template pickup point for %q", match.Template.Name)
		return *match.Template.PickupPoint, nil
	}
	centroid, err := match.Contour.Centroid()
	if err != nil {
		return r2.Point{}, fmt.Errorf("pickup point from contour: %w", err)
	}
	return centroid, nil
}

// transformPoint maps one camera-pixel point into robot millimeters. The
// transducer correction is applied only for the grasp-side transform; the
// laser must probe the part itself, not the corrected contact point.
func (w *PlacementWorkflow) transformPoint(ctx context.Context, p r2.Point, withTransducer bool) (r2.Point, error) {
	h, err := w.vision.CameraToRobotMatrix(ctx)
	if err != nil {
		return r2.Point{}, fmt.Errorf("camera-to-robot matrix: %w", err)
	}
	out, err := applyHomography(h, p)
	if err != nil {
		return r2.Point{}, err
	}
	if withTransducer {
		out = out.Add(w.cfg.TransducerOffset)
	}
	w.logger.Debugf("Transformed (%.1f, %.1f)px -> (%.2f, %.2f)mm (transducer=%t)",
		p.X, p.Y, out.X, out.Y, withTransducer)
	return out, nil
}

// transformContour maps a whole camera-pixel contour into robot millimeters,
// without the transducer correction. Placement geometry lives in the robot
// frame.
func (w *PlacementWorkflow) transformContour(ctx context.Context, c nestplan.Contour) (nestplan.Contour, error) {
	h, err := w.vision.CameraToRobotMatrix(ctx)
	if err != nil {
		return nil, fmt.Errorf("camera-to-robot matrix: %w", err)
	}
	out := make(nestplan.Contour, len(c))
	for i, p := range c {
		out[i], err = applyHomography(h, p)
		if err != nil {
			return nil, fmt.Errorf("transforming contour point %d: %w", i, err)
		}
	}
	return out, nil
}

// ProcessSingleWorkpiece plans everything for one matched part: grasp point,
// frame transforms, pickup trajectory, and shelf placement. A full plane
// propagates ErrPlaneFull so the run can stop; any other failure is a soft
// skip, logged and reported as an absent placement.
func (w *PlacementWorkflow) ProcessSingleWorkpiece(ctx context.Context, match Match,
	orientationDeg float64,
) (*nestplan.WorkpiecePlacement, nestplan.Position, error) {
	var none nestplan.Position

	rawPoint, err := w.DeterminePickupPoint(match)
	if err != nil {
		w.logger.Warnf("Skipping workpiece, no pickup point: %v", err)
		return nil, none, nil
	}

	pickupPt, err := w.transformPoint(ctx, rawPoint, true)
	if err != nil {
		w.logger.Warnf("Skipping workpiece, pickup transform failed: %v", err)
		return nil, none, nil
	}
	probePt, err := w.transformPoint(ctx, rawPoint, false)
	if err != nil {
		w.logger.Warnf("Skipping workpiece, probe transform failed: %v", err)
		return nil, none, nil
	}

	kind := nestplan.GripperSingle
	matchHeight := w.cfg.DefaultMatchHeightMm
	if match.Template != nil {
		kind = match.Template.Gripper
		if match.Template.HeightMm > 0 {
			matchHeight = match.Template.HeightMm
		}
	}

	positions, _, pickupHeight, err := w.pickup.Plan(pickupPt, matchHeight, w.robot.ZMin(),
		orientationDeg, kind, w.cfg.BaseRzDeg)
	if err != nil {
		w.logger.Warnf("Skipping workpiece, pickup planning failed: %v", err)
		return nil, none, nil
	}

	robotContour, err := w.transformContour(ctx, match.Contour)
	if err != nil {
		w.logger.Warnf("Skipping workpiece, contour transform failed: %v", err)
		return nil, none, nil
	}
	rotationCenter, err := robotContour.Centroid()
	if err != nil {
		w.logger.Warnf("Skipping workpiece, degenerate contour: %v", err)
		return nil, none, nil
	}

	result := w.placer.CalculatePlacement(robotContour, rotationCenter, orientationDeg, pickupHeight, kind)
	if result.PlaneFull {
		w.logger.Info("Staging plane is full, stopping placement")
		return nil, none, nestplan.ErrPlaneFull
	}
	if result.Err != nil {
		w.logger.Warnf("Skipping workpiece, placement failed: %v", result.Err)
		return nil, none, nil
	}

	placement := result.Placement
	placement.Pickup = &positions

	probe := w.measure.ProbePosition(probePt, positions.Pickup.RZ)

	w.logger.Infof("Planned placement: %.1fx%.1fmm part to target (%.1f, %.1f)",
		placement.Dimensions.Width, placement.Dimensions.Height,
		placement.Target.X, placement.Target.Y)

	return placement, probe, nil
}

// ExecutePlacement runs the physical pick and place for a planned part:
// measure the true height, re-aim the grasp Z, pick, route through the fixed
// waypoint, drop in two steps, release, and return to calibration. A motion
// failure forces the vacuum pump off before the error is reported.
func (w *PlacementWorkflow) ExecutePlacement(ctx context.Context,
	placement *nestplan.WorkpiecePlacement, probe nestplan.Position, kind nestplan.GripperKind,
) error {
	measuredMm, err := w.measure.MeasureHeight(ctx, probe)
	if err != nil {
		return fmt.Errorf("height measurement: %w", err)
	}

	// The grasp was planned against the nominal template height; re-aim it
	// with the measured one.
	zOffset, err := w.grippers.ZOffset(kind)
	if err != nil {
		return err
	}
	placement.Pickup.Pickup.Z = w.robot.ZMin() + zOffset + measuredMm
	w.logger.Infof("Grasp Z re-aimed to %.2fmm from measured height %.2fmm",
		placement.Pickup.Pickup.Z, measuredMm)

	w.grippers.ApplyOffsets(kind, &placement.DropOff.High, &placement.DropOff.Low)

	if err := w.robot.MoveToPosition(ctx, placement.Pickup.Descent); err != nil {
		return w.abortMotion(ctx, "descent", err)
	}
	if err := w.pump.TurnOn(ctx); err != nil {
		return fmt.Errorf("vacuum pump on: %w", err)
	}
	if err := w.robot.MoveToPosition(ctx, placement.Pickup.Pickup); err != nil {
		return w.abortMotion(ctx, "grasp", err)
	}
	if err := w.robot.MoveToPosition(ctx, placement.Pickup.Lift); err != nil {
		return w.abortMotion(ctx, "lift", err)
	}

	waypoint := nestplan.Position{
		X:  w.cfg.PlaceWaypoint.X,
		Y:  w.cfg.PlaceWaypoint.Y,
		Z:  w.robot.ZMin() + w.cfg.DescentOffsetMm,
		RX: 180,
		RY: 0,
		RZ: placement.DropOff.High.RZ,
	}
	if err := w.robot.MoveToPosition(ctx, waypoint); err != nil {
		return w.abortMotion(ctx, "waypoint", err)
	}

	if err := w.robot.MoveToPosition(ctx, placement.DropOff.High); err != nil {
		return w.abortMotion(ctx, "drop approach", err)
	}
	if err := w.robot.MoveToPosition(ctx, placement.DropOff.Low); err != nil {
		return w.abortMotion(ctx, "drop", err)
	}

	if err := w.pump.TurnOff(ctx); err != nil {
		w.logger.Errorf("Failed to release vacuum after drop: %v", err)
	}

	if err := w.robot.MoveToCalibrationPosition(ctx); err != nil {
		return fmt.Errorf("returning to calibration pose: %w", err)
	}

	w.logger.Info("Workpiece placed successfully")
	return nil
}

// abortMotion forces the pump off after a failed move so a gripped part is
// never carried by a stalled sequence.
func (w *PlacementWorkflow) abortMotion(ctx context.Context, stage string, cause error) error {
	if err := w.pump.TurnOff(ctx); err != nil {
		w.logger.Errorf("Failed to turn pump off after %s failure: %v", stage, err)
	}
	return fmt.Errorf("%s move: %w", stage, cause)
}

// IsPlaneFull reports whether err is the plane-full stop signal.
func IsPlaneFull(err error) bool {
	return errors.Is(err, nestplan.ErrPlaneFull)
}
