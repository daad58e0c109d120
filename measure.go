package nesting

import (
	"context"
	"fmt"

	"github.com/golang/geo/r2"
	"go.viam.com/rdk/logging"

	nestplan "github.com/danailatanasov3333-lab/cobot-nesting/nest_plan"
)

// MeasurementWorkflow drives the robot to a probe pose and reads a part
// height from the laser tracker.
type MeasurementWorkflow struct {
	robot  RobotService
	vision VisionService
	ranger LaserRanger
	cfg    Config
	logger logging.Logger
}

// ProbePosition builds the height-probe pose from a raw robot-frame
// centroid. The same 90-degree camera-to-pickup remap as the pickup planner
// applies: (x', y') = (−y, x). Z is the safe measurement height; it is
// reasserted in MeasureHeight before the move.
func (w *MeasurementWorkflow) ProbePosition(rawCentroid r2.Point, rzDeg float64) nestplan.Position {
	pos := nestplan.Position{
		X:  -rawCentroid.Y,
		Y:  rawCentroid.X,
		Z:  w.cfg.MeasurementHeightMm,
		RX: 180,
		RY: 0,
		RZ: rzDeg,
	}
	w.logger.Infof("Prepared height measurement position: (%.2f, %.2f)", pos.X, pos.Y)
	return pos
}

// MeasureHeight moves the robot to the probe pose, lets the camera settle by
// discarding stale frames, and reads one laser height estimate. The
// configured height adjustment is added to the raw reading.
func (w *MeasurementWorkflow) MeasureHeight(ctx context.Context, probe nestplan.Position) (float64, error) {
	probe.Z = w.cfg.MeasurementHeightMm

	w.logger.Infof("Measuring height at (%.2f, %.2f, %.2f)", probe.X, probe.Y, probe.Z)
	if err := w.robot.MoveToPosition(ctx, probe); err != nil {
		return 0, fmt.Errorf("moving to probe pose: %w", err)
	}

	// Auto-exposure needs a few frames after the move before the laser line
	// is stable in the image.
	for i := 0; i < w.cfg.StaleFrameDiscard; i++ {
		if _, err := w.vision.LatestFrame(ctx); err != nil {
			return 0, fmt.Errorf("discarding stale frame %d: %w", i+1, err)
		}
	}

	frame, err := w.vision.LatestFrame(ctx)
	if err != nil {
		return 0, fmt.Errorf("capturing measurement frame: %w", err)
	}

	heightMm, rawPixels, err := w.ranger.MeasureHeight(ctx, frame)
	if err != nil {
		return 0, fmt.Errorf("laser height read: %w", err)
	}

	adjusted := heightMm + w.cfg.HeightAdjustmentMm
	w.logger.Infof("Measured workpiece height: %.2fmm, adjusted to %.2fmm (pixels: %.1f)",
		heightMm, adjusted, rawPixels)
	return adjusted, nil
}
