package nesting

import (
	"context"
	"fmt"

	"go.viam.com/rdk/logging"
)

// NestingResult is the outcome of a nesting run (or of a terminal stage
// within it): a success flag plus a human-readable message for the operator.
type NestingResult struct {
	Success bool
	Message string
}

// RobotWorkflow sequences the hardware-facing steps of the run: capture-pose
// moves, gripper exchange with verification, and the controlled shutdown
// path. Every failure branch turns the laser off before reporting; no path
// may leave it energized.
type RobotWorkflow struct {
	robot   RobotService
	station CaptureMover
	logger  logging.Logger
}

// MoveToCapture moves the cell to the nesting capture pose. On failure the
// laser is switched off and the error reported.
func (w *RobotWorkflow) MoveToCapture(ctx context.Context, laser Switch) error {
	if err := w.station.MoveToCapturePosition(ctx); err != nil {
		w.laserOff(ctx, laser)
		w.logger.Warnf("Failed to move to capture position: %v", err)
		return fmt.Errorf("moving to capture position: %w", err)
	}
	w.logger.Info("Moved to capture position successfully")
	return nil
}

// PickupGripper mounts the gripper in the given tool-changer slot.
func (w *RobotWorkflow) PickupGripper(ctx context.Context, id int, laser Switch) NestingResult {
	if err := w.robot.PickupGripper(ctx, id); err != nil {
		w.logger.Warnf("Failed to pick up gripper %d: %v", id, err)
		w.laserOff(ctx, laser)
		return NestingResult{Message: fmt.Sprintf("Failed to pick up gripper %d: %v", id, err)}
	}
	w.logger.Infof("Successfully picked up gripper %d", id)
	return NestingResult{Success: true, Message: "Gripper picked up successfully"}
}

// ChangeGripperIfNeeded swaps to the target gripper unless it is already
// mounted: drop off the current tool (if any), pick up the target, then
// verify the exchange. Any stage failing switches the laser off and reports
// which stage failed.
func (w *RobotWorkflow) ChangeGripperIfNeeded(ctx context.Context, targetID int, laser Switch) NestingResult {
	if current, ok := w.robot.CurrentTool(); ok && current == targetID {
		w.logger.Infof("Gripper %d already attached, no change needed", targetID)
		return NestingResult{Success: true, Message: "No gripper change needed"}
	}

	if current, ok := w.robot.CurrentTool(); ok {
		w.logger.Infof("Dropping off current gripper: %d", current)
		if err := w.robot.DropOffGripper(ctx, current); err != nil {
			w.logger.Warnf("Failed to drop off gripper %d: %v", current, err)
			w.laserOff(ctx, laser)
			return NestingResult{Message: fmt.Sprintf("Failed to drop off gripper %d: %v", current, err)}
		}
	}

	if result := w.PickupGripper(ctx, targetID, laser); !result.Success {
		return result
	}

	if err := w.robot.VerifyGripperChange(ctx, targetID); err != nil {
		w.laserOff(ctx, laser)
		return NestingResult{Message: fmt.Sprintf("Gripper change verification failed for %d: %v", targetID, err)}
	}

	w.logger.Infof("Successfully switched to gripper: %d", targetID)
	return NestingResult{Success: true, Message: "Gripper changed successfully"}
}

// FinishNesting is the single controlled-shutdown path for the whole run:
// drop the gripper, optionally return to the capture pose, and always turn
// the laser off. With no part ever found the run reports failure with the
// given message.
func (w *RobotWorkflow) FinishNesting(ctx context.Context, laser Switch, foundAny bool,
	successMsg, failureMsg string, moveBeforeFinish bool,
) NestingResult {
	if !foundAny {
		w.laserOff(ctx, laser)
		return NestingResult{Message: failureMsg}
	}

	w.logger.Info("No more workpieces detected, completing nesting")
	if current, ok := w.robot.CurrentTool(); ok {
		if err := w.robot.DropOffGripper(ctx, current); err != nil {
			w.logger.Warnf("Dropping off gripper %d at finish: %v", current, err)
		}
	}

	if moveBeforeFinish {
		if err := w.station.MoveToCapturePosition(ctx); err != nil {
			w.laserOff(ctx, laser)
			return NestingResult{Message: "Failed to move to start position"}
		}
	}

	w.laserOff(ctx, laser)
	return NestingResult{Success: true, Message: successMsg}
}

func (w *RobotWorkflow) laserOff(ctx context.Context, laser Switch) {
	if err := laser.TurnOff(ctx); err != nil {
		w.logger.Errorf("Failed to turn laser off: %v", err)
	}
}
