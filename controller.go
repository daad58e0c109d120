package nesting

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	nestplan "github.com/danailatanasov3333-lab/cobot-nesting/nest_plan"

	"github.com/danailatanasov3333-lab/cobot-nesting/internal/nestplot"
)

// thresholdRegionNesting selects the vision threshold tuned for the nesting
// staging area.
const thresholdRegionNesting = "nesting"

// Run executes one full nesting run: detect, match, and place workpieces
// until the table is empty, the staging plane is full, or an unrecoverable
// hardware failure occurs. Every exit path goes through the robot workflow's
// controlled shutdown, so the laser is never left energized and the gripper
// never left mounted.
func (c *Cell) Run(ctx context.Context, templates []Template) NestingResult {
	c.state = &RunState{}

	if err := c.laser.TurnOn(ctx); err != nil {
		return NestingResult{Message: fmt.Sprintf("Failed to turn laser on: %v", err)}
	}
	c.logger.Infof("Starting nesting run with %d workpiece templates", len(templates))

	for {
		if err := ctx.Err(); err != nil {
			return c.finish(ctx, "", "Nesting cancelled")
		}

		if err := c.robotWF.MoveToCapture(ctx, c.laser); err != nil {
			return NestingResult{Message: "Failed to move to capture position"}
		}

		if err := c.visionWF.SetupCapture(ctx, thresholdRegionNesting); err != nil {
			return c.finish(ctx, "", "Nesting cancelled during capture setup")
		}

		contours, err := c.visionWF.ContoursWithRetries(ctx)
		if err != nil {
			if errors.Is(err, ErrVisionTimeout) {
				return c.finish(ctx, "Nesting completed successfully", "No workpieces found")
			}
			c.laserOff(ctx)
			return NestingResult{Message: fmt.Sprintf("Vision failure: %v", err)}
		}

		contours = c.visionWF.ProcessDetected(contours)
		contours, err = c.visionWF.FilterByPickupArea(ctx, contours)
		if err != nil {
			c.laserOff(ctx)
			return NestingResult{Message: fmt.Sprintf("Pickup area filtering failed: %v", err)}
		}

		matches, _ := c.visionWF.MatchContours(ctx, templates, contours)
		if matches == nil {
			c.laserOff(ctx)
			return NestingResult{Message: "Workpiece matching failed"}
		}
		if len(matches.Workpieces) == 0 {
			return c.finish(ctx, "Nesting completed successfully", "No matching workpieces found")
		}

		planeFull, result := c.placeMatches(ctx, matches)
		if result != nil {
			return *result
		}
		if planeFull {
			return c.finish(ctx, "Nesting stopped: staging plane is full", "No workpieces placed")
		}
	}
}

// placeMatches runs the per-match inner loop of one cycle. It returns
// planeFull when packing is exhausted, or a terminal result on unrecoverable
// failure; (false, nil) means the cycle completed and the outer loop should
// detect again.
func (c *Cell) placeMatches(ctx context.Context, matches *MatchSet) (bool, *NestingResult) {
	for i, match := range matches.Workpieces {
		c.state.WorkpieceFound = true

		orientation := 0.0
		if i < len(matches.Orientations) {
			orientation = matches.Orientations[i]
		}

		if err := c.robotWF.MoveToCapture(ctx, c.laser); err != nil {
			return false, &NestingResult{Message: "Failed to move to capture position"}
		}

		kind := nestplan.GripperSingle
		if match.Template != nil {
			kind = match.Template.Gripper
		}
		if result := c.robotWF.ChangeGripperIfNeeded(ctx, kind.ID(), c.laser); !result.Success {
			return false, &result
		}

		placement, probe, err := c.placeWF.ProcessSingleWorkpiece(ctx, match, orientation)
		if err != nil {
			if IsPlaneFull(err) {
				return true, nil
			}
			c.laserOff(ctx)
			res := NestingResult{Message: fmt.Sprintf("Placement planning failed: %v", err)}
			return false, &res
		}
		if placement == nil {
			c.logger.Warnf("Workpiece %d could not be planned, skipping", i)
			continue
		}

		if err := c.placeWF.ExecutePlacement(ctx, placement, probe, kind); err != nil {
			c.laserOff(ctx)
			res := NestingResult{Message: fmt.Sprintf("Placement execution failed: %v", err)}
			return false, &res
		}

		c.state.Placed = append(c.state.Placed, PlacedPart{
			Contour:      placement.Contour,
			DropPosition: placement.DropOff.Low,
			Width:        placement.Dimensions.Width,
			Height:       placement.Dimensions.Height,
			MatchIndex:   i,
		})
		c.state.Count++
		c.logger.Infof("Placed workpiece %d (%d total this run)", i, c.state.Count)

		c.savePlot()
	}
	return false, nil
}

// savePlot renders the current nesting layout to the configured plot
// directory. Plot failures are diagnostic only and never affect the run.
func (c *Cell) savePlot() {
	if c.cfg.PlotDir == "" {
		return
	}
	contours := make([]nestplan.Contour, len(c.state.Placed))
	for i, p := range c.state.Placed {
		contours[i] = p.Contour
	}
	path := filepath.Join(c.cfg.PlotDir, fmt.Sprintf("nesting_%03d.png", c.state.Count))
	if err := nestplot.Save(path, c.cfg.Plane, contours); err != nil {
		c.logger.Warnf("Failed to save nesting plot: %v", err)
	}
}

func (c *Cell) finish(ctx context.Context, successMsg, failureMsg string) NestingResult {
	if successMsg == "" {
		successMsg = "Nesting completed"
	}
	result := c.robotWF.FinishNesting(ctx, c.laser, c.state.WorkpieceFound, successMsg, failureMsg, true)
	c.logger.Infof("Nesting finished: success=%t message=%q placed=%d",
		result.Success, result.Message, c.state.Count)
	return result
}

func (c *Cell) laserOff(ctx context.Context) {
	if err := c.laser.TurnOff(ctx); err != nil {
		c.logger.Errorf("Failed to turn laser off: %v", err)
	}
}
