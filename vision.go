package nesting

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/geo/r2"
	"go.viam.com/rdk/logging"

	nestplan "github.com/danailatanasov3333-lab/cobot-nesting/nest_plan"
)

// ErrVisionTimeout is returned when the vision system produced no contours
// within the configured retry budget.
var ErrVisionTimeout = fmt.Errorf("no contours detected after retries")

// VisionWorkflow acquires contours and matches them to workpiece templates,
// tolerant of transient detection gaps.
type VisionWorkflow struct {
	vision  VisionService
	broker  MessageBroker
	matcher WorkpieceMatcher
	cfg     Config
	logger  logging.Logger
}

// SetupCapture tells the vision subsystem which threshold region to use and
// waits for the camera to settle before frames are trusted.
func (w *VisionWorkflow) SetupCapture(ctx context.Context, region string) error {
	if err := w.broker.Publish(ctx, visionThresholdRegionTopic, map[string]interface{}{"region": region}); err != nil {
		// Fire-and-forget: a lost region event degrades detection but must
		// not abort the run.
		w.logger.Warnf("Publishing threshold region %q: %v", region, err)
	}
	return sleepCtx(ctx, w.cfg.CaptureSettleDelay)
}

// ContoursWithRetries polls the vision snapshot until it is nonempty,
// sleeping between attempts. Returns ErrVisionTimeout once the retry budget
// is exhausted.
func (w *VisionWorkflow) ContoursWithRetries(ctx context.Context) ([]nestplan.Contour, error) {
	for attempt := 1; attempt <= w.cfg.MaxContourRetries; attempt++ {
		contours, err := w.vision.Contours(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading contours: %w", err)
		}
		if len(contours) > 0 {
			w.logger.Infof("Contours found on attempt %d", attempt)
			return contours, nil
		}
		if attempt < w.cfg.MaxContourRetries {
			w.logger.Infof("No contours detected (attempt %d/%d), retrying...", attempt, w.cfg.MaxContourRetries)
			if err := sleepCtx(ctx, w.cfg.ContourRetryDelay); err != nil {
				return nil, err
			}
		}
	}
	w.logger.Info("Max retries reached, no contours found")
	return nil, ErrVisionTimeout
}

// ProcessDetected closes every contour so downstream geometry always works
// on closed loops.
func (w *VisionWorkflow) ProcessDetected(contours []nestplan.Contour) []nestplan.Contour {
	out := make([]nestplan.Contour, len(contours))
	for i, c := range contours {
		out[i] = c.Close()
	}
	w.logger.Infof("Processing %d detected contours...", len(out))
	return out
}

// FilterByPickupArea keeps only contours fully inside the configured pickup
// polygon. With no polygon configured, all contours pass through.
func (w *VisionWorkflow) FilterByPickupArea(ctx context.Context, contours []nestplan.Contour) ([]nestplan.Contour, error) {
	area, err := w.vision.PickupAreaPoints(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading pickup area: %w", err)
	}
	if len(area) < 4 {
		w.logger.Info("No pickup area defined, processing all contours")
		return contours, nil
	}

	quad := [4]r2.Point{area[0], area[1], area[2], area[3]}
	kept := make([]nestplan.Contour, 0, len(contours))
	for _, c := range contours {
		if c.InsidePolygon(quad) {
			kept = append(kept, c)
		}
	}
	w.logger.Infof("Filtered %d contours to %d in pickup area", len(contours), len(kept))
	return kept, nil
}

// MatchContours delegates to the external matcher. Matcher failures are
// logged and reported as an absent match set, mirroring the soft-failure
// contract of the vision boundary.
func (w *VisionWorkflow) MatchContours(ctx context.Context, templates []Template,
	contours []nestplan.Contour,
) (*MatchSet, []nestplan.Contour) {
	w.logger.Infof("Matching %d contours against %d workpiece templates", len(contours), len(templates))
	matches, unmatched, err := w.matcher.FindMatchingWorkpieces(ctx, templates, contours)
	if err != nil {
		w.logger.Errorf("Error during contour matching: %v", err)
		return nil, nil
	}
	if matches != nil {
		w.logger.Infof("Found %d matching workpieces", len(matches.Workpieces))
	}
	return matches, unmatched
}

// sleepCtx sleeps for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
