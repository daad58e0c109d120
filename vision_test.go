package nesting

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/rdk/logging"

	nestplan "github.com/danailatanasov3333-lab/cobot-nesting/nest_plan"
)

func testVisionWorkflow(t *testing.T, vision *fakeVision, matcher *fakeMatcher) (*VisionWorkflow, *fakeBroker) {
	t.Helper()
	broker := &fakeBroker{}
	wf := &VisionWorkflow{
		vision:  vision,
		broker:  broker,
		matcher: matcher,
		cfg:     fastConfig(),
		logger:  logging.NewTestLogger(t),
	}
	return wf, broker
}

func TestContoursWithRetries_SucceedsOnTenthPoll(t *testing.T) {
	// Nine empty snapshots, then one with a contour.
	snapshots := make([][]nestplan.Contour, 10)
	snapshots[9] = []nestplan.Contour{{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}}
	vision := &fakeVision{snapshots: snapshots}
	wf, _ := testVisionWorkflow(t, vision, &fakeMatcher{})

	contours, err := wf.ContoursWithRetries(context.Background())
	if err != nil {
		t.Fatalf("ContoursWithRetries failed: %v", err)
	}
	if len(contours) != 1 {
		t.Errorf("got %d contours, want 1", len(contours))
	}
	if vision.polls != 10 {
		t.Errorf("polled %d times, want 10", vision.polls)
	}
}

func TestContoursWithRetries_TimesOut(t *testing.T) {
	vision := &fakeVision{} // always empty
	wf, _ := testVisionWorkflow(t, vision, &fakeMatcher{})

	_, err := wf.ContoursWithRetries(context.Background())
	if !errors.Is(err, ErrVisionTimeout) {
		t.Fatalf("err = %v, want ErrVisionTimeout", err)
	}
	if vision.polls != 10 {
		t.Errorf("polled %d times, want exactly the retry budget of 10", vision.polls)
	}
}

func TestSetupCapture_PublishesRegion(t *testing.T) {
	wf, broker := testVisionWorkflow(t, &fakeVision{}, &fakeMatcher{})

	if err := wf.SetupCapture(context.Background(), "nesting"); err != nil {
		t.Fatalf("SetupCapture failed: %v", err)
	}
	if len(broker.topics) != 1 || broker.topics[0] != visionThresholdRegionTopic {
		t.Errorf("published topics = %v, want [%s]", broker.topics, visionThresholdRegionTopic)
	}
}

func TestProcessDetected_ClosesContours(t *testing.T) {
	wf, _ := testVisionWorkflow(t, &fakeVision{}, &fakeMatcher{})

	open := []nestplan.Contour{{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}}
	closed := wf.ProcessDetected(open)
	if !closed[0].IsClosed() {
		t.Error("contour not closed after processing")
	}
}

func TestFilterByPickupArea_NoAreaPassesAll(t *testing.T) {
	vision := &fakeVision{} // no pickup area configured
	wf, _ := testVisionWorkflow(t, vision, &fakeMatcher{})

	contours := []nestplan.Contour{{{X: 5000, Y: 5000}}}
	kept, err := wf.FilterByPickupArea(context.Background(), contours)
	if err != nil {
		t.Fatalf("FilterByPickupArea failed: %v", err)
	}
	if len(kept) != 1 {
		t.Errorf("kept %d contours, want all 1", len(kept))
	}
}

func TestFilterByPickupArea_DropsOutside(t *testing.T) {
	vision := &fakeVision{
		pickupArea: []r2.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}},
	}
	wf, _ := testVisionWorkflow(t, vision, &fakeMatcher{})

	inside := nestplan.Contour{{X: 40, Y: 40}, {X: 60, Y: 40}, {X: 60, Y: 60}}
	outside := nestplan.Contour{{X: 140, Y: 40}, {X: 160, Y: 40}, {X: 160, Y: 60}}
	kept, err := wf.FilterByPickupArea(context.Background(), []nestplan.Contour{inside, outside})
	if err != nil {
		t.Fatalf("FilterByPickupArea failed: %v", err)
	}
	if len(kept) != 1 {
		t.Fatalf("kept %d contours, want 1", len(kept))
	}
	if kept[0][0] != inside[0] {
		t.Error("kept the wrong contour")
	}
}

func TestMatchContours_MatcherFailureIsSoft(t *testing.T) {
	wf, _ := testVisionWorkflow(t, &fakeVision{}, &fakeMatcher{fail: true})

	matches, unmatched := wf.MatchContours(context.Background(), nil, nil)
	if matches != nil || unmatched != nil {
		t.Error("matcher failure must surface as an absent match set, not a panic or partial data")
	}
}
