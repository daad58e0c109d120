package viamcell

import (
	"context"
	"fmt"
	"image"

	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/rdk/components/camera"
	"go.viam.com/rdk/components/generic"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/resource"
	"go.viam.com/rdk/robot"

	nesting "github.com/danailatanasov3333-lab/cobot-nesting"
	nestplan "github.com/danailatanasov3333-lab/cobot-nesting/nest_plan"
)

// Vision adapts the cell's contour-detection resource and overhead camera.
type Vision struct {
	logger logging.Logger
	vision resource.Resource
	cam    camera.Camera
}

// NewVision looks up the vision resource and the overhead camera.
func NewVision(machine robot.Robot, cfg Config, logger logging.Logger) (*Vision, error) {
	visionRes, err := generic.FromRobot(machine, cfg.VisionName)
	if err != nil {
		return nil, fmt.Errorf("vision resource (%s): %w", cfg.VisionName, err)
	}
	cam, err := camera.FromRobot(machine, cfg.CameraName)
	if err != nil {
		return nil, fmt.Errorf("camera (%s): %w", cfg.CameraName, err)
	}
	return &Vision{logger: logger, vision: visionRes, cam: cam}, nil
}

// contoursResponse is the decoded detection snapshot.
type contoursResponse struct {
	Contours [][][]float64 `mapstructure:"contours"`
}

// Contours returns the current detection snapshot in camera pixels.
func (v *Vision) Contours(ctx context.Context) ([]nestplan.Contour, error) {
	resp, err := v.vision.DoCommand(ctx, map[string]interface{}{"get_contours": true})
	if err != nil {
		return nil, fmt.Errorf("get_contours: %w", err)
	}
	var decoded contoursResponse
	if err := mapstructure.Decode(resp, &decoded); err != nil {
		return nil, fmt.Errorf("decode contours: %w", err)
	}
	contours := make([]nestplan.Contour, 0, len(decoded.Contours))
	for i, raw := range decoded.Contours {
		contour, err := toContour(raw)
		if err != nil {
			return nil, fmt.Errorf("contour %d: %w", i, err)
		}
		contours = append(contours, contour)
	}
	return contours, nil
}

// pickupAreaResponse is the decoded pickup polygon.
type pickupAreaResponse struct {
	Points [][]float64 `mapstructure:"points"`
}

// PickupAreaPoints returns the configured 4-point pickup polygon, or nil when
// none is configured.
func (v *Vision) PickupAreaPoints(ctx context.Context) ([]r2.Point, error) {
	resp, err := v.vision.DoCommand(ctx, map[string]interface{}{"get_pickup_area": true})
	if err != nil {
		return nil, fmt.Errorf("get_pickup_area: %w", err)
	}
	var decoded pickupAreaResponse
	if err := mapstructure.Decode(resp, &decoded); err != nil {
		return nil, fmt.Errorf("decode pickup area: %w", err)
	}
	if len(decoded.Points) == 0 {
		return nil, nil
	}
	points := make([]r2.Point, len(decoded.Points))
	for i, p := range decoded.Points {
		if len(p) != 2 {
			return nil, fmt.Errorf("pickup area point %d has %d values, want 2", i, len(p))
		}
		points[i] = r2.Point{X: p[0], Y: p[1]}
	}
	return points, nil
}

// matrixResponse is the decoded camera-to-robot calibration.
type matrixResponse struct {
	Matrix []float64 `mapstructure:"matrix"`
}

// CameraToRobotMatrix returns the 3x3 camera-to-robot homography, row major.
func (v *Vision) CameraToRobotMatrix(ctx context.Context) (*mat.Dense, error) {
	resp, err := v.vision.DoCommand(ctx, map[string]interface{}{"get_camera_to_robot_matrix": true})
	if err != nil {
		return nil, fmt.Errorf("get_camera_to_robot_matrix: %w", err)
	}
	var decoded matrixResponse
	if err := mapstructure.Decode(resp, &decoded); err != nil {
		return nil, fmt.Errorf("decode matrix: %w", err)
	}
	if len(decoded.Matrix) != 9 {
		return nil, fmt.Errorf("homography has %d values, want 9", len(decoded.Matrix))
	}
	return mat.NewDense(3, 3, decoded.Matrix), nil
}

// LatestFrame returns the most recent overhead camera frame.
func (v *Vision) LatestFrame(ctx context.Context) (image.Image, error) {
	img, err := camera.DecodeImageFromCamera(ctx, "", nil, v.cam)
	if err != nil {
		return nil, fmt.Errorf("camera frame: %w", err)
	}
	return img, nil
}

// Matcher adapts the external workpiece-matching resource.
type Matcher struct {
	logger  logging.Logger
	matcher resource.Resource
}

// NewMatcher looks up the workpiece matcher on the machine.
func NewMatcher(machine robot.Robot, cfg Config, logger logging.Logger) (*Matcher, error) {
	res, err := generic.FromRobot(machine, cfg.MatcherName)
	if err != nil {
		return nil, fmt.Errorf("matcher (%s): %w", cfg.MatcherName, err)
	}
	return &Matcher{logger: logger, matcher: res}, nil
}

// matchResponse is the decoded matcher output. Template indices refer to the
// request's template order.
type matchResponse struct {
	Matches []struct {
		Template    int         `mapstructure:"template"`
		Contour     [][]float64 `mapstructure:"contour"`
		Orientation float64     `mapstructure:"orientation"`
	} `mapstructure:"matches"`
	Unmatched [][][]float64 `mapstructure:"unmatched"`
}

// FindMatchingWorkpieces sends the templates and detected contours to the
// matcher and decodes its verdict.
func (m *Matcher) FindMatchingWorkpieces(ctx context.Context, templates []nesting.Template,
	contours []nestplan.Contour,
) (*nesting.MatchSet, []nestplan.Contour, error) {
	reqTemplates := make([]interface{}, len(templates))
	for i, t := range templates {
		reqTemplates[i] = map[string]interface{}{
			"name":    t.Name,
			"contour": fromContour(t.Contour),
		}
	}
	reqContours := make([]interface{}, len(contours))
	for i, c := range contours {
		reqContours[i] = fromContour(c)
	}

	resp, err := m.matcher.DoCommand(ctx, map[string]interface{}{
		"find_matches": map[string]interface{}{
			"templates": reqTemplates,
			"contours":  reqContours,
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("find_matches: %w", err)
	}

	var decoded matchResponse
	if err := mapstructure.Decode(resp, &decoded); err != nil {
		return nil, nil, fmt.Errorf("decode matches: %w", err)
	}

	set := &nesting.MatchSet{}
	for i, raw := range decoded.Matches {
		if raw.Template < 0 || raw.Template >= len(templates) {
			return nil, nil, fmt.Errorf("match %d references template %d of %d", i, raw.Template, len(templates))
		}
		contour, err := toContour(raw.Contour)
		if err != nil {
			return nil, nil, fmt.Errorf("match %d contour: %w", i, err)
		}
		set.Workpieces = append(set.Workpieces, nesting.Match{
			Template: &templates[raw.Template],
			Contour:  contour,
		})
		set.Orientations = append(set.Orientations, raw.Orientation)
	}

	unmatched := make([]nestplan.Contour, 0, len(decoded.Unmatched))
	for i, raw := range decoded.Unmatched {
		contour, err := toContour(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("unmatched contour %d: %w", i, err)
		}
		unmatched = append(unmatched, contour)
	}

	return set, unmatched, nil
}

// LaserTracker adapts the laser height-tracking resource. The tracker reads
// from its own camera stream; the frame argument of the contract is a
// freshness token, forwarded only as a capture trigger.
type LaserTracker struct {
	logger  logging.Logger
	tracker resource.Resource
}

// NewLaserTracker looks up the laser-tracking resource on the machine.
func NewLaserTracker(machine robot.Robot, cfg Config, logger logging.Logger) (*LaserTracker, error) {
	res, err := generic.FromRobot(machine, cfg.LaserTrackName)
	if err != nil {
		return nil, fmt.Errorf("laser tracker (%s): %w", cfg.LaserTrackName, err)
	}
	return &LaserTracker{logger: logger, tracker: res}, nil
}

// heightResponse is the decoded laser height estimate.
type heightResponse struct {
	HeightMm  float64 `mapstructure:"height_mm"`
	RawPixels float64 `mapstructure:"raw_pixels"`
}

// MeasureHeight asks the tracker for one height estimate.
func (t *LaserTracker) MeasureHeight(ctx context.Context, _ image.Image) (float64, float64, error) {
	resp, err := t.tracker.DoCommand(ctx, map[string]interface{}{"measure_height": true})
	if err != nil {
		return 0, 0, fmt.Errorf("measure_height: %w", err)
	}
	var decoded heightResponse
	if err := mapstructure.Decode(resp, &decoded); err != nil {
		return 0, 0, fmt.Errorf("decode height: %w", err)
	}
	return decoded.HeightMm, decoded.RawPixels, nil
}

// Broker adapts the cell's message broker resource for fire-and-forget
// publishes.
type Broker struct {
	logger logging.Logger
	broker resource.Resource
}

// NewBroker looks up the broker resource on the machine.
func NewBroker(machine robot.Robot, cfg Config, logger logging.Logger) (*Broker, error) {
	res, err := generic.FromRobot(machine, cfg.BrokerName)
	if err != nil {
		return nil, fmt.Errorf("broker (%s): %w", cfg.BrokerName, err)
	}
	return &Broker{logger: logger, broker: res}, nil
}

// Publish sends one event to a topic. There is no response contract.
func (b *Broker) Publish(ctx context.Context, topic string, payload map[string]interface{}) error {
	_, err := b.broker.DoCommand(ctx, map[string]interface{}{
		"publish": topic,
		"payload": payload,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// toContour converts a raw [[x, y], ...] decode into a contour.
func toContour(raw [][]float64) (nestplan.Contour, error) {
	contour := make(nestplan.Contour, len(raw))
	for i, p := range raw {
		if len(p) != 2 {
			return nil, fmt.Errorf("point %d has %d values, want 2", i, len(p))
		}
		contour[i] = r2.Point{X: p[0], Y: p[1]}
	}
	return contour, nil
}

// fromContour converts a contour to the [[x, y], ...] wire shape.
func fromContour(c nestplan.Contour) [][]float64 {
	out := make([][]float64, len(c))
	for i, p := range c {
		out[i] = []float64{p.X, p.Y}
	}
	return out
}
