package nesting

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/golang/geo/r2"

	nestplan "github.com/danailatanasov3333-lab/cobot-nesting/nest_plan"
)

// templateFile is the on-disk shape of one workpiece template.
type templateFile struct {
	Name        string       `json:"name"`
	Contour     [][2]float64 `json:"contour"`
	PickupPoint *[2]float64  `json:"pickup_point,omitempty"`
	Gripper     int          `json:"gripper"`
	HeightMm    float64      `json:"height_mm,omitempty"`
}

// LoadTemplates reads workpiece templates from a JSON file. Contours are in
// camera pixels; gripper is the tool-changer slot (1 single, 2 double).
func LoadTemplates(path string) ([]Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading templates file: %w", err)
	}
	var raw []templateFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing templates file: %w", err)
	}

	templates := make([]Template, 0, len(raw))
	for i, t := range raw {
		kind := nestplan.GripperKind(t.Gripper)
		if !kind.Valid() {
			return nil, fmt.Errorf("template %d (%q): unknown gripper %d", i, t.Name, t.Gripper)
		}
		if len(t.Contour) < 3 {
			return nil, fmt.Errorf("template %d (%q): contour needs at least 3 points, got %d",
				i, t.Name, len(t.Contour))
		}

		contour := make(nestplan.Contour, len(t.Contour))
		for j, p := range t.Contour {
			contour[j] = r2.Point{X: p[0], Y: p[1]}
		}

		tmpl := Template{
			Name:     t.Name,
			Contour:  contour,
			Gripper:  kind,
			HeightMm: t.HeightMm,
		}
		if t.PickupPoint != nil {
			tmpl.PickupPoint = &r2.Point{X: t.PickupPoint[0], Y: t.PickupPoint[1]}
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}
