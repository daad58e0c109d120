// Package nestplot renders debug snapshots of the nesting staging plane:
// the plane bounds plus every placed contour, one PNG per placement.
package nestplot

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	nestplan "github.com/danailatanasov3333-lab/cobot-nesting/nest_plan"
)

// Save writes a nesting layout snapshot to path. The plane bounds are drawn
// as a rectangle and each placed contour as a closed polyline.
func Save(path string, cfg nestplan.PlaneConfig, placed []nestplan.Contour) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create plot dir: %w", err)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Nesting layout (%d placed)", len(placed))
	p.X.Label.Text = "X (mm)"
	p.Y.Label.Text = "Y (mm)"

	bounds := plotter.XYs{
		{X: cfg.XMin, Y: cfg.YMin},
		{X: cfg.XMax, Y: cfg.YMin},
		{X: cfg.XMax, Y: cfg.YMax},
		{X: cfg.XMin, Y: cfg.YMax},
		{X: cfg.XMin, Y: cfg.YMin},
	}
	boundsLine, err := plotter.NewLine(bounds)
	if err != nil {
		return err
	}
	boundsLine.Color = color.RGBA{R: 60, G: 60, B: 60, A: 255}
	boundsLine.Width = vg.Points(1)
	p.Add(boundsLine)

	colors := palette(len(placed))
	for i, contour := range placed {
		closed := contour.Close()
		pts := make(plotter.XYs, len(closed))
		for j, pt := range closed {
			pts[j] = plotter.XY{X: pt.X, Y: pt.Y}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = colors[i]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("part %d", i+1), line)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(10*vg.Inch, 10*vg.Inch, path); err != nil {
		return fmt.Errorf("save nesting plot: %w", err)
	}
	return nil
}

// palette returns n distinct line colors, spaced evenly around the hue wheel.
func palette(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.45)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64
	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}
	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
