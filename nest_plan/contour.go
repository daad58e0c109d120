package nestplan

import (
	"math"
	"sort"

	"github.com/golang/geo/r2"
)

// Contour is a part outline as an ordered list of 2D points. Contours from
// the vision system arrive as open polylines; Close them before any
// area-based computation.
type Contour []r2.Point

// Clone returns an independent copy of the contour.
func (c Contour) Clone() Contour {
	out := make(Contour, len(c))
	copy(out, c)
	return out
}

// IsClosed reports whether the contour's last point repeats its first.
func (c Contour) IsClosed() bool {
	if len(c) < 2 {
		return false
	}
	return c[0] == c[len(c)-1]
}

// Close returns the contour as a closed loop, appending the first point to
// the end if needed.
func (c Contour) Close() Contour {
	if len(c) == 0 || c.IsClosed() {
		return c
	}
	out := make(Contour, len(c), len(c)+1)
	copy(out, c)
	return append(out, c[0])
}

// Rotate returns the contour rotated by the given angle (degrees,
// counter-clockwise) about the pivot point.
func (c Contour) Rotate(angleDeg float64, about r2.Point) Contour {
	sin, cos := math.Sincos(degToRad(angleDeg))
	out := make(Contour, len(c))
	for i, p := range c {
		dx, dy := p.X-about.X, p.Y-about.Y
		out[i] = r2.Point{
			X: about.X + dx*cos - dy*sin,
			Y: about.Y + dx*sin + dy*cos,
		}
	}
	return out
}

// Translate returns the contour shifted by (dx, dy).
func (c Contour) Translate(dx, dy float64) Contour {
	out := make(Contour, len(c))
	for i, p := range c {
		out[i] = r2.Point{X: p.X + dx, Y: p.Y + dy}
	}
	return out
}

// Centroid returns the area-weighted centroid of the closed contour. A
// contour with (near-)zero area falls back to the mean of its points.
func (c Contour) Centroid() (r2.Point, error) {
	if len(c) == 0 {
		return r2.Point{}, ErrEmptyContour
	}
	closed := c.Close()

	var area, cx, cy float64
	for i := 0; i < len(closed)-1; i++ {
		p, q := closed[i], closed[i+1]
		cross := p.X*q.Y - q.X*p.Y
		area += cross
		cx += (p.X + q.X) * cross
		cy += (p.Y + q.Y) * cross
	}
	area /= 2
	if math.Abs(area) < 1e-9 {
		var sx, sy float64
		for _, p := range c {
			sx += p.X
			sy += p.Y
		}
		n := float64(len(c))
		return r2.Point{X: sx / n, Y: sy / n}, nil
	}
	return r2.Point{X: cx / (6 * area), Y: cy / (6 * area)}, nil
}

// MinAreaRect returns the minimum-area rotated bounding rectangle of the
// contour, found with rotating calipers over the convex hull.
func (c Contour) MinAreaRect() (MinRect, error) {
	if len(c) == 0 {
		return MinRect{}, ErrEmptyContour
	}
	hull := convexHull(c)
	if len(hull) == 1 {
		return MinRect{Center: hull[0]}, nil
	}
	if len(hull) == 2 {
		// Collinear points: a zero-height rectangle along the segment.
		a, b := hull[0], hull[1]
		d := b.Sub(a)
		return MinRect{
			Center:   r2.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2},
			Width:    d.Norm(),
			AngleDeg: radToDeg(math.Atan2(d.Y, d.X)),
		}, nil
	}

	best := MinRect{}
	bestArea := math.Inf(1)
	for i := 0; i < len(hull); i++ {
		edge := hull[(i+1)%len(hull)].Sub(hull[i])
		angle := math.Atan2(edge.Y, edge.X)
		sin, cos := math.Sincos(-angle)

		minX, minY := math.Inf(1), math.Inf(1)
		maxX, maxY := math.Inf(-1), math.Inf(-1)
		for _, p := range hull {
			x := p.X*cos - p.Y*sin
			y := p.X*sin + p.Y*cos
			minX = math.Min(minX, x)
			maxX = math.Max(maxX, x)
			minY = math.Min(minY, y)
			maxY = math.Max(maxY, y)
		}

		area := (maxX - minX) * (maxY - minY)
		if area < bestArea {
			bestArea = area
			// Rotate the rectangle center back to the original frame.
			cx, cy := (minX+maxX)/2, (minY+maxY)/2
			rs, rc := math.Sincos(angle)
			best = MinRect{
				Center:   r2.Point{X: cx*rc - cy*rs, Y: cx*rs + cy*rc},
				Width:    maxX - minX,
				Height:   maxY - minY,
				AngleDeg: radToDeg(angle),
			}
		}
	}
	return best, nil
}

// InsidePolygon reports whether every point of the contour lies inside the
// quadrilateral (ray-casting point-in-polygon per vertex).
func (c Contour) InsidePolygon(quad [4]r2.Point) bool {
	for _, p := range c {
		if !pointInPolygon(p, quad[:]) {
			return false
		}
	}
	return len(c) > 0
}

func pointInPolygon(p r2.Point, poly []r2.Point) bool {
	inside := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) &&
			p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}

// convexHull computes the convex hull of the points with Andrew's monotone
// chain, returned in counter-clockwise order without the repeated endpoint.
func convexHull(points []r2.Point) []r2.Point {
	pts := make([]r2.Point, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})
	// Drop duplicates so the hull walk cannot stall.
	uniq := pts[:0]
	for i, p := range pts {
		if i == 0 || p != pts[i-1] {
			uniq = append(uniq, p)
		}
	}
	pts = uniq

	if len(pts) < 3 {
		return pts
	}

	cross := func(o, a, b r2.Point) float64 {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	hull := make([]r2.Point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

func radToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
