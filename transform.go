package nesting

import (
	"fmt"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"
)

// applyHomography maps a camera-pixel point into robot millimeters through
// the 3x3 projective transform: [x' y' w]ᵀ = H·[x y 1]ᵀ, then divides out w.
func applyHomography(h *mat.Dense, p r2.Point) (r2.Point, error) {
	if r, c := h.Dims(); r != 3 || c != 3 {
		return r2.Point{}, fmt.Errorf("homography must be 3x3, got %dx%d", r, c)
	}
	var out mat.VecDense
	out.MulVec(h, mat.NewVecDense(3, []float64{p.X, p.Y, 1}))
	w := out.AtVec(2)
	if w == 0 {
		return r2.Point{}, fmt.Errorf("homography maps (%.2f, %.2f) to infinity", p.X, p.Y)
	}
	return r2.Point{X: out.AtVec(0) / w, Y: out.AtVec(1) / w}, nil
}
