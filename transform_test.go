package nesting

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"
)

func TestApplyHomography_ScaleAndTranslate(t *testing.T) {
	// Scale by 2 and shift by (10, -5).
	h := mat.NewDense(3, 3, []float64{
		2, 0, 10,
		0, 2, -5,
		0, 0, 1,
	})

	out, err := applyHomography(h, r2.Point{X: 3, Y: 4})
	if err != nil {
		t.Fatalf("applyHomography failed: %v", err)
	}
	if math.Abs(out.X-16) > 1e-9 || math.Abs(out.Y-3) > 1e-9 {
		t.Errorf("mapped point = %v, want (16, 3)", out)
	}
}

func TestApplyHomography_ProjectiveNormalization(t *testing.T) {
	// A projective row makes w = 2 at (1, 1): the output divides it out.
	h := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		1, 0, 1,
	})

	out, err := applyHomography(h, r2.Point{X: 1, Y: 1})
	if err != nil {
		t.Fatalf("applyHomography failed: %v", err)
	}
	if math.Abs(out.X-0.5) > 1e-9 || math.Abs(out.Y-0.5) > 1e-9 {
		t.Errorf("mapped point = %v, want (0.5, 0.5)", out)
	}
}

func TestApplyHomography_WrongShape(t *testing.T) {
	h := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	if _, err := applyHomography(h, r2.Point{}); err == nil {
		t.Fatal("expected error for a non-3x3 matrix")
	}
}

func TestApplyHomography_PointAtInfinity(t *testing.T) {
	h := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 0,
	})
	if _, err := applyHomography(h, r2.Point{X: 1, Y: 1}); err == nil {
		t.Fatal("expected error when w vanishes")
	}
}
