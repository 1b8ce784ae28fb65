package gravity

import (
	"math"

	"github.com/san-kum/bhsim/internal/body"
)

// Direct returns the exact softened force on every point by pairwise
// summation. It does not touch the points' accumulators.
func Direct(pts []body.Point, g, softening float64) (fx, fy []float64) {
	n := len(pts)
	fx = make([]float64, n)
	fy = make([]float64, n)
	eps2 := softening * softening

	for i := 0; i < n; i++ {
		xi, yi, mi := pts[i].X, pts[i].Y, pts[i].Mass

		for j := i + 1; j < n; j++ {
			rx := pts[j].X - xi
			ry := pts[j].Y - yi
			r2 := rx*rx + ry*ry + eps2
			if r2 == 0 {
				continue
			}

			rInv := 1.0 / math.Sqrt(r2)
			r3Inv := rInv * rInv * rInv

			f := g * mi * pts[j].Mass * r3Inv
			fx[i] += f * rx
			fy[i] += f * ry
			fx[j] -= f * rx
			fy[j] -= f * ry
		}
	}

	return fx, fy
}

// RelativeError is Σ|F - F_ref| / Σ|F_ref| over all points.
func RelativeError(fx, fy, refX, refY []float64) float64 {
	var num, den float64
	for i := range refX {
		num += math.Hypot(fx[i]-refX[i], fy[i]-refY[i])
		den += math.Hypot(refX[i], refY[i])
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// Forces copies the points' current accumulators.
func Forces(pts []body.Point) (fx, fy []float64) {
	fx = make([]float64, len(pts))
	fy = make([]float64, len(pts))
	for i := range pts {
		fx[i], fy[i] = pts[i].FX, pts[i].FY
	}
	return fx, fy
}
