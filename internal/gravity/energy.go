package gravity

import (
	"math"

	"github.com/san-kum/bhsim/internal/body"
)

// Energy returns kinetic plus softened potential energy, O(N²).
func Energy(pts []body.Point, g, softening float64) float64 {
	ke := 0.0
	pe := 0.0
	eps2 := softening * softening

	for i := range pts {
		vx, vy := pts[i].VX, pts[i].VY
		ke += 0.5 * pts[i].Mass * (vx*vx + vy*vy)

		for j := i + 1; j < len(pts); j++ {
			rx := pts[j].X - pts[i].X
			ry := pts[j].Y - pts[i].Y
			r := math.Sqrt(rx*rx + ry*ry + eps2)
			if r == 0 {
				continue
			}
			pe -= g * pts[i].Mass * pts[j].Mass / r
		}
	}

	return ke + pe
}

func Momentum(pts []body.Point) (px, py float64) {
	for i := range pts {
		px += pts[i].Mass * pts[i].VX
		py += pts[i].Mass * pts[i].VY
	}
	return
}

// AngularMomentum about the origin.
func AngularMomentum(pts []body.Point) float64 {
	l := 0.0
	for i := range pts {
		l += pts[i].Mass * (pts[i].X*pts[i].VY - pts[i].Y*pts[i].VX)
	}
	return l
}
