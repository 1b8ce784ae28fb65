package integrators

import "github.com/san-kum/bhsim/internal/body"

// Domain is the reflecting box [0, W] x [0, H].
type Domain struct {
	W, H float64
}

type Euler struct {
	Domain Domain
}

func NewEuler(d Domain) *Euler {
	return &Euler{Domain: d}
}

func (e *Euler) Name() string { return "semi-implicit-euler" }

// Step advances every point by dt and returns how many wall reflections
// happened.
func (e *Euler) Step(pts []body.Point, dt float64) int {
	reflected := 0
	for i := range pts {
		if SemiImplicitEuler(&pts[i], dt, e.Domain) {
			reflected++
		}
	}
	return reflected
}

// SemiImplicitEuler updates velocity from the accumulated force, then
// position from the new velocity. A coordinate at or beyond a wall is clamped
// onto the wall and that velocity component is negated. The force
// accumulator is cleared afterwards. It reports whether any wall was hit.
func SemiImplicitEuler(p *body.Point, dt float64, d Domain) bool {
	p.VX += p.FX / p.Mass * dt
	p.VY += p.FY / p.Mass * dt
	p.X += p.VX * dt
	p.Y += p.VY * dt

	reflected := false
	if p.X <= 0 || p.X >= d.W {
		p.VX = -p.VX
		if p.X <= 0 {
			p.X = 0
		} else {
			p.X = d.W
		}
		reflected = true
	}
	if p.Y <= 0 || p.Y >= d.H {
		p.VY = -p.VY
		if p.Y <= 0 {
			p.Y = 0
		} else {
			p.Y = d.H
		}
		reflected = true
	}

	p.ResetForce()
	return reflected
}
