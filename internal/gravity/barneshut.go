package gravity

import (
	"math"

	"github.com/san-kum/bhsim/internal/body"
	"github.com/san-kum/bhsim/internal/quadtree"
)

const DefaultTheta = 0.5

type Params struct {
	G         float64
	Softening float64
	Theta     float64
}

// Accumulate adds the force the tree exerts on p into p.FX and p.FY. The
// accumulator is never overwritten. The tree must not change during the call,
// so concurrent calls for distinct points are safe.
func Accumulate(p *body.Point, t *quadtree.Tree, prm Params) {
	accumulate(p, t, t.Root(), prm, prm.Softening*prm.Softening)
}

func accumulate(p *body.Point, t *quadtree.Tree, id quadtree.NodeID, prm Params, eps2 float64) {
	n := t.Node(id)
	if n.Empty() {
		return
	}

	dx := n.CMX - p.X
	dy := n.CMY - p.Y
	d := math.Sqrt(dx*dx + dy*dy + eps2)

	if n.IsLeaf() || n.W/d < prm.Theta {
		if d > 0 && n.Mass > 0 {
			f := prm.G * p.Mass * n.Mass / (d * d * d)
			p.FX += f * dx
			p.FY += f * dy
		}
		return
	}

	first := n.FirstChild()
	for q := quadtree.NodeID(0); q < 4; q++ {
		accumulate(p, t, first+q, prm, eps2)
	}
}

// AccumulateAll runs Accumulate for every point in order on the calling
// goroutine.
func AccumulateAll(pts []body.Point, t *quadtree.Tree, prm Params) {
	for i := range pts {
		Accumulate(&pts[i], t, prm)
	}
}
