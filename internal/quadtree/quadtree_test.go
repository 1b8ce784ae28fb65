package quadtree_test

import (
	"bytes"
	"math"
	"math/rand"
	"slices"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/bhsim/internal/body"
	"github.com/san-kum/bhsim/internal/quadtree"
)

func point(x, y, m float64) *body.Point {
	return &body.Point{X: x, Y: y, Mass: m}
}

func randomPoints(n int, w, h float64, seed int64) []*body.Point {
	rng := rand.New(rand.NewSource(seed))
	pts := make([]*body.Point, n)
	for i := range pts {
		pts[i] = point(rng.Float64()*w, rng.Float64()*h, 1+rng.Float64()*99)
	}
	return pts
}

// subtree collects every point held in leaves below id.
func subtree(t *quadtree.Tree, id quadtree.NodeID) []*body.Point {
	var out []*body.Point
	var visit func(quadtree.NodeID)
	visit = func(id quadtree.NodeID) {
		n := t.Node(id)
		out = append(out, n.Points()...)
		if c, ok := t.Children(id); ok {
			for _, ch := range c {
				visit(ch)
			}
		}
	}
	visit(id)
	return out
}

var _ = Describe("Tree", func() {
	var tree *quadtree.Tree
	bounds := quadtree.Rect{X: 0, Y: 0, W: 800, H: 600}

	BeforeEach(func() {
		tree = quadtree.New(bounds, 1, quadtree.DefaultMaxDepth)
	})

	Describe("a fresh tree", func() {
		It("is a single empty leaf", func() {
			root := tree.Node(tree.Root())
			Expect(root.IsLeaf()).To(BeTrue())
			Expect(root.Empty()).To(BeTrue())
			Expect(root.Mass).To(BeZero())
			Expect(tree.Len()).To(Equal(1))
			Expect(tree.Bounds()).To(Equal(bounds))
		})
	})

	Describe("Insert", func() {
		It("rejects points outside the root without changing the tree", func() {
			Expect(tree.Insert(point(100, 100, 5))).To(BeTrue())
			before := *tree.Node(tree.Root())

			for _, p := range []*body.Point{
				point(-1, 10, 1),
				point(10, -0.001, 1),
				point(800, 10, 1),
				point(10, 600, 1),
				point(math.NaN(), 10, 1),
			} {
				Expect(tree.Insert(p)).To(BeFalse())
			}

			root := tree.Node(tree.Root())
			Expect(root.Mass).To(Equal(before.Mass))
			Expect(root.CMX).To(Equal(before.CMX))
			Expect(root.CMY).To(Equal(before.CMY))
			Expect(tree.Len()).To(Equal(1))
		})

		It("accepts points on the lower boundary", func() {
			Expect(tree.Insert(point(0, 0, 1))).To(BeTrue())
			Expect(tree.Insert(point(799.999, 599.999, 1))).To(BeTrue())
		})

		It("subdivides a full leaf into four children", func() {
			Expect(tree.Insert(point(100, 100, 1))).To(BeTrue())
			Expect(tree.Insert(point(700, 500, 3))).To(BeTrue())

			root := tree.Node(tree.Root())
			Expect(root.IsLeaf()).To(BeFalse())
			Expect(root.Points()).To(BeEmpty())
			Expect(root.Mass).To(Equal(4.0))
			Expect(root.CMX).To(BeNumerically("~", (100*1+700*3)/4.0, 1e-9))
			Expect(root.CMY).To(BeNumerically("~", (100*1+500*3)/4.0, 1e-9))

			c, ok := tree.Children(tree.Root())
			Expect(ok).To(BeTrue())
			nw, se := tree.Node(c[0]), tree.Node(c[3])
			Expect(nw.Points()).To(HaveLen(1))
			Expect(nw.Mass).To(Equal(1.0))
			Expect(se.Points()).To(HaveLen(1))
			Expect(se.Mass).To(Equal(3.0))
			Expect(tree.Node(c[1]).Empty()).To(BeTrue())
			Expect(tree.Node(c[2]).Empty()).To(BeTrue())
		})

		It("splits children at the parent's midpoint", func() {
			tree.Insert(point(1, 1, 1))
			tree.Insert(point(2, 2, 1))

			c, _ := tree.Children(tree.Root())
			Expect(tree.Node(c[0]).Rect).To(Equal(quadtree.Rect{X: 0, Y: 0, W: 400, H: 300}))
			Expect(tree.Node(c[1]).Rect).To(Equal(quadtree.Rect{X: 400, Y: 0, W: 400, H: 300}))
			Expect(tree.Node(c[2]).Rect).To(Equal(quadtree.Rect{X: 0, Y: 300, W: 400, H: 300}))
			Expect(tree.Node(c[3]).Rect).To(Equal(quadtree.Rect{X: 400, Y: 300, W: 400, H: 300}))
		})

		It("keeps coincident points together in the deepest leaf", func() {
			tree = quadtree.New(bounds, 1, 6)
			for range 5 {
				Expect(tree.Insert(point(123.4, 56.7, 2))).To(BeTrue())
			}

			s := tree.Stats()
			Expect(s.MaxDepth).To(Equal(6))
			Expect(s.Points).To(Equal(5))
			Expect(s.Overflowed).To(Equal(1))

			root := tree.Node(tree.Root())
			Expect(root.Mass).To(Equal(10.0))
			Expect(root.CMX).To(BeNumerically("~", 123.4, 1e-9))
			Expect(root.CMY).To(BeNumerically("~", 56.7, 1e-9))
		})

		It("honours a larger leaf capacity", func() {
			tree = quadtree.New(bounds, 4, quadtree.DefaultMaxDepth)
			for _, p := range randomPoints(4, 800, 600, 3) {
				tree.Insert(p)
			}
			Expect(tree.IsLeaf(tree.Root())).To(BeTrue())
			Expect(tree.Node(tree.Root()).Points()).To(HaveLen(4))

			tree.Insert(point(10, 10, 1))
			Expect(tree.IsLeaf(tree.Root())).To(BeFalse())
		})
	})

	Describe("invariants over random insertions", func() {
		var pts []*body.Point

		BeforeEach(func() {
			pts = randomPoints(500, 800, 600, 42)
			for _, p := range pts {
				Expect(tree.Insert(p)).To(BeTrue())
			}
		})

		It("conserves mass and centroid at every node", func() {
			tree.Walk(func(id quadtree.NodeID, n *quadtree.Node) bool {
				held := subtree(tree, id)
				if len(held) == 0 {
					Expect(n.Mass).To(BeZero())
					return true
				}
				var m, sx, sy float64
				for _, p := range held {
					m += p.Mass
					sx += p.X * p.Mass
					sy += p.Y * p.Mass
				}
				Expect(n.Mass).To(BeNumerically("~", m, 1e-9*m))
				Expect(n.CMX).To(BeNumerically("~", sx/m, 1e-6))
				Expect(n.CMY).To(BeNumerically("~", sy/m, 1e-6))
				return true
			})
		})

		It("builds the same aggregates for any insertion order", func() {
			root := *tree.Node(tree.Root())
			nodes := tree.Len()
			rng := rand.New(rand.NewSource(7))
			order := slices.Clone(pts)

			for range 5 {
				rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
				shuffled := quadtree.New(bounds, 1, quadtree.DefaultMaxDepth)
				for _, p := range order {
					Expect(shuffled.Insert(p)).To(BeTrue())
				}

				got := shuffled.Node(shuffled.Root())
				Expect(got.Mass).To(BeNumerically("~", root.Mass, 1e-9*root.Mass))
				Expect(got.CMX).To(BeNumerically("~", root.CMX, 1e-6))
				Expect(got.CMY).To(BeNumerically("~", root.CMY, 1e-6))
				Expect(shuffled.Len()).To(Equal(nodes))
			}
		})

		It("stores every point in a leaf whose rectangle contains it", func() {
			total := 0
			tree.Walk(func(_ quadtree.NodeID, n *quadtree.Node) bool {
				if !n.IsLeaf() {
					Expect(n.Points()).To(BeEmpty())
					return true
				}
				for _, p := range n.Points() {
					Expect(n.Contains(p.X, p.Y)).To(BeTrue())
					total++
				}
				return true
			})
			Expect(total).To(Equal(len(pts)))
		})

		It("never holds more than one point per leaf above the depth cutoff", func() {
			Expect(tree.Stats().Overflowed).To(BeZero())
			tree.Walk(func(_ quadtree.NodeID, n *quadtree.Node) bool {
				Expect(len(n.Points())).To(BeNumerically("<=", 1))
				return true
			})
		})

		It("yields one rectangle per node", func() {
			rects := slices.Collect(tree.Rects())
			Expect(rects).To(HaveLen(tree.Len()))
			Expect(rects[0]).To(Equal(bounds))
		})

		It("stops yielding rectangles when asked", func() {
			n := 0
			for range tree.Rects() {
				n++
				if n == 3 {
					break
				}
			}
			Expect(n).To(Equal(3))
		})

		It("reports consistent statistics", func() {
			s := tree.Stats()
			Expect(s.Nodes).To(Equal(tree.Len()))
			Expect(s.Points).To(Equal(len(pts)))
			Expect((s.Nodes - 1) % 4).To(BeZero())
			Expect(s.Leaves).To(Equal(s.Nodes - (s.Nodes-1)/4))
		})
	})

	Describe("Clear", func() {
		It("resets the root and keeps its rectangle", func() {
			for _, p := range randomPoints(50, 800, 600, 7) {
				tree.Insert(p)
			}
			tree.Clear()

			root := tree.Node(tree.Root())
			Expect(root.IsLeaf()).To(BeTrue())
			Expect(root.Empty()).To(BeTrue())
			Expect(root.Mass).To(BeZero())
			Expect(root.CMX).To(BeZero())
			Expect(root.CMY).To(BeZero())
			Expect(root.Rect).To(Equal(bounds))
			Expect(tree.Len()).To(Equal(1))
			Expect(tree.Stats().Overflowed).To(BeZero())
		})

		It("is idempotent", func() {
			tree.Clear()
			tree.Clear()
			Expect(tree.Len()).To(Equal(1))
		})

		It("allows the tree to be rebuilt identically", func() {
			pts := randomPoints(200, 800, 600, 9)
			for _, p := range pts {
				tree.Insert(p)
			}
			first := tree.Stats()
			firstRoot := *tree.Node(tree.Root())

			tree.Clear()
			for _, p := range pts {
				tree.Insert(p)
			}
			Expect(tree.Stats()).To(Equal(first))
			Expect(tree.Node(tree.Root()).Mass).To(Equal(firstRoot.Mass))
			Expect(tree.Node(tree.Root()).CMX).To(Equal(firstRoot.CMX))
		})
	})

	Describe("Dump", func() {
		It("writes one line per node and point", func() {
			tree.Insert(point(100, 100, 1))
			tree.Insert(point(700, 500, 1))

			var buf bytes.Buffer
			Expect(tree.Dump(&buf)).To(Succeed())
			out := buf.String()
			Expect(out).To(HavePrefix("node (0.00, 0.00) 800.00x600.00"))
			Expect(out).To(ContainSubstring("  point (100.00, 100.00)"))
			Expect(bytes.Count(buf.Bytes(), []byte("\n"))).To(Equal(5 + 2))
		})
	})
})
