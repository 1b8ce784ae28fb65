package quadtree

import (
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/san-kum/bhsim/internal/body"
)

const (
	DefaultCapacity = 1
	DefaultMaxDepth = 32
)

// NodeID indexes a node in the tree arena. The root is always 0.
type NodeID int32

// None marks a missing child.
const None NodeID = -1

// Rect is an axis-aligned rectangle given by origin and extents.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports half-open containment: [X, X+W) x [Y, Y+H).
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Node is one rectangular region. Nodes are only valid until the next Clear.
type Node struct {
	Rect

	// Mass and centroid of every point in the subtree.
	Mass     float64
	CMX, CMY float64

	// maxX/maxY are stored rather than derived from X+W so that a parent and
	// its four children partition space exactly, with no rounding gaps.
	maxX, maxY float64
	midX, midY float64
	child      NodeID
	depth      int
	points     []*body.Point
}

func (n *Node) Contains(x, y float64) bool {
	return x >= n.X && x < n.maxX && y >= n.Y && y < n.maxY
}

func (n *Node) IsLeaf() bool { return n.child == None }

// Empty reports a leaf with nothing in it.
func (n *Node) Empty() bool { return n.child == None && len(n.points) == 0 }

func (n *Node) Depth() int { return n.depth }

// Points returns the references held directly by a leaf. Read only.
func (n *Node) Points() []*body.Point { return n.points }

// FirstChild returns the id of quadrant 0; quadrants 1..3 follow contiguously.
func (n *Node) FirstChild() NodeID { return n.child }

func (n *Node) quadrant(x, y float64) NodeID {
	q := NodeID(0)
	if x >= n.midX {
		q |= 1
	}
	if y >= n.midY {
		q |= 2
	}
	return q
}

func (n *Node) accumulate(p *body.Point) {
	m := n.Mass + p.Mass
	n.CMX = (n.CMX*n.Mass + p.X*p.Mass) / m
	n.CMY = (n.CMY*n.Mass + p.Y*p.Mass) / m
	n.Mass = m
}

// Tree is a point-region quadtree with per-node mass aggregates. All nodes
// live in one arena slice; children of a node are four consecutive entries.
type Tree struct {
	nodes    []Node
	capacity int
	maxDepth int
	overflow int
}

// New creates an empty tree over bounds. capacity < 1 and maxDepth < 1 fall
// back to the defaults.
func New(bounds Rect, capacity, maxDepth int) *Tree {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	if maxDepth < 1 {
		maxDepth = DefaultMaxDepth
	}
	t := &Tree{
		nodes:    make([]Node, 0, 64),
		capacity: capacity,
		maxDepth: maxDepth,
	}
	t.alloc(bounds.X, bounds.Y, bounds.X+bounds.W, bounds.Y+bounds.H, 0)
	return t
}

func (t *Tree) Capacity() int { return t.capacity }
func (t *Tree) MaxDepth() int { return t.maxDepth }

func (t *Tree) Root() NodeID { return 0 }

func (t *Tree) Bounds() Rect { return t.nodes[0].Rect }

// Len returns the number of live nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the node for id. The pointer is invalidated by Insert and Clear.
func (t *Tree) Node(id NodeID) *Node { return &t.nodes[id] }

func (t *Tree) IsLeaf(id NodeID) bool { return t.nodes[id].child == None }

// Children returns the four quadrant ids of id, or ok=false for a leaf.
func (t *Tree) Children(id NodeID) (c [4]NodeID, ok bool) {
	first := t.nodes[id].child
	if first == None {
		return [4]NodeID{None, None, None, None}, false
	}
	return [4]NodeID{first, first + 1, first + 2, first + 3}, true
}

func (t *Tree) alloc(x0, y0, x1, y1 float64, depth int) NodeID {
	id := len(t.nodes)
	if id < cap(t.nodes) {
		t.nodes = t.nodes[:id+1]
	} else {
		t.nodes = append(t.nodes, Node{})
	}
	n := &t.nodes[id]
	pts := n.points[:0]
	*n = Node{
		Rect:   Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0},
		maxX:   x1,
		maxY:   y1,
		child:  None,
		depth:  depth,
		points: pts,
	}
	return NodeID(id)
}

// Clear drops every node below the root and resets the root to an empty
// leaf over the same rectangle.
func (t *Tree) Clear() {
	root := &t.nodes[0]
	root.child = None
	root.points = root.points[:0]
	root.Mass, root.CMX, root.CMY = 0, 0, 0
	t.nodes = t.nodes[:1]
	t.overflow = 0
}

// Insert adds p under the root. It returns false, leaving the tree untouched,
// when p lies outside the root rectangle.
func (t *Tree) Insert(p *body.Point) bool {
	return t.insert(0, p)
}

func (t *Tree) insert(id NodeID, p *body.Point) bool {
	n := &t.nodes[id]
	if !n.Contains(p.X, p.Y) {
		return false
	}

	if n.child == None {
		if len(n.points) < t.capacity || n.depth >= t.maxDepth {
			if len(n.points) == t.capacity {
				t.overflow++
			}
			n.points = append(n.points, p)
			n.accumulate(p)
			return true
		}
		t.subdivide(id)
		n = &t.nodes[id]
	}

	if !t.insert(n.child+n.quadrant(p.X, p.Y), p) {
		return false
	}
	// the arena may have grown during the recursive call
	t.nodes[id].accumulate(p)
	return true
}

// subdivide splits a full leaf at its midpoint and pushes its payload down.
// The node's own aggregates already include the moved points.
func (t *Tree) subdivide(id NodeID) {
	n := t.nodes[id]
	mx := n.X + n.W/2
	my := n.Y + n.H/2
	d := n.depth + 1

	first := t.alloc(n.X, n.Y, mx, my, d)
	t.alloc(mx, n.Y, n.maxX, my, d)
	t.alloc(n.X, my, mx, n.maxY, d)
	t.alloc(mx, my, n.maxX, n.maxY, d)

	parent := &t.nodes[id]
	parent.child = first
	parent.midX, parent.midY = mx, my
	held := parent.points
	parent.points = held[:0]

	for _, q := range held {
		t.insert(first+parent.quadrant(q.X, q.Y), q)
		parent = &t.nodes[id]
	}
}

// Walk visits nodes in pre-order. Returning false from fn skips that node's
// children.
func (t *Tree) Walk(fn func(id NodeID, n *Node) bool) {
	stack := []NodeID{0}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[id]
		if !fn(id, n) || n.child == None {
			continue
		}
		for q := NodeID(3); q >= 0; q-- {
			stack = append(stack, n.child+q)
		}
	}
}

// Rects lazily yields the rectangle of every live node in pre-order.
func (t *Tree) Rects() iter.Seq[Rect] {
	return func(yield func(Rect) bool) {
		stop := false
		t.Walk(func(_ NodeID, n *Node) bool {
			if stop {
				return false
			}
			if !yield(n.Rect) {
				stop = true
				return false
			}
			return true
		})
	}
}

type Stats struct {
	Nodes      int
	Leaves     int
	MaxDepth   int
	Points     int
	Overflowed int
}

func (t *Tree) Stats() Stats {
	s := Stats{Nodes: len(t.nodes), Overflowed: t.overflow}
	for i := range t.nodes {
		n := &t.nodes[i]
		if n.child != None {
			continue
		}
		s.Leaves++
		s.Points += len(n.points)
		if n.depth > s.MaxDepth {
			s.MaxDepth = n.depth
		}
	}
	return s
}

// Dump writes an indented description of the tree, one node per line.
func (t *Tree) Dump(w io.Writer) error {
	var err error
	var visit func(id NodeID)
	visit = func(id NodeID) {
		if err != nil {
			return
		}
		n := &t.nodes[id]
		indent := strings.Repeat("  ", n.depth)
		_, err = fmt.Fprintf(w, "%snode (%.2f, %.2f) %.2fx%.2f mass=%.4g cm=(%.2f, %.2f) points=%d\n",
			indent, n.X, n.Y, n.W, n.H, n.Mass, n.CMX, n.CMY, len(n.points))
		for _, p := range n.points {
			if err != nil {
				return
			}
			_, err = fmt.Fprintf(w, "%s  point (%.2f, %.2f) v=(%.2f, %.2f) m=%.4g f=(%.4g, %.4g)\n",
				indent, p.X, p.Y, p.VX, p.VY, p.Mass, p.FX, p.FY)
		}
		if n.child == None {
			return
		}
		for q := NodeID(0); q < 4; q++ {
			visit(n.child + q)
		}
	}
	visit(0)
	return err
}
