package quadtree

import (
	"math/rand"
	"testing"

	"github.com/san-kum/bhsim/internal/body"
)

func benchPoints(n int) []body.Point {
	rng := rand.New(rand.NewSource(1))
	pts := make([]body.Point, n)
	for i := range pts {
		pts[i] = body.Point{X: rng.Float64() * 800, Y: rng.Float64() * 600, Mass: 1}
	}
	return pts
}

func benchmarkBuild(b *testing.B, n int) {
	pts := benchPoints(n)
	t := New(Rect{W: 800, H: 600}, DefaultCapacity, DefaultMaxDepth)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		t.Clear()
		for j := range pts {
			t.Insert(&pts[j])
		}
	}
}

func BenchmarkBuild1k(b *testing.B)  { benchmarkBuild(b, 1000) }
func BenchmarkBuild10k(b *testing.B) { benchmarkBuild(b, 10000) }
