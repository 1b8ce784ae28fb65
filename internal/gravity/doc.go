// Package gravity evaluates softened Newtonian forces between point masses.
//
// Accumulate walks a quadtree and approximates distant groups of points by
// their total mass at their centroid (the Barnes-Hut opening criterion):
//
//	d = sqrt(dx² + dy² + ε²)
//	node.W / d < θ  →  treat node as a single mass
//
// θ = 0 opens every node and reduces to exact pairwise summation; larger θ
// trades accuracy for speed. Direct computes the same softened forces by
// brute force and serves as the reference in tests and accuracy sweeps.
package gravity
