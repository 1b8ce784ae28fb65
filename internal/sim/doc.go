// Package sim drives a Barnes-Hut gravity simulation frame by frame.
//
// Each call to [Simulator.Step] runs one frame in a fixed order:
//
//   - clear the quadtree and insert every point (points outside the domain
//     are skipped for that frame and logged)
//   - run the configured number of sub-steps; each sub-step evaluates forces
//     for all points in parallel against the same tree and then integrates
//     every point
//   - publish a [Snapshot] of positions (and node rectangles when the grid
//     is enabled)
//
// The tree is built once per frame, so sub-steps after the first see
// centroids from the start of the frame.
//
// # Thread Safety
//
// Step and Run must be called from a single goroutine. SetGrid, ToggleGrid,
// GridEnabled and Latest may be called from any goroutine.
package sim
