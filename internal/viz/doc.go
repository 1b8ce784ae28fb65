// Package viz renders a running simulation in the terminal.
//
// The live view is a Bubble Tea program:
//
//   - [Model]: steps the simulator on a timer and draws each snapshot
//   - [Canvas]: Braille-based pixel canvas, 2x4 dots per cell
//   - Theme selection with built-in color schemes
//
// # Key Bindings
//
//	Space - Toggle the quadtree grid overlay
//	P     - Pause/Resume
//	N     - Advance one frame while paused
//	T     - Cycle color themes
//	?     - Show help overlay
//	Q     - Quit
package viz
