// Package viz renders a running simulation in the terminal.
//
// [Model] is a Bubble Tea program that steps a [scene.Experiment] on a
// ticker and draws the bodies on a braille [Canvas] through a [Camera],
// next to a body table and a height graph of the designated body.
//
// # Key Bindings
//
//	Space  - Pause/Resume
//	.      - Single step while paused
//	R      - Reset to the initial state
//	Arrows - Push the designated body (manual controller)
//	X      - Release the push
//	A/D    - Orbit camera
//	W/S    - Tilt camera
//	+/-    - Zoom
//	F      - Refit camera to the bodies
//	T      - Cycle color themes
//	?      - Help
package viz
