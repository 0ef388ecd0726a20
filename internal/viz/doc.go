// Package viz draws grab simulations in the terminal with Bubble Tea.
//
// A [Live] view steps a simulator a few host frames per tick and renders the
// body as a braille wireframe ([Canvas], [Camera], [Scene]) next to a panel
// of its state and the grab events so far. [App] wraps it in scenario and
// preset menus.
//
// # Key Bindings
//
//	Space  - Pause/Resume
//	.      - Step one frame while paused
//	R      - Restart the scenario
//	[ ]    - Scrub back and forward through history
//	Arrows - Orbit the camera
//	+ -    - Zoom
//	< >    - Frames per tick
//	?      - Help overlay
//	Esc    - Back to the menus (App only)
package viz
