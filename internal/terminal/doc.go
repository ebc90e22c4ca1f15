// Package terminal turns terminal mouse input into raw pointer events.
//
// A left button press becomes a mouse down, motion with the button held
// becomes a mouse move, and the release becomes a mouse up. With touch
// emulation enabled the same gestures arrive as touch events. Cell
// coordinates are reported as client coordinates and the target of every
// event is the row under the pointer ("row:<y>"). Rows sit under the
// RootTarget in the emitter tree.
//
// Taps are drawn on the bottom status line of the screen.
package terminal
