// Package monitor provides a terminal telemetry view of a running engine.
//
// The monitor is a Bubble Tea program that polls a [metrics.Recorder] on
// every tick and renders frame counters, energy and momentum, a kinetic
// energy chart and a table of body states. It does not draw the arena.
//
// # Key Bindings
//
//	Space - Freeze/unfreeze the display
//	T     - Cycle color themes
//	Tab   - Page through the body table
//	Q     - Quit
package monitor
