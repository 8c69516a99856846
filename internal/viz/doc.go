// Package viz renders orbit trajectories in the terminal.
//
//   - [Canvas]: Braille-based pixel canvas, 2x4 sub-pixels per cell
//   - [RenderOrbits]: x/y paths of every body on one canvas
//   - [PositionChart]: a coordinate against time, drawn with asciigraph
//   - [Theme]: body and chrome colors shared with the SVG exporter
package viz
