// Package viz draws a running crystal in the terminal.
//
// [Run] drives an [md.Driver] on a background goroutine and shows a Bubble
// Tea view with a braille projection of the atoms, the latest energy
// report, asciigraph traces of total energy and temperature and a
// progress bar over the whole run.
//
// # Key Bindings
//
//	q     - Stop the run and quit
//	x/y   - Rotate the crystal
//	+/-   - Zoom
//	t     - Cycle color themes
package viz
