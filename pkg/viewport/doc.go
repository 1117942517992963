// Package viewport implements the pan/zoom transform of the editing canvas
// and the conversion between screen and canvas coordinates.
package viewport
