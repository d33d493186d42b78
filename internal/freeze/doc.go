// Package freeze implements the scan-line freeze effect: an Accumulator
// that permanently captures rows of successive live frames from the top
// down, and a Compositor that lays the frozen rows, a single marker row and
// the rest of the live frame into one output frame.
//
// Frames are RGBA, 4 bytes per pixel, row-major with no padding.
// Neither type is safe for concurrent use.
package freeze
