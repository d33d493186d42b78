package freeze

import (
	"bytes"
	"image/color"
)

// DefaultMarker is the purple of the boundary row.
var DefaultMarker = color.RGBA{R: 163, G: 73, B: 164, A: 126}

// Compositor merges an accumulator's frozen rows with a live frame. The
// marker row is rendered once at construction.
type Compositor struct {
	marker []byte
}

// NewCompositor creates a compositor for frames width pixels wide whose
// boundary row is painted c.
func NewCompositor(width int, c color.RGBA) *Compositor {
	px := []byte{c.R, c.G, c.B, c.A}
	return &Compositor{marker: bytes.Repeat(px, width)}
}

// MarkerRow returns the marker row bytes. Callers must not modify them.
func (c *Compositor) MarkerRow() []byte { return c.marker }

// Compose builds the next output frame: the frozen rows, one marker row,
// then the live frame from the first row not covered by the two. It reports
// false (end of stream) when the frozen rows already cover the frame, when
// the marker would not fit, or when live cannot supply the remainder. A
// returned frame is always exactly one frame long. acc is not modified.
func (c *Compositor) Compose(live []byte, acc *Accumulator) ([]byte, bool) {
	total := acc.FrameBytes()
	frozen := acc.Frozen()
	if len(frozen) >= total {
		return nil, false
	}
	head := len(frozen) + len(c.marker)
	if head > total {
		return nil, false
	}
	if head < total && len(live) < total {
		return nil, false
	}

	out := make([]byte, 0, total)
	out = append(out, frozen...)
	out = append(out, c.marker...)
	if head < total {
		out = append(out, live[head:total]...)
	}
	return out, true
}
