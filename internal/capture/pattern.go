package capture

import (
	"fmt"
	"sync"
)

// Pattern is a synthetic Device that renders a vertical BGRA gradient whose
// phase moves down one row per capture. Useful when no camera is attached.
type Pattern struct {
	width  int
	height int

	mu     sync.Mutex
	tick   int
	closed bool
}

// NewPattern creates a pattern device of the given size.
func NewPattern(width, height int) (*Pattern, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("pattern size must be positive, got %dx%d", width, height)
	}
	return &Pattern{width: width, height: height}, nil
}

func (p *Pattern) Capture() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}

	stride := p.width * BytesPerPixel
	frame := make([]byte, FrameLen(p.width, p.height))
	for y := 0; y < p.height; y++ {
		shade := byte((y + p.tick) % p.height * 255 / p.height)
		row := frame[y*stride : (y+1)*stride]
		for x := 0; x < p.width; x++ {
			px := row[x*BytesPerPixel : (x+1)*BytesPerPixel]
			px[0] = byte(x * 255 / p.width) // B
			px[1] = shade                   // G
			px[2] = 255 - shade             // R
			px[3] = 255                     // A
		}
	}
	p.tick++
	return frame, nil
}

// Captures returns how many frames have been delivered.
func (p *Pattern) Captures() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tick
}

func (p *Pattern) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
