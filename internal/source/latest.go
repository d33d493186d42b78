package source

import "sync"

// Latest holds the most recent frame pushed by a concurrent producer, such
// as a network receiver, and hands it to the presentation loop on every
// pull. Before the first Set it returns a blank frame.
type Latest struct {
	mu     sync.Mutex
	frame  []byte
	closed bool
}

// NewLatest creates a holder that starts out showing a blank frame of
// frameLen bytes.
func NewLatest(frameLen int) *Latest {
	return &Latest{frame: make([]byte, frameLen)}
}

// Set replaces the current frame. The holder takes ownership of frame.
func (l *Latest) Set(frame []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frame = frame
}

// Close ends the stream; subsequent pulls report false.
func (l *Latest) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
}

func (l *Latest) NextFrame() ([]byte, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, false
	}
	return l.frame, true
}
