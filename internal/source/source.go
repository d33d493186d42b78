// Package source defines FrameSource, the pull-based capability the
// presentation loop draws frames from, and its implementations.
package source

// FrameSource produces one RGBA frame per call. It reports false when the
// stream has ended; callers stop pulling at that point.
type FrameSource interface {
	NextFrame() ([]byte, bool)
}

// FrameSourceFunc adapts a function to FrameSource.
type FrameSourceFunc func() ([]byte, bool)

func (f FrameSourceFunc) NextFrame() ([]byte, bool) {
	return f()
}

// State is the lifecycle of a finite source.
type State int

const (
	Running State = iota
	Complete
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}
