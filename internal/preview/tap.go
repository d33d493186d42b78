package preview

import "github.com/junsooki/ScanFreeze/internal/source"

// Tap returns a source that publishes every frame src produces and passes
// it through unchanged.
func Tap(src source.FrameSource, pub Publisher) source.FrameSource {
	return source.FrameSourceFunc(func() ([]byte, bool) {
		frame, ok := src.NextFrame()
		if ok {
			pub.Publish(frame)
		}
		return frame, ok
	})
}
