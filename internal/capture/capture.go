package capture

import "errors"

// BytesPerPixel is the fixed channel depth of every frame: three color
// channels plus alpha.
const BytesPerPixel = 4

// ErrClosed is returned by Capture once a device has been closed.
var ErrClosed = errors.New("capture: device closed")

// Device delivers raw frames in device-native BGRA order at a fixed,
// previously negotiated size. The returned buffer belongs to the caller.
type Device interface {
	Capture() ([]byte, error)
	Close() error
}

// FrameLen returns the byte length of a width x height frame.
func FrameLen(width, height int) int {
	return width * height * BytesPerPixel
}
