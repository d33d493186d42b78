// Package camera provides a capture.Device backed by an OpenCV video
// capture. It links against OpenCV through gocv.
package camera

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"github.com/junsooki/ScanFreeze/internal/capture"
)

// Camera captures BGRA frames from a local camera.
type Camera struct {
	mu     sync.Mutex
	vc     *gocv.VideoCapture
	bgr    gocv.Mat
	bgra   gocv.Mat
	width  int
	height int
	closed bool
}

// Open opens the camera at index and negotiates width x height at fps.
func Open(index, width, height, fps int) (*Camera, error) {
	if fps <= 0 || fps > 60 {
		return nil, fmt.Errorf("fps must be 1-60, got %d", fps)
	}

	vc, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", index, err)
	}
	vc.Set(gocv.VideoCaptureFrameWidth, float64(width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(height))
	vc.Set(gocv.VideoCaptureFPS, float64(fps))

	return &Camera{
		vc:     vc,
		bgr:    gocv.NewMat(),
		bgra:   gocv.NewMat(),
		width:  width,
		height: height,
	}, nil
}

func (c *Camera) Capture() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, capture.ErrClosed
	}

	if ok := c.vc.Read(&c.bgr); !ok || c.bgr.Empty() {
		return nil, fmt.Errorf("camera read returned no frame")
	}
	if c.bgr.Cols() != c.width || c.bgr.Rows() != c.height {
		return nil, fmt.Errorf("camera delivered %dx%d, negotiated %dx%d",
			c.bgr.Cols(), c.bgr.Rows(), c.width, c.height)
	}
	if err := gocv.CvtColor(c.bgr, &c.bgra, gocv.ColorBGRToBGRA); err != nil {
		return nil, fmt.Errorf("convert to BGRA: %w", err)
	}

	// ToBytes copies out of the Mat, so the buffer is ours to hand over.
	return c.bgra.ToBytes(), nil
}

func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.bgr.Close()
	c.bgra.Close()
	return c.vc.Close()
}
