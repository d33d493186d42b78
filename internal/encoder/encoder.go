package encoder

import "image"

// Encoder encodes a composite frame image into bytes for the preview.
type Encoder interface {
	Encode(img *image.RGBA) ([]byte, error)
}

// FrameImage wraps a raw RGBA frame of width x height as an image without
// copying. frame must be exactly width*height*4 bytes.
func FrameImage(frame []byte, width, height int) *image.RGBA {
	return &image.RGBA{
		Pix:    frame,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}
}
