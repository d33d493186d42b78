package decoder

import "image"

// Decoder decodes preview bytes into an RGBA image.
type Decoder interface {
	Decode(data []byte) (*image.RGBA, error)
}
