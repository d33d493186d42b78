package capture

// NormalizeBGRA reorders a BGRA frame into RGBA in place by swapping the
// first and third byte of every pixel. Bytes past the last whole pixel are
// left as they are.
func NormalizeBGRA(frame []byte) {
	for i := 0; i+BytesPerPixel <= len(frame); i += BytesPerPixel {
		frame[i], frame[i+2] = frame[i+2], frame[i]
	}
}
