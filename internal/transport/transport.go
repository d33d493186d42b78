package transport

// FrameSender sends encoded preview frames.
type FrameSender interface {
	SendFrame(data []byte) error
}

// FrameReceiver receives encoded preview frames.
type FrameReceiver interface {
	OnFrame(callback func(data []byte))
}
