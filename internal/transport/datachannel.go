package transport

import (
	"errors"
	"sync"

	"github.com/pion/webrtc/v4"
)

// ErrNotOpen is returned by SendFrame before the channel opens or after it
// closes.
var ErrNotOpen = errors.New("frames data channel not open")

// FramesLabel is the data channel label preview frames travel on.
const FramesLabel = "frames"

// DataChannelTransport implements frame transport over a WebRTC DataChannel.
type DataChannelTransport struct {
	mu       sync.Mutex
	framesDC *webrtc.DataChannel
	onFrame  func(data []byte)
}

// NewDataChannelTransport wraps the frames DataChannel, which may be nil
// until one is negotiated.
func NewDataChannelTransport(framesDC *webrtc.DataChannel) *DataChannelTransport {
	t := &DataChannelTransport{}
	if framesDC != nil {
		t.SetFramesChannel(framesDC)
	}
	return t
}

func (t *DataChannelTransport) SendFrame(data []byte) error {
	t.mu.Lock()
	dc := t.framesDC
	t.mu.Unlock()
	if dc == nil || dc.ReadyState() != webrtc.DataChannelStateOpen {
		return ErrNotOpen
	}
	return dc.Send(data)
}

func (t *DataChannelTransport) OnFrame(cb func(data []byte)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onFrame = cb
}

// Open reports whether frames can be sent.
func (t *DataChannelTransport) Open() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.framesDC != nil && t.framesDC.ReadyState() == webrtc.DataChannelStateOpen
}

// SetFramesChannel sets or replaces the frames DataChannel (used when
// receiving a channel the remote side created).
func (t *DataChannelTransport) SetFramesChannel(dc *webrtc.DataChannel) {
	t.mu.Lock()
	t.framesDC = dc
	t.mu.Unlock()
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		t.mu.Lock()
		cb := t.onFrame
		t.mu.Unlock()
		if cb != nil {
			cb(msg.Data)
		}
	})
}
