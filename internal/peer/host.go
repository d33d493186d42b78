package peer

import (
	"encoding/json"
	"fmt"

	"github.com/pion/webrtc/v4"
	"github.com/sirupsen/logrus"

	"github.com/junsooki/ScanFreeze/internal/transport"
)

// HostSignaler carries the host's replies back to one viewer.
type HostSignaler interface {
	SendAnswer(payload json.RawMessage) error
	SendICECandidate(payload json.RawMessage) error
}

// Host manages the host side of one viewer's WebRTC connection. The viewer
// creates the frames channel; the host adopts it and sends on it.
type Host struct {
	pc         *webrtc.PeerConnection
	sig        HostSignaler
	transport  *transport.DataChannelTransport
	candidates *candidateQueue
}

// NewHost creates a Host peer manager answering through sig.
func NewHost(sig HostSignaler, log logrus.FieldLogger) (*Host, error) {
	pc, err := NewPeerConnection(log)
	if err != nil {
		return nil, err
	}

	h := &Host{
		pc:         pc,
		sig:        sig,
		transport:  transport.NewDataChannelTransport(nil),
		candidates: newCandidateQueue(sig.SendICECandidate, log),
	}

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() != transport.FramesLabel {
			log.WithField("label", dc.Label()).Warn("ignoring unexpected data channel")
			return
		}
		dc.OnOpen(func() {
			log.Info("frames data channel open")
		})
		h.transport.SetFramesChannel(dc)
	})
	pc.OnICECandidate(h.candidates.onCandidate)

	return h, nil
}

// Transport returns the DataChannelTransport frames are sent on.
func (h *Host) Transport() *transport.DataChannelTransport {
	return h.transport
}

// HandleOffer applies a viewer offer and sends back the answer.
func (h *Host) HandleOffer(payload json.RawMessage) error {
	var offer webrtc.SessionDescription
	if err := json.Unmarshal(payload, &offer); err != nil {
		return fmt.Errorf("decode offer: %w", err)
	}
	if err := h.pc.SetRemoteDescription(offer); err != nil {
		return fmt.Errorf("set remote description: %w", err)
	}

	answer, err := h.pc.CreateAnswer(nil)
	if err != nil {
		return fmt.Errorf("create answer: %w", err)
	}
	if err := h.pc.SetLocalDescription(answer); err != nil {
		return fmt.Errorf("set local description: %w", err)
	}

	answerJSON, err := json.Marshal(answer)
	if err != nil {
		return err
	}
	if err := h.sig.SendAnswer(answerJSON); err != nil {
		return fmt.Errorf("send answer: %w", err)
	}
	h.candidates.flush()
	return nil
}

// HandleICECandidate adds a remote ICE candidate.
func (h *Host) HandleICECandidate(payload json.RawMessage) error {
	return addRemoteCandidate(h.pc, payload)
}

// Close shuts down the peer connection.
func (h *Host) Close() {
	if h.pc != nil {
		h.pc.Close()
	}
}
