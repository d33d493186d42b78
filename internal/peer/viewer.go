package peer

import (
	"encoding/json"
	"fmt"

	"github.com/pion/webrtc/v4"
	"github.com/sirupsen/logrus"

	"github.com/junsooki/ScanFreeze/internal/transport"
)

// ViewerSignaler carries the viewer's messages to the host.
type ViewerSignaler interface {
	SendOffer(payload json.RawMessage) error
	SendICECandidate(payload json.RawMessage) error
}

// Viewer manages the viewer side of the WebRTC connection.
type Viewer struct {
	pc         *webrtc.PeerConnection
	sig        ViewerSignaler
	transport  *transport.DataChannelTransport
	candidates *candidateQueue
}

// NewViewer creates a Viewer peer manager with its frames channel.
func NewViewer(sig ViewerSignaler, log logrus.FieldLogger) (*Viewer, error) {
	pc, err := NewPeerConnection(log)
	if err != nil {
		return nil, err
	}

	// Stale frames are worthless; never retransmit or reorder them.
	ordered := false
	maxRetransmits := uint16(0)
	framesDC, err := pc.CreateDataChannel(transport.FramesLabel, &webrtc.DataChannelInit{
		Ordered:        &ordered,
		MaxRetransmits: &maxRetransmits,
	})
	if err != nil {
		pc.Close()
		return nil, err
	}
	framesDC.OnOpen(func() {
		log.Info("frames data channel open")
	})

	v := &Viewer{
		pc:         pc,
		sig:        sig,
		transport:  transport.NewDataChannelTransport(framesDC),
		candidates: newCandidateQueue(sig.SendICECandidate, log),
	}
	pc.OnICECandidate(v.candidates.onCandidate)
	return v, nil
}

// Transport returns the DataChannelTransport frames arrive on.
func (v *Viewer) Transport() *transport.DataChannelTransport {
	return v.transport
}

// Connect initiates the WebRTC connection by creating and sending an offer.
func (v *Viewer) Connect() error {
	offer, err := v.pc.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	if err := v.pc.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("set local description: %w", err)
	}

	offerJSON, err := json.Marshal(offer)
	if err != nil {
		return err
	}
	if err := v.sig.SendOffer(offerJSON); err != nil {
		return fmt.Errorf("send offer: %w", err)
	}
	v.candidates.flush()
	return nil
}

// HandleAnswer processes an incoming SDP answer.
func (v *Viewer) HandleAnswer(payload json.RawMessage) error {
	var answer webrtc.SessionDescription
	if err := json.Unmarshal(payload, &answer); err != nil {
		return fmt.Errorf("decode answer: %w", err)
	}
	return v.pc.SetRemoteDescription(answer)
}

// HandleICECandidate adds a remote ICE candidate.
func (v *Viewer) HandleICECandidate(payload json.RawMessage) error {
	return addRemoteCandidate(v.pc, payload)
}

// Close shuts down the peer connection.
func (v *Viewer) Close() {
	if v.pc != nil {
		v.pc.Close()
	}
}
