package peer

import (
	"encoding/json"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/sirupsen/logrus"
)

// ICEServers is the default ICE server configuration.
var ICEServers = []webrtc.ICEServer{
	{URLs: []string{"stun:stun.l.google.com:19302", "stun:stun1.l.google.com:19302"}},
}

// NewPeerConnection creates a configured PeerConnection.
func NewPeerConnection(log logrus.FieldLogger) (*webrtc.PeerConnection, error) {
	cfg := webrtc.Configuration{
		ICEServers: ICEServers,
	}
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		log.WithField("state", state.String()).Info("peer connection state")
	})
	return pc, nil
}

// candidateQueue holds local ICE candidates until the session description
// they belong to has been sent, so the remote side never receives a
// candidate before it can apply it.
type candidateQueue struct {
	mu      sync.Mutex
	ready   bool
	pending []json.RawMessage
	send    func(json.RawMessage) error
	log     logrus.FieldLogger
}

func newCandidateQueue(send func(json.RawMessage) error, log logrus.FieldLogger) *candidateQueue {
	return &candidateQueue{send: send, log: log}
}

// onCandidate is the PeerConnection.OnICECandidate callback.
func (q *candidateQueue) onCandidate(c *webrtc.ICECandidate) {
	if c == nil {
		return
	}
	data, err := json.Marshal(c.ToJSON())
	if err != nil {
		q.log.WithError(err).Warn("marshal ICE candidate")
		return
	}
	q.push(data)
}

func (q *candidateQueue) push(data json.RawMessage) {
	q.mu.Lock()
	if !q.ready {
		q.pending = append(q.pending, data)
		q.mu.Unlock()
		return
	}
	q.mu.Unlock()
	if err := q.send(data); err != nil {
		q.log.WithError(err).Debug("send ICE candidate")
	}
}

// flush marks the description as sent and delivers queued candidates.
func (q *candidateQueue) flush() {
	q.mu.Lock()
	q.ready = true
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()
	for _, data := range pending {
		if err := q.send(data); err != nil {
			q.log.WithError(err).Debug("send ICE candidate")
		}
	}
}

func addRemoteCandidate(pc *webrtc.PeerConnection, payload json.RawMessage) error {
	var candidate webrtc.ICECandidateInit
	if err := json.Unmarshal(payload, &candidate); err != nil {
		return err
	}
	return pc.AddICECandidate(candidate)
}
