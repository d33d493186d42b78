package signaling

import "encoding/json"

// Message types for the preview signaling protocol.
const (
	TypeRegistered   = "registered"
	TypeOffer        = "offer"
	TypeAnswer       = "answer"
	TypeICECandidate = "ice-candidate"
	TypePing         = "ping"
	TypePong         = "pong"
	TypeError        = "error"
)

// Message is the envelope for all signaling messages.
type Message struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Msg     string          `json:"message,omitempty"`
}
