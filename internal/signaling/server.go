package signaling

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// ServerHandler callbacks for messages arriving from viewers. They run on
// the session's read goroutine.
type ServerHandler struct {
	OnOffer        func(s *Session, payload json.RawMessage)
	OnICECandidate func(s *Session, payload json.RawMessage)
	OnClose        func(s *Session)
}

// Session is one connected viewer.
type Session struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *Session) ID() string { return s.id }

// SendAnswer sends an SDP answer to the viewer.
func (s *Session) SendAnswer(payload json.RawMessage) error {
	return s.send(Message{Type: TypeAnswer, Payload: payload})
}

// SendICECandidate sends a local ICE candidate to the viewer.
func (s *Session) SendICECandidate(payload json.RawMessage) error {
	return s.send(Message{Type: TypeICECandidate, Payload: payload})
}

// SendError reports a failure to the viewer.
func (s *Session) SendError(msg string) error {
	return s.send(Message{Type: TypeError, Msg: msg})
}

func (s *Session) send(msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(msg)
}

// Server accepts viewer WebSocket connections and relays their offers and
// ICE candidates to a handler.
type Server struct {
	upgrader websocket.Upgrader
	handler  ServerHandler
	log      logrus.FieldLogger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewServer creates a signaling server.
func NewServer(handler ServerHandler, log logrus.FieldLogger) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			// Viewers run outside any browser origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		handler:  handler,
		log:      log,
		sessions: make(map[string]*Session),
	}
}

// ServeHTTP upgrades the request and serves the session until it drops.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("signaling upgrade failed")
		return
	}
	sess := &Session{id: uuid.NewString(), conn: conn}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	log := s.log.WithFields(logrus.Fields{"viewer": sess.id, "remote": r.RemoteAddr})
	log.Info("viewer connected")

	defer func() {
		s.mu.Lock()
		delete(s.sessions, sess.id)
		s.mu.Unlock()
		conn.Close()
		if s.handler.OnClose != nil {
			s.handler.OnClose(sess)
		}
		log.Info("viewer disconnected")
	}()

	if err := sess.send(Message{Type: TypeRegistered, ID: sess.id}); err != nil {
		log.WithError(err).Warn("signaling register reply failed")
		return
	}

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Debug("signaling read ended")
			}
			return
		}
		s.dispatch(sess, msg, log)
	}
}

func (s *Server) dispatch(sess *Session, msg Message, log logrus.FieldLogger) {
	switch msg.Type {
	case TypeOffer:
		if s.handler.OnOffer != nil {
			s.handler.OnOffer(sess, msg.Payload)
		}
	case TypeICECandidate:
		if s.handler.OnICECandidate != nil {
			s.handler.OnICECandidate(sess, msg.Payload)
		}
	case TypePing:
		_ = sess.send(Message{Type: TypePong})
	default:
		log.WithField("type", msg.Type).Debug("ignoring signaling message")
		_ = sess.SendError(fmt.Sprintf("unsupported message type %q", msg.Type))
	}
}

// Sessions returns the number of connected viewers.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close drops every connected viewer.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		sess.conn.Close()
	}
}
