package preview

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/junsooki/ScanFreeze/internal/peer"
	"github.com/junsooki/ScanFreeze/internal/signaling"
)

// SignalPath is where viewers open their signaling WebSocket.
const SignalPath = "/signal"

// Server accepts viewers, negotiates a WebRTC connection with each and
// attaches its frames channel to a Broadcaster.
type Server struct {
	b   *Broadcaster
	sig *signaling.Server
	log logrus.FieldLogger

	mu    sync.Mutex
	hosts map[string]*peer.Host
}

// NewServer creates a preview server feeding viewers from b.
func NewServer(b *Broadcaster, log logrus.FieldLogger) *Server {
	s := &Server{
		b:     b,
		log:   log,
		hosts: make(map[string]*peer.Host),
	}
	s.sig = signaling.NewServer(signaling.ServerHandler{
		OnOffer:        s.onOffer,
		OnICECandidate: s.onICECandidate,
		OnClose:        s.onClose,
	}, log)
	return s
}

// Handler returns the HTTP routes of the preview server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(SignalPath, s.sig)
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("preview server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.sig.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.closeAll()
	return nil
}

// Viewers returns the number of negotiated viewers.
func (s *Server) Viewers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hosts)
}

func (s *Server) onOffer(sess *signaling.Session, payload json.RawMessage) {
	log := s.log.WithField("viewer", sess.ID())

	s.mu.Lock()
	old := s.hosts[sess.ID()]
	delete(s.hosts, sess.ID())
	s.mu.Unlock()
	if old != nil {
		s.b.Remove(sess.ID())
		old.Close()
	}

	h, err := peer.NewHost(sess, log)
	if err != nil {
		log.WithError(err).Warn("create host peer")
		_ = sess.SendError("host peer unavailable")
		return
	}
	if err := h.HandleOffer(payload); err != nil {
		log.WithError(err).Warn("handle offer")
		h.Close()
		_ = sess.SendError(err.Error())
		return
	}

	s.mu.Lock()
	s.hosts[sess.ID()] = h
	s.mu.Unlock()
	s.b.Add(sess.ID(), h.Transport())
}

func (s *Server) onICECandidate(sess *signaling.Session, payload json.RawMessage) {
	s.mu.Lock()
	h := s.hosts[sess.ID()]
	s.mu.Unlock()
	if h == nil {
		return
	}
	if err := h.HandleICECandidate(payload); err != nil {
		s.log.WithError(err).WithField("viewer", sess.ID()).Warn("handle ICE candidate")
	}
}

func (s *Server) onClose(sess *signaling.Session) {
	s.mu.Lock()
	h := s.hosts[sess.ID()]
	delete(s.hosts, sess.ID())
	s.mu.Unlock()
	s.b.Remove(sess.ID())
	if h != nil {
		h.Close()
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	hosts := s.hosts
	s.hosts = make(map[string]*peer.Host)
	s.mu.Unlock()
	for id, h := range hosts {
		s.b.Remove(id)
		h.Close()
	}
}
