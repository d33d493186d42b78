// Package preview streams the composite frames to remote viewers over
// WebRTC without ever blocking the render tick that produces them.
package preview

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/junsooki/ScanFreeze/internal/encoder"
	"github.com/junsooki/ScanFreeze/internal/transport"
)

// Publisher accepts produced frames.
type Publisher interface {
	Publish(frame []byte)
}

// Stats counts broadcaster activity.
type Stats struct {
	Published    uint64 // frames handed to Publish while viewers were attached
	Dropped      uint64 // frames replaced before the worker picked them up
	Encoded      uint64
	EncodeErrors uint64
	Sent         uint64 // successful per-viewer sends
	Viewers      int
}

// Broadcaster encodes the latest published frame and sends it to every
// attached viewer. Publish hands over through a one-slot mailbox: a newer
// frame replaces one the worker has not picked up yet.
type Broadcaster struct {
	enc    encoder.Encoder
	width  int
	height int
	log    logrus.FieldLogger

	mu      sync.Mutex
	viewers map[string]transport.FrameSender
	pending []byte
	stats   Stats

	wake      chan struct{}
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewBroadcaster starts a broadcaster for width x height frames.
func NewBroadcaster(enc encoder.Encoder, width, height int, log logrus.FieldLogger) *Broadcaster {
	b := &Broadcaster{
		enc:     enc,
		width:   width,
		height:  height,
		log:     log,
		viewers: make(map[string]transport.FrameSender),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	b.wg.Add(1)
	go b.loop()
	return b
}

// Add attaches a viewer. A sender that is not open yet is skipped until it
// is.
func (b *Broadcaster) Add(id string, s transport.FrameSender) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.viewers[id] = s
}

// Remove detaches a viewer.
func (b *Broadcaster) Remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.viewers, id)
}

// Publish offers frame to the viewers. It never blocks. frame must not be
// modified afterwards.
func (b *Broadcaster) Publish(frame []byte) {
	b.mu.Lock()
	if len(b.viewers) == 0 {
		b.mu.Unlock()
		return
	}
	if b.pending != nil {
		b.stats.Dropped++
	}
	b.pending = frame
	b.stats.Published++
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Stats returns a snapshot of the counters.
func (b *Broadcaster) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.stats
	s.Viewers = len(b.viewers)
	return s
}

// Close stops the worker. Frames still pending are discarded.
func (b *Broadcaster) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
		b.wg.Wait()
	})
}

func (b *Broadcaster) loop() {
	defer b.wg.Done()
	for {
		select {
		case <-b.done:
			return
		case <-b.wake:
			b.mu.Lock()
			frame := b.pending
			b.pending = nil
			b.mu.Unlock()
			if frame != nil {
				b.broadcast(frame)
			}
		}
	}
}

func (b *Broadcaster) broadcast(frame []byte) {
	data, err := b.enc.Encode(encoder.FrameImage(frame, b.width, b.height))

	b.mu.Lock()
	if err != nil {
		b.stats.EncodeErrors++
		b.mu.Unlock()
		b.log.WithError(err).Warn("preview encode failed")
		return
	}
	b.stats.Encoded++
	targets := make(map[string]transport.FrameSender, len(b.viewers))
	for id, s := range b.viewers {
		targets[id] = s
	}
	b.mu.Unlock()

	var sent uint64
	for id, s := range targets {
		if err := s.SendFrame(data); err != nil {
			if !errors.Is(err, transport.ErrNotOpen) {
				b.log.WithError(err).WithField("viewer", id).Debug("preview send failed")
			}
			continue
		}
		sent++
	}

	b.mu.Lock()
	b.stats.Sent += sent
	b.mu.Unlock()
}
