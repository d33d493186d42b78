package preview

import (
	"errors"
	"image"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junsooki/ScanFreeze/internal/signaling"
	"github.com/junsooki/ScanFreeze/internal/source"
	"github.com/junsooki/ScanFreeze/internal/transport"
)

// gateEncoder "encodes" a frame as its first byte and can hold the worker
// inside Encode until released.
type gateEncoder struct {
	started chan byte
	release chan struct{}
}

func newGateEncoder() *gateEncoder {
	return &gateEncoder{started: make(chan byte, 8), release: make(chan struct{}, 8)}
}

func (e *gateEncoder) Encode(img *image.RGBA) ([]byte, error) {
	e.started <- img.Pix[0]
	<-e.release
	return []byte{img.Pix[0]}, nil
}

type failEncoder struct{}

func (failEncoder) Encode(*image.RGBA) ([]byte, error) { return nil, errors.New("codec broke") }

type recordSender struct {
	mu   sync.Mutex
	got  []byte
	err  error
	sent chan struct{}
}

func newRecordSender(err error) *recordSender {
	return &recordSender{err: err, sent: make(chan struct{}, 8)}
}

func (s *recordSender) SendFrame(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.sent <- struct{}{} }()
	if s.err != nil {
		return s.err
	}
	s.got = append(s.got, data...)
	return nil
}

func (s *recordSender) frames() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.got...)
}

func frameOf(v byte) []byte {
	f := make([]byte, 2*2*4)
	f[0] = v
	return f
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout")
	}
}

func TestBroadcasterLatestFrameWins(t *testing.T) {
	log, _ := test.NewNullLogger()
	enc := newGateEncoder()
	b := NewBroadcaster(enc, 2, 2, log)
	defer b.Close()

	viewer := newRecordSender(nil)
	b.Add("v1", viewer)

	b.Publish(frameOf(1))
	select {
	case v := <-enc.started:
		require.Equal(t, byte(1), v)
	case <-time.After(2 * time.Second):
		t.Fatal("worker never started encoding")
	}

	// Worker is busy with frame 1: frame 2 is replaced by frame 3.
	b.Publish(frameOf(2))
	b.Publish(frameOf(3))

	enc.release <- struct{}{}
	waitFor(t, viewer.sent)
	select {
	case v := <-enc.started:
		require.Equal(t, byte(3), v)
	case <-time.After(2 * time.Second):
		t.Fatal("worker never picked up the newest frame")
	}
	enc.release <- struct{}{}
	waitFor(t, viewer.sent)

	assert.Equal(t, []byte{1, 3}, viewer.frames())
	assert.Eventually(t, func() bool { return b.Stats().Sent == 2 }, 2*time.Second, 5*time.Millisecond)
	st := b.Stats()
	assert.Equal(t, uint64(3), st.Published)
	assert.Equal(t, uint64(1), st.Dropped)
	assert.Equal(t, uint64(2), st.Encoded)
	assert.Equal(t, 1, st.Viewers)
}

func TestBroadcasterSkipsWithoutViewers(t *testing.T) {
	log, _ := test.NewNullLogger()
	b := NewBroadcaster(newGateEncoder(), 2, 2, log)
	defer b.Close()

	b.Publish(frameOf(1))
	assert.Equal(t, Stats{}, b.Stats())
}

func TestBroadcasterClosedChannelsAreSkipped(t *testing.T) {
	log, _ := test.NewNullLogger()
	enc := newGateEncoder()
	enc.release <- struct{}{}
	b := NewBroadcaster(enc, 2, 2, log)
	defer b.Close()

	closed := newRecordSender(transport.ErrNotOpen)
	open := newRecordSender(nil)
	b.Add("closed", closed)
	b.Add("open", open)

	b.Publish(frameOf(7))
	waitFor(t, closed.sent)
	waitFor(t, open.sent)

	assert.Empty(t, closed.frames())
	assert.Equal(t, []byte{7}, open.frames())
	assert.Eventually(t, func() bool { return b.Stats().Sent == 1 }, 2*time.Second, 5*time.Millisecond)

	b.Remove("closed")
	assert.Equal(t, 1, b.Stats().Viewers)
}

func TestBroadcasterEncodeError(t *testing.T) {
	log, hook := test.NewNullLogger()
	b := NewBroadcaster(failEncoder{}, 2, 2, log)
	defer b.Close()

	viewer := newRecordSender(nil)
	b.Add("v", viewer)
	b.Publish(frameOf(1))

	assert.Eventually(t, func() bool { return b.Stats().EncodeErrors == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, viewer.frames())
	entry := hook.LastEntry()
	if assert.NotNil(t, entry) {
		assert.Equal(t, "preview encode failed", entry.Message)
	}
}

func TestBroadcasterCloseIsIdempotent(t *testing.T) {
	log, _ := test.NewNullLogger()
	b := NewBroadcaster(newGateEncoder(), 2, 2, log)
	b.Close()
	assert.NotPanics(t, b.Close)
}

type countPublisher struct{ frames [][]byte }

func (p *countPublisher) Publish(frame []byte) { p.frames = append(p.frames, frame) }

func TestTapPublishesProducedFrames(t *testing.T) {
	n := 0
	src := source.FrameSourceFunc(func() ([]byte, bool) {
		n++
		if n > 2 {
			return nil, false
		}
		return []byte{byte(n)}, true
	})
	pub := &countPublisher{}
	tapped := Tap(src, pub)

	for i := 1; i <= 2; i++ {
		frame, ok := tapped.NextFrame()
		require.True(t, ok)
		assert.Equal(t, []byte{byte(i)}, frame)
	}
	_, ok := tapped.NextFrame()
	assert.False(t, ok)
	assert.Equal(t, [][]byte{{1}, {2}}, pub.frames)
}

func TestServerRejectsBadOffer(t *testing.T) {
	log, _ := test.NewNullLogger()
	b := NewBroadcaster(newGateEncoder(), 2, 2, log)
	defer b.Close()
	srv := NewServer(b, log)
	hs := httptest.NewServer(srv.Handler())
	defer hs.Close()

	url := "ws" + strings.TrimPrefix(hs.URL, "http") + SignalPath
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var msg signaling.Message
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, signaling.TypeRegistered, msg.Type)

	require.NoError(t, conn.WriteJSON(signaling.Message{
		Type:    signaling.TypeOffer,
		Payload: []byte(`{"type":"offer","sdp":"garbage"}`),
	}))
	msg = signaling.Message{}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, signaling.TypeError, msg.Type)
	assert.Zero(t, srv.Viewers())
	assert.Zero(t, b.Stats().Viewers)
}
