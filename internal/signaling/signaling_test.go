package signaling

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func TestOfferAnswerRoundTrip(t *testing.T) {
	log, _ := test.NewNullLogger()

	offers := make(chan string, 1)
	closed := make(chan string, 1)
	srv := NewServer(ServerHandler{
		OnOffer: func(s *Session, payload json.RawMessage) {
			offers <- s.ID()
			assert.NoError(t, s.SendAnswer(json.RawMessage(`{"sdp":"answer"}`)))
			assert.NoError(t, s.SendICECandidate(json.RawMessage(`{"candidate":"c1"}`)))
		},
		OnClose: func(s *Session) { closed <- s.ID() },
	}, log)
	hs := httptest.NewServer(srv)
	defer hs.Close()

	registered := make(chan string, 1)
	answers := make(chan string, 1)
	candidates := make(chan string, 1)
	var client *Client
	client = NewClient(wsURL(hs.URL), Handler{
		OnRegistered: func(id string) {
			registered <- id
			_ = client.SendOffer(json.RawMessage(`{"sdp":"offer"}`))
		},
		OnAnswer:       func(p json.RawMessage) { answers <- string(p) },
		OnICECandidate: func(p json.RawMessage) { candidates <- string(p) },
	}, log)
	require.NoError(t, client.Connect())

	var id string
	select {
	case id = <-registered:
		assert.NotEmpty(t, id)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for registration")
	}

	select {
	case got := <-offers:
		assert.Equal(t, id, got)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for offer")
	}
	select {
	case a := <-answers:
		assert.JSONEq(t, `{"sdp":"answer"}`, a)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for answer")
	}
	select {
	case c := <-candidates:
		assert.JSONEq(t, `{"candidate":"c1"}`, c)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for candidate")
	}
	assert.Equal(t, 1, srv.Sessions())

	client.Close()
	select {
	case got := <-closed:
		assert.Equal(t, id, got)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for session close")
	}
	assert.Eventually(t, func() bool { return srv.Sessions() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestServerAnswersPingAndRejectsUnknown(t *testing.T) {
	log, _ := test.NewNullLogger()
	hs := httptest.NewServer(NewServer(ServerHandler{}, log))
	defer hs.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(hs.URL), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, TypeRegistered, msg.Type)

	require.NoError(t, conn.WriteJSON(Message{Type: TypePing}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, TypePong, msg.Type)

	require.NoError(t, conn.WriteJSON(Message{Type: "list-hosts"}))
	msg = Message{}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, TypeError, msg.Type)
	assert.Contains(t, msg.Msg, "list-hosts")
}

func TestClientConnectFails(t *testing.T) {
	log, _ := test.NewNullLogger()
	c := NewClient("ws://127.0.0.1:1/signal", Handler{}, log)
	assert.Error(t, c.Connect())
	assert.Error(t, c.SendOffer(nil))
}
