package signaling

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Handler callbacks for signaling messages arriving from the host.
type Handler struct {
	OnRegistered   func(id string)
	OnAnswer       func(payload json.RawMessage)
	OnICECandidate func(payload json.RawMessage)
	OnError        func(msg string)
	OnClose        func()
}

// Client is the viewer side of the signaling exchange.
type Client struct {
	url     string
	handler Handler
	log     logrus.FieldLogger

	conn   *websocket.Conn
	mu     sync.Mutex
	done   chan struct{}
	closed bool
}

// NewClient creates a signaling client for the host at url.
func NewClient(url string, handler Handler, log logrus.FieldLogger) *Client {
	return &Client{
		url:     url,
		handler: handler,
		log:     log,
		done:    make(chan struct{}),
	}
}

// Connect dials the host and starts reading messages.
func (c *Client) Connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("signaling dial: %w", err)
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop()
	go c.pingLoop()
	return nil
}

// Close shuts down the connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	if c.conn != nil {
		c.conn.Close()
	}
}

// SendOffer sends an SDP offer to the host.
func (c *Client) SendOffer(payload json.RawMessage) error {
	return c.send(Message{Type: TypeOffer, Payload: payload})
}

// SendICECandidate sends a local ICE candidate to the host.
func (c *Client) SendICECandidate(payload json.RawMessage) error {
	return c.send(Message{Type: TypeICECandidate, Payload: payload})
}

func (c *Client) send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.closed {
		return fmt.Errorf("not connected")
	}
	return c.conn.WriteJSON(msg)
}

func (c *Client) readLoop() {
	defer func() {
		c.Close()
		if c.handler.OnClose != nil {
			c.handler.OnClose()
		}
	}()
	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			select {
			case <-c.done:
			default:
				c.log.WithError(err).Warn("signaling read error")
			}
			return
		}
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg Message) {
	switch msg.Type {
	case TypeRegistered:
		if c.handler.OnRegistered != nil {
			c.handler.OnRegistered(msg.ID)
		}
	case TypeAnswer:
		if c.handler.OnAnswer != nil {
			c.handler.OnAnswer(msg.Payload)
		}
	case TypeICECandidate:
		if c.handler.OnICECandidate != nil {
			c.handler.OnICECandidate(msg.Payload)
		}
	case TypeError:
		if c.handler.OnError != nil {
			c.handler.OnError(msg.Msg)
		}
	case TypePong:
		// heartbeat response, nothing to do
	}
}

func (c *Client) pingLoop() {
	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			_ = c.send(Message{Type: TypePing})
		}
	}
}
