package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/skillswap/skillswap/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

// client wraps one gorilla connection with a buffered outbound queue so
// a slow reader on the far side never blocks the hub.
type client struct {
	id     string
	socket *websocket.Conn
	send   chan models.SocketEvent

	mu     sync.Mutex
	closed bool
}

func newClient(id string, socket *websocket.Conn) *client {
	return &client{
		id:     id,
		socket: socket,
		send:   make(chan models.SocketEvent, sendBuffer),
	}
}

func (c *client) ID() string { return c.id }

// Send queues an event for delivery. It returns false when the client is
// closed or its buffer is full; the event is dropped rather than
// blocking the caller.
func (c *client) Send(event models.SocketEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- event:
		return true
	default:
		return false
	}
}

func (c *client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.socket.Close()
}

// writePump drains the send queue onto the socket and keeps the
// connection alive with pings. It exits when the queue closes or a
// write fails.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.socket.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop decodes inbound envelopes and hands them to dispatch until
// the connection drops or the envelope is unparseable.
func (c *client) readLoop(dispatch func(models.SocketEvent)) {
	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var event models.SocketEvent
		if err := c.socket.ReadJSON(&event); err != nil {
			return
		}
		dispatch(event)
	}
}
