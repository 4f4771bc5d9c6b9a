// Package chatclient is a Go client for the skillswap realtime API. It
// speaks the websocket protocol with a REST fallback, reconnects with
// bounded backoff, and deduplicates deliveries after reconnects using
// the client_key the server echoes back.
package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Event is the wire envelope of the realtime channel.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Message is a stored chat message as the server returns it.
type Message struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	Type      string    `json:"message_type"`
	ClientKey string    `json:"client_key,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

// Delivery is a message together with the chat it arrived on.
type Delivery struct {
	Message
	ChatID string `json:"chat_id"`
}

type Config struct {
	// BaseURL is the http(s) root of the API, e.g. http://localhost:8080.
	BaseURL string
	// Token is the JWT presented on the socket handshake and REST calls.
	Token string

	MaxReconnectAttempts int
	BackoffBase          time.Duration
	SendTimeout          time.Duration
	HTTPClient           *http.Client
}

func (c *Config) withDefaults() {
	if c.MaxReconnectAttempts == 0 {
		c.MaxReconnectAttempts = 5
	}
	if c.BackoffBase == 0 {
		c.BackoffBase = 200 * time.Millisecond
	}
	if c.SendTimeout == 0 {
		c.SendTimeout = 5 * time.Second
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
}

// MessageHandler receives every chat message delivered to this client,
// already deduplicated across reconnects.
type MessageHandler func(Delivery)

type Client struct {
	conf    Config
	onMsg   MessageHandler
	onEvent func(Event)

	mu        sync.Mutex
	socket    *websocket.Conn
	connected bool
	closed    bool
	pending   map[string]chan Delivery // client_key -> ack waiter
	seen      map[string]struct{}      // delivered message ids
}

func New(conf Config) *Client {
	conf.withDefaults()
	return &Client{
		conf:    conf,
		pending: make(map[string]chan Delivery),
		seen:    make(map[string]struct{}),
	}
}

// OnMessage registers the delivery callback. Must be called before
// Connect.
func (c *Client) OnMessage(h MessageHandler) {
	c.onMsg = h
}

// OnEvent registers a raw event callback for presence and typing
// events. Must be called before Connect.
func (c *Client) OnEvent(h func(Event)) {
	c.onEvent = h
}

// Connect dials the socket, authenticates, and starts the read loop.
// The loop reconnects on its own until MaxReconnectAttempts consecutive
// failures, then the client stays in REST-only mode.
func (c *Client) Connect(ctx context.Context) error {
	socket, err := c.dial(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.socket = socket
	c.connected = true
	c.mu.Unlock()

	go c.readLoop(socket)
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.connected = false
	if c.socket != nil {
		return c.socket.Close()
	}
	return nil
}

// SendMessage delivers one message and returns the authoritative stored
// copy. The socket path waits for the server's message_sent echo keyed
// by a fresh client key; when the echo does not arrive in time or the
// socket is down, the same key is retried over REST, so the message is
// stored exactly once either way.
func (c *Client) SendMessage(ctx context.Context, chatID, content string) (*Message, error) {
	clientKey := uuid.NewString()

	if msg, err := c.sendViaSocket(ctx, chatID, content, clientKey); err == nil {
		return msg, nil
	}
	return c.sendViaREST(ctx, chatID, content, clientKey)
}

func (c *Client) sendViaSocket(ctx context.Context, chatID, content, clientKey string) (*Message, error) {
	c.mu.Lock()
	if !c.connected || c.socket == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("socket not connected")
	}
	socket := c.socket
	ack := make(chan Delivery, 1)
	c.pending[clientKey] = ack
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, clientKey)
		c.mu.Unlock()
	}()

	payload, _ := json.Marshal(map[string]string{
		"chat_id":    chatID,
		"content":    content,
		"client_key": clientKey,
	})
	if err := socket.WriteJSON(Event{Name: "send_message", Data: payload}); err != nil {
		return nil, fmt.Errorf("write send_message: %w", err)
	}

	timer := time.NewTimer(c.conf.SendTimeout)
	defer timer.Stop()
	select {
	case d := <-ack:
		c.markSeen(d.ID)
		return &d.Message, nil
	case <-timer.C:
		return nil, fmt.Errorf("timed out waiting for message_sent")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) sendViaREST(ctx context.Context, chatID, content, clientKey string) (*Message, error) {
	body, err := json.Marshal(map[string]string{
		"content":    content,
		"client_key": clientKey,
	})
	if err != nil {
		return nil, err
	}

	endpoint := strings.TrimSuffix(c.conf.BaseURL, "/") + "/api/chats/" + chatID + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.conf.Token)

	resp, err := c.conf.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send message over rest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("send message over rest: status %d", resp.StatusCode)
	}

	var message Message
	if err := json.NewDecoder(resp.Body).Decode(&message); err != nil {
		return nil, fmt.Errorf("decode rest response: %w", err)
	}
	c.markSeen(message.ID)
	return &message, nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	wsURL, err := socketURL(c.conf.BaseURL)
	if err != nil {
		return nil, err
	}

	socket, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}

	payload, _ := json.Marshal(map[string]string{"token": c.conf.Token})
	if err := socket.WriteJSON(Event{Name: "authenticate", Data: payload}); err != nil {
		socket.Close()
		return nil, fmt.Errorf("write authenticate: %w", err)
	}

	var reply Event
	if err := socket.ReadJSON(&reply); err != nil {
		socket.Close()
		return nil, fmt.Errorf("read handshake reply: %w", err)
	}
	if reply.Name != "authenticated" {
		socket.Close()
		var errPayload struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(reply.Data, &errPayload)
		return nil, fmt.Errorf("authentication rejected: %s", errPayload.Message)
	}

	return socket, nil
}

func (c *Client) readLoop(socket *websocket.Conn) {
	for {
		var event Event
		if err := socket.ReadJSON(&event); err != nil {
			c.mu.Lock()
			closed := c.closed
			c.connected = false
			c.mu.Unlock()
			if closed {
				return
			}
			c.reconnect()
			return
		}
		c.handleEvent(event)
	}
}

func (c *Client) handleEvent(event Event) {
	switch event.Name {
	case "message_sent":
		var delivery Delivery
		if err := json.Unmarshal(event.Data, &delivery); err != nil {
			return
		}
		c.mu.Lock()
		ack, ok := c.pending[delivery.ClientKey]
		c.mu.Unlock()
		if ok {
			ack <- delivery
		}
		// a late echo after the REST fallback already returned is
		// dropped here: no waiter, nothing to do

	case "message_received":
		var delivery Delivery
		if err := json.Unmarshal(event.Data, &delivery); err != nil {
			return
		}
		if c.alreadySeen(delivery.ID) {
			return
		}
		if c.onMsg != nil {
			c.onMsg(delivery)
		}

	default:
		if c.onEvent != nil {
			c.onEvent(event)
		}
	}
}

// reconnect re-dials with exponential backoff. After the attempt budget
// is spent the client gives up on realtime; SendMessage keeps working
// over REST.
func (c *Client) reconnect() {
	for attempt := 0; attempt < c.conf.MaxReconnectAttempts; attempt++ {
		time.Sleep(c.conf.BackoffBase * (1 << attempt))

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		socket, err := c.dial(ctx)
		cancel()
		if err != nil {
			continue
		}

		c.mu.Lock()
		c.socket = socket
		c.connected = true
		c.mu.Unlock()

		go c.readLoop(socket)
		return
	}
}

func (c *Client) markSeen(messageID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen[messageID] = struct{}{}
}

func (c *Client) alreadySeen(messageID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.seen[messageID]; ok {
		return true
	}
	c.seen[messageID] = struct{}{}
	return false
}

func socketURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String(), nil
}
