package ws

import (
	"context"
	"sync"

	log "github.com/carousell/ct-go/pkg/logger/log_context"

	"github.com/skillswap/skillswap/internal/models"
)

// Conn is the transport side of one websocket session. The gorilla
// client implements it; tests use in-memory fakes.
type Conn interface {
	ID() string
	Send(event models.SocketEvent) bool
	Close()
}

// Hub tracks live connections and routes events to them. It implements
// the fan-out the chat use case needs without knowing anything about
// chats: routing is by user id via the presence table, or by raw
// connection id.
type Hub struct {
	table *Table

	mu    sync.RWMutex
	conns map[string]Conn
}

func NewHub(table *Table) *Hub {
	return &Hub{
		table: table,
		conns: make(map[string]Conn),
	}
}

func (h *Hub) Register(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn.ID()] = conn
}

// Unregister drops a connection and releases its presence binding. It
// reports the user id when this was the user's live connection, so the
// caller can announce the user going offline.
func (h *Hub) Unregister(connID string) (userID string, wentOffline bool) {
	h.mu.Lock()
	delete(h.conns, connID)
	h.mu.Unlock()
	return h.table.Dissociate(connID)
}

// Associate binds a connection to an authenticated user. A previous
// connection of the same user is closed and dropped; the reconnect wins.
func (h *Hub) Associate(ctx context.Context, userID, connID string) {
	prev, replaced := h.table.Associate(userID, connID)
	if !replaced {
		return
	}

	h.mu.Lock()
	prevConn := h.conns[prev]
	delete(h.conns, prev)
	h.mu.Unlock()

	if prevConn != nil {
		log.Infow(ctx, "closing superseded connection",
			"user_id", userID, "conn_id", prev)
		prevConn.Close()
	}
}

// SendToUser delivers one event to the user's live connection. A failed
// or missing delivery returns false; the caller decides whether that
// matters.
func (h *Hub) SendToUser(userID string, event models.SocketEvent) bool {
	connID, ok := h.table.ConnectionFor(userID)
	if !ok {
		return false
	}
	return h.SendToConn(connID, event)
}

func (h *Hub) SendToConn(connID string, event models.SocketEvent) bool {
	h.mu.RLock()
	conn, ok := h.conns[connID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	return conn.Send(event)
}

// Broadcast sends an event to every connection except the excluded one.
// Connections with a saturated send buffer just miss the event; slow
// consumers never block the hub.
func (h *Hub) Broadcast(event models.SocketEvent, exceptConnID string) {
	h.mu.RLock()
	targets := make([]Conn, 0, len(h.conns))
	for id, conn := range h.conns {
		if id == exceptConnID {
			continue
		}
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	for _, conn := range targets {
		conn.Send(event)
	}
}
