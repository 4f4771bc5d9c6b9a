package ws

import "sync"

// Table maps authenticated users to their single live connection.
// Aggregate presence follows from membership: a user is online exactly
// while an entry exists here.
type Table struct {
	mu    sync.RWMutex
	users map[string]string // user id -> conn id
	conns map[string]string // conn id -> user id
}

func NewTable() *Table {
	return &Table{
		users: make(map[string]string),
		conns: make(map[string]string),
	}
}

// Associate binds a connection to a user. When the user already holds a
// different connection, that previous connection id is returned so the
// caller can terminate it; only one connection per user stays live.
func (t *Table) Associate(userID, connID string) (prevConnID string, replaced bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.users[userID]; ok && prev != connID {
		delete(t.conns, prev)
		prevConnID, replaced = prev, true
	}
	t.users[userID] = connID
	t.conns[connID] = userID
	return prevConnID, replaced
}

// Dissociate removes a connection's binding. It reports the user that
// went offline, but only when this connection was still the user's
// current one; a stale connection replaced by a reconnect does not flip
// the user offline.
func (t *Table) Dissociate(connID string) (userID string, wentOffline bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	userID, ok := t.conns[connID]
	if !ok {
		return "", false
	}
	delete(t.conns, connID)
	if t.users[userID] == connID {
		delete(t.users, userID)
		return userID, true
	}
	return "", false
}

// Resolve returns the user bound to a connection, if any.
func (t *Table) Resolve(connID string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	userID, ok := t.conns[connID]
	return userID, ok
}

// ConnectionFor returns the live connection of a user, if any.
func (t *Table) ConnectionFor(userID string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	connID, ok := t.users[userID]
	return connID, ok
}

// OnlineUsers snapshots the ids of all currently bound users.
func (t *Table) OnlineUsers() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]string, 0, len(t.users))
	for id := range t.users {
		ids = append(ids, id)
	}
	return ids
}
