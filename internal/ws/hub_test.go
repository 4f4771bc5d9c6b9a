package ws

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillswap/skillswap/internal/models"
)

type fakeConn struct {
	id     string
	events []models.SocketEvent
	closed bool
	full   bool
}

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Send(event models.SocketEvent) bool {
	if f.full {
		return false
	}
	f.events = append(f.events, event)
	return true
}

func (f *fakeConn) Close() { f.closed = true }

func newTestHub() (*Hub, *Table) {
	table := NewTable()
	return NewHub(table), table
}

func TestHubSendToUser(t *testing.T) {
	hub, _ := newTestHub()
	conn := &fakeConn{id: "conn-a"}
	hub.Register(conn)
	hub.Associate(context.Background(), "user-1", "conn-a")

	ok := hub.SendToUser("user-1", models.NewSocketEvent(models.EventUserOnline, nil))
	require.True(t, ok)
	require.Len(t, conn.events, 1)
	assert.Equal(t, models.EventUserOnline, conn.events[0].Name)

	assert.False(t, hub.SendToUser("user-2", models.NewSocketEvent(models.EventUserOnline, nil)))
}

func TestHubSendToConn(t *testing.T) {
	hub, _ := newTestHub()
	conn := &fakeConn{id: "conn-a"}
	hub.Register(conn)

	assert.True(t, hub.SendToConn("conn-a", models.NewSocketEvent(models.EventError, nil)))
	assert.False(t, hub.SendToConn("conn-b", models.NewSocketEvent(models.EventError, nil)))
}

func TestHubAssociateClosesSupersededConnection(t *testing.T) {
	hub, _ := newTestHub()
	old := &fakeConn{id: "conn-a"}
	fresh := &fakeConn{id: "conn-b"}
	hub.Register(old)
	hub.Register(fresh)

	ctx := context.Background()
	hub.Associate(ctx, "user-1", "conn-a")
	hub.Associate(ctx, "user-1", "conn-b")

	assert.True(t, old.closed)
	assert.False(t, fresh.closed)

	// traffic lands on the fresh connection only
	hub.SendToUser("user-1", models.NewSocketEvent(models.EventUserOnline, nil))
	assert.Empty(t, old.events)
	assert.Len(t, fresh.events, 1)
}

func TestHubUnregisterReportsOffline(t *testing.T) {
	hub, _ := newTestHub()
	conn := &fakeConn{id: "conn-a"}
	hub.Register(conn)
	hub.Associate(context.Background(), "user-1", "conn-a")

	userID, wentOffline := hub.Unregister("conn-a")
	require.True(t, wentOffline)
	assert.Equal(t, "user-1", userID)

	// an unauthenticated connection going away is not a presence change
	anon := &fakeConn{id: "conn-b"}
	hub.Register(anon)
	_, wentOffline = hub.Unregister("conn-b")
	assert.False(t, wentOffline)
}

func TestHubBroadcastExcludesOrigin(t *testing.T) {
	hub, _ := newTestHub()
	a := &fakeConn{id: "conn-a"}
	b := &fakeConn{id: "conn-b"}
	c := &fakeConn{id: "conn-c"}
	hub.Register(a)
	hub.Register(b)
	hub.Register(c)

	hub.Broadcast(models.NewSocketEvent(models.EventUserOnline, nil), "conn-a")

	assert.Empty(t, a.events)
	assert.Len(t, b.events, 1)
	assert.Len(t, c.events, 1)
}

func TestHubSendToSaturatedConn(t *testing.T) {
	hub, _ := newTestHub()
	conn := &fakeConn{id: "conn-a", full: true}
	hub.Register(conn)
	hub.Associate(context.Background(), "user-1", "conn-a")

	assert.False(t, hub.SendToUser("user-1", models.NewSocketEvent(models.EventUserOnline, nil)))
}
