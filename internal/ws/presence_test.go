package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableAssociateAndResolve(t *testing.T) {
	table := NewTable()

	_, replaced := table.Associate("user-1", "conn-a")
	assert.False(t, replaced)

	userID, ok := table.Resolve("conn-a")
	require.True(t, ok)
	assert.Equal(t, "user-1", userID)

	connID, ok := table.ConnectionFor("user-1")
	require.True(t, ok)
	assert.Equal(t, "conn-a", connID)
}

func TestTableReconnectReplacesConnection(t *testing.T) {
	table := NewTable()

	table.Associate("user-1", "conn-a")
	prev, replaced := table.Associate("user-1", "conn-b")
	require.True(t, replaced)
	assert.Equal(t, "conn-a", prev)

	// the old connection no longer resolves
	_, ok := table.Resolve("conn-a")
	assert.False(t, ok)

	connID, ok := table.ConnectionFor("user-1")
	require.True(t, ok)
	assert.Equal(t, "conn-b", connID)
}

func TestTableStaleDisconnectKeepsUserOnline(t *testing.T) {
	table := NewTable()

	table.Associate("user-1", "conn-a")
	table.Associate("user-1", "conn-b")

	// conn-a was already replaced; its teardown must not flip the user
	// offline
	_, wentOffline := table.Dissociate("conn-a")
	assert.False(t, wentOffline)

	_, ok := table.ConnectionFor("user-1")
	assert.True(t, ok)

	userID, wentOffline := table.Dissociate("conn-b")
	require.True(t, wentOffline)
	assert.Equal(t, "user-1", userID)

	_, ok = table.ConnectionFor("user-1")
	assert.False(t, ok)
}

func TestTableOnlineUsers(t *testing.T) {
	table := NewTable()
	table.Associate("user-1", "conn-a")
	table.Associate("user-2", "conn-b")

	assert.ElementsMatch(t, []string{"user-1", "user-2"}, table.OnlineUsers())

	table.Dissociate("conn-a")
	assert.ElementsMatch(t, []string{"user-2"}, table.OnlineUsers())
}

func TestTableDissociateUnknownConn(t *testing.T) {
	table := NewTable()
	_, wentOffline := table.Dissociate("never-registered")
	assert.False(t, wentOffline)
}
