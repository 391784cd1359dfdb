package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan []byte) MessagePayload {
	t.Helper()

	select {
	case data, ok := <-ch:
		require.True(t, ok, "send channel closed")
		var payload MessagePayload
		require.NoError(t, json.Unmarshal(data, &payload))
		return payload
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
		return MessagePayload{}
	}
}

func TestWebSocketManagerRegister(t *testing.T) {
	t.Parallel()

	m := NewWebSocketManager()
	defer m.Close()

	a := NewConnection(nil, "127.0.0.1:1")
	b := NewConnection(nil, "127.0.0.1:2")
	assert.NotEqual(t, a.ID, b.ID)

	m.RegisterConnection(a)
	m.RegisterConnection(b)
	assert.Equal(t, 2, m.ConnectionCount())

	m.UnregisterConnection(a.ID)
	assert.Equal(t, 1, m.ConnectionCount())
	_, open := <-a.Send
	assert.False(t, open)

	m.UnregisterConnection(a.ID)
	assert.Equal(t, 1, m.ConnectionCount())
}

func TestWebSocketManagerBroadcastExchange(t *testing.T) {
	t.Parallel()

	m := NewWebSocketManager()
	defer m.Close()

	a := NewConnection(nil, "a")
	b := NewConnection(nil, "b")
	m.RegisterConnection(a)
	m.RegisterConnection(b)

	m.BroadcastExchange(Exchange{UserID: "user-1", Message: "مرحبا", Response: "أهلاً", Intent: "greeting"})

	for _, conn := range []*WebSocketConnection{a, b} {
		payload := receive(t, conn.Send)
		assert.Equal(t, EventExchange, payload.Type)
		data, ok := payload.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "user-1", data["user_id"])
		assert.Equal(t, "greeting", data["intent"])
	}
}

func TestWebSocketManagerSendToConnection(t *testing.T) {
	t.Parallel()

	m := NewWebSocketManager()
	defer m.Close()

	assert.ErrorIs(t, m.SendToConnection("missing", []byte("x")), ErrConnectionNotFound)

	conn := &WebSocketConnection{ID: "c1", Send: make(chan []byte, 1)}
	m.RegisterConnection(conn)

	require.NoError(t, m.SendToConnection("c1", []byte("one")))
	assert.ErrorIs(t, m.SendToConnection("c1", []byte("two")), ErrConnectionBufferFull)
	assert.Equal(t, []byte("one"), <-conn.Send)
}

func TestWebSocketManagerClose(t *testing.T) {
	t.Parallel()

	m := NewWebSocketManager()
	conn := NewConnection(nil, "a")
	m.RegisterConnection(conn)

	m.Close()
	m.Close()

	assert.Equal(t, 0, m.ConnectionCount())
	_, open := <-conn.Send
	assert.False(t, open)

	// no panic after close
	m.BroadcastExchange(Exchange{UserID: "late"})
}
