package services

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// WebSocket errors
var (
	ErrConnectionNotFound   = errors.New("connection not found")
	ErrConnectionBufferFull = errors.New("connection buffer full")
)

// Event types pushed to dashboard connections
const (
	EventConnected = "connected"
	EventExchange  = "exchange"
)

const (
	sendBufferSize      = 256
	broadcastBufferSize = 100
)

// WebSocketManager fans exchange events out to dashboard connections
type WebSocketManager struct {
	connections map[string]*WebSocketConnection
	mu          sync.RWMutex
	broadcast   chan MessagePayload
	done        chan struct{}
	closeOnce   sync.Once
}

// WebSocketConnection represents a single WebSocket connection
type WebSocketConnection struct {
	ID         string
	Conn       *websocket.Conn
	RemoteAddr string
	Send       chan []byte
}

// MessagePayload represents the structure of WebSocket messages
type MessagePayload struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// NewWebSocketManager creates a manager and starts its broadcast loop
func NewWebSocketManager() *WebSocketManager {
	m := &WebSocketManager{
		connections: make(map[string]*WebSocketConnection),
		broadcast:   make(chan MessagePayload, broadcastBufferSize),
		done:        make(chan struct{}),
	}
	go m.handleBroadcast()
	return m
}

// NewConnection allocates a connection with a fresh ID. It is not
// registered yet.
func NewConnection(conn *websocket.Conn, remoteAddr string) *WebSocketConnection {
	return &WebSocketConnection{
		ID:         uuid.NewString(),
		Conn:       conn,
		RemoteAddr: remoteAddr,
		Send:       make(chan []byte, sendBufferSize),
	}
}

// RegisterConnection registers a new WebSocket connection
func (m *WebSocketManager) RegisterConnection(conn *WebSocketConnection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.connections[conn.ID] = conn

	slog.Info("WebSocket connection registered",
		"connectionID", conn.ID,
		"remoteAddr", conn.RemoteAddr,
		"totalConnections", len(m.connections))
}

// UnregisterConnection removes a WebSocket connection and closes its send
// channel. Unknown IDs are ignored.
func (m *WebSocketManager) UnregisterConnection(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, exists := m.connections[id]
	if !exists {
		return
	}
	close(conn.Send)
	delete(m.connections, id)

	slog.Info("WebSocket connection unregistered",
		"connectionID", id,
		"remainingConnections", len(m.connections))
}

// BroadcastExchange queues an exchange event for every connection. The
// event is dropped when the queue is full or the manager is closed.
func (m *WebSocketManager) BroadcastExchange(ex Exchange) {
	m.Broadcast(EventExchange, ex)
}

// Broadcast queues an arbitrary event for every connection
func (m *WebSocketManager) Broadcast(eventType string, data interface{}) {
	payload := MessagePayload{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}

	select {
	case <-m.done:
		return
	default:
	}

	select {
	case m.broadcast <- payload:
	default:
		slog.Warn("WebSocket broadcast queue full, dropping event", "type", eventType)
	}
}

// handleBroadcast processes broadcast messages
func (m *WebSocketManager) handleBroadcast() {
	for {
		select {
		case <-m.done:
			return
		case payload := <-m.broadcast:
			jsonData, err := json.Marshal(payload)
			if err != nil {
				slog.Error("Failed to marshal WebSocket message", "error", err)
				continue
			}

			m.mu.RLock()
			for _, conn := range m.connections {
				select {
				case conn.Send <- jsonData:
				default:
					slog.Warn("WebSocket connection buffer full",
						"connectionID", conn.ID)
				}
			}
			m.mu.RUnlock()
		}
	}
}

// SendToConnection sends a message to a specific connection
func (m *WebSocketManager) SendToConnection(id string, data []byte) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conn, exists := m.connections[id]
	if !exists {
		return ErrConnectionNotFound
	}

	select {
	case conn.Send <- data:
		return nil
	default:
		return ErrConnectionBufferFull
	}
}

// ConnectionCount returns the number of active connections
func (m *WebSocketManager) ConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

// Close stops the broadcast loop and closes every connection's send channel
func (m *WebSocketManager) Close() {
	m.closeOnce.Do(func() {
		close(m.done)

		m.mu.Lock()
		defer m.mu.Unlock()
		for id, conn := range m.connections {
			close(conn.Send)
			delete(m.connections, id)
		}
	})
}
