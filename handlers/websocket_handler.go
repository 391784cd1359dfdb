package handlers

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"bww-support-bot/chatbot"
	"bww-support-bot/services"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
	wsMaxMessage = 64 * 1024
)

// WebSocketMessage represents an incoming WebSocket message
type WebSocketMessage struct {
	Type   string `json:"type"`
	UserID string `json:"user_id,omitempty"`
}

// WebSocketHandler serves the dashboard live feed
type WebSocketHandler struct {
	manager *services.WebSocketManager
	engine  *chatbot.Engine
}

// NewWebSocketHandler creates a live feed handler
func NewWebSocketHandler(manager *services.WebSocketManager, engine *chatbot.Engine) *WebSocketHandler {
	return &WebSocketHandler{manager: manager, engine: engine}
}

// Upgrade rejects requests that are not WebSocket upgrades
func (h *WebSocketHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		c.Locals("allowed", true)
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handle serves one dashboard connection until it closes
func (h *WebSocketHandler) Handle(c *websocket.Conn) {
	conn := services.NewConnection(c, c.RemoteAddr().String())

	h.manager.RegisterConnection(conn)
	defer h.manager.UnregisterConnection(conn.ID)

	h.reply(conn, map[string]interface{}{
		"type":          services.EventConnected,
		"message":       "WebSocket connection established",
		"connection_id": conn.ID,
	})

	go h.writePump(conn)
	h.readPump(conn)
}

// writePump drains the send channel and keeps the connection alive
func (h *WebSocketHandler) writePump(conn *services.WebSocketConnection) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		conn.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.Conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				conn.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				slog.Error("Failed to write WebSocket message", "connectionID", conn.ID, "error", err)
				return
			}

		case <-ticker.C:
			conn.Conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump handles client requests until the connection fails
func (h *WebSocketHandler) readPump(conn *services.WebSocketConnection) {
	conn.Conn.SetReadLimit(wsMaxMessage)
	conn.Conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.Conn.SetPongHandler(func(string) error {
		conn.Conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		_, messageBytes, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket read error", "connectionID", conn.ID, "error", err)
			}
			return
		}

		conn.Conn.SetReadDeadline(time.Now().Add(wsPongWait))

		var msg WebSocketMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			h.reply(conn, map[string]interface{}{"type": "error", "error": "Invalid message"})
			continue
		}

		h.reply(conn, h.dispatch(msg))
	}
}

// dispatch builds the response to a client request
func (h *WebSocketHandler) dispatch(msg WebSocketMessage) map[string]interface{} {
	switch msg.Type {
	case "ping":
		return map[string]interface{}{"type": "pong"}

	case "history":
		if msg.UserID == "" {
			return map[string]interface{}{"type": "error", "error": "user_id is required"}
		}
		return map[string]interface{}{
			"type":    "history",
			"user_id": msg.UserID,
			"history": h.engine.History(msg.UserID),
		}

	default:
		slog.Warn("Unknown WebSocket message type", "type", msg.Type)
		return map[string]interface{}{"type": "error", "error": "Unknown message type"}
	}
}

func (h *WebSocketHandler) reply(conn *services.WebSocketConnection, payload map[string]interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal WebSocket reply", "error", err)
		return
	}
	if err := h.manager.SendToConnection(conn.ID, data); err != nil {
		slog.Warn("Failed to queue WebSocket reply", "connectionID", conn.ID, "error", err)
	}
}
