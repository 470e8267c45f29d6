// internal/handler/websocket_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"printer-agent/internal/config"
	"printer-agent/internal/model"
	"printer-agent/internal/utils"
)

// WebSocketHandler streams agent events to connected clients. Each
// client may narrow the stream with subscribe messages; without any it
// receives everything.
type WebSocketHandler struct {
	upgrader    websocket.Upgrader
	connections *ConnectionManager
	eventBus    *EventBus
	config      *config.WebSocketConfig
	logger      *utils.ServiceLogger
}

// NewWebSocketHandler creates a new websocket handler and starts the
// event pump.
func NewWebSocketHandler(eventBus *EventBus, cfg *config.WebSocketConfig, logger *zap.Logger) *WebSocketHandler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// The control API binds to the local network only
			return true
		},
	}

	handler := &WebSocketHandler{
		upgrader:    upgrader,
		connections: NewConnectionManager(),
		eventBus:    eventBus,
		config:      cfg,
		logger:      utils.NewServiceLogger(logger, "websocket-handler"),
	}

	go handler.pumpEvents()

	return handler
}

// RegisterRoutes registers websocket routes
func (h *WebSocketHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ws", h.HandleEventConnection)
}

// HandleEventConnection upgrades the connection and starts the client
// pumps.
func (h *WebSocketHandler) HandleEventConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	client := &Client{
		ID:          uuid.New().String(),
		Connection:  conn,
		Send:        make(chan []byte, h.config.SendBufferSize),
		UserAgent:   c.Request.UserAgent(),
		RemoteAddr:  c.Request.RemoteAddr,
		ConnectedAt: time.Now(),
	}

	h.connections.Register(client)
	h.logger.Info("WebSocket client connected",
		zap.String("client_id", client.ID),
		zap.String("remote_addr", client.RemoteAddr),
	)

	go h.handleClientRead(client)
	go h.handleClientWrite(client)
}

// pumpEvents forwards bus events to matching clients
func (h *WebSocketHandler) pumpEvents() {
	events := h.eventBus.Subscribe("*")
	for event := range events {
		h.broadcastEvent(event)
	}
}

// broadcastEvent sends one agent event to every interested client
func (h *WebSocketHandler) broadcastEvent(event model.AgentEvent) {
	message := &WebSocketMessage{
		Type:      "event",
		Data:      event,
		Timestamp: time.Now(),
	}
	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal event", zap.Error(err))
		return
	}

	for _, client := range h.connections.Clients() {
		if !client.WantsEvent(string(event.EventType)) {
			continue
		}
		select {
		case client.Send <- messageBytes:
		default:
			h.logger.Warn("Client send channel full, dropping event",
				zap.String("client_id", client.ID),
			)
		}
	}
}

// handleClientRead reads subscription messages from the client
func (h *WebSocketHandler) handleClientRead(client *Client) {
	defer func() {
		h.connections.Unregister(client)
		client.Connection.Close()
	}()

	client.Connection.SetReadDeadline(time.Now().Add(h.config.PongTimeout))
	client.Connection.SetPongHandler(func(string) error {
		client.Connection.SetReadDeadline(time.Now().Add(h.config.PongTimeout))
		return nil
	})

	for {
		_, messageBytes, err := client.Connection.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket read error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
			}
			break
		}

		var message WebSocketMessage
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			h.logger.Error("Failed to parse WebSocket message",
				zap.Error(err),
				zap.String("client_id", client.ID),
			)
			continue
		}

		h.handleClientMessage(client, &message)
	}
}

// handleClientWrite writes queued messages and keepalive pings
func (h *WebSocketHandler) handleClientWrite(client *Client) {
	ticker := time.NewTicker(h.config.PingInterval)
	defer func() {
		ticker.Stop()
		client.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Connection.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if !ok {
				client.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Connection.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Error("WebSocket write error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
				return
			}

		case <-ticker.C:
			client.Connection.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := client.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleClientMessage handles incoming client messages
func (h *WebSocketHandler) handleClientMessage(client *Client, message *WebSocketMessage) {
	switch message.Type {
	case "subscribe":
		h.handleSubscription(client, message)
	case "unsubscribe":
		h.handleUnsubscription(client, message)
	case "ping":
		h.sendMessage(client, &WebSocketMessage{
			Type:      "pong",
			Timestamp: time.Now(),
		})
	default:
		h.logger.Warn("Unknown message type",
			zap.String("type", message.Type),
			zap.String("client_id", client.ID),
		)
	}
}

// handleSubscription narrows the client's event stream
func (h *WebSocketHandler) handleSubscription(client *Client, message *WebSocketMessage) {
	pattern, ok := messagePattern(message)
	if !ok {
		h.sendError(client, "subscribe requires an events pattern")
		return
	}

	client.Subscribe(pattern)
	h.logger.Info("Client subscribed",
		zap.String("client_id", client.ID),
		zap.String("pattern", pattern),
	)

	h.sendMessage(client, &WebSocketMessage{
		Type: "subscription_confirmed",
		Data: map[string]interface{}{
			"events": pattern,
		},
		Timestamp: time.Now(),
	})
}

// handleUnsubscription widens the client's event stream again
func (h *WebSocketHandler) handleUnsubscription(client *Client, message *WebSocketMessage) {
	pattern, ok := messagePattern(message)
	if !ok {
		return
	}

	client.Unsubscribe(pattern)
	h.logger.Info("Client unsubscribed",
		zap.String("client_id", client.ID),
		zap.String("pattern", pattern),
	)
}

// messagePattern extracts the event pattern from a subscribe message
func messagePattern(message *WebSocketMessage) (string, bool) {
	data, ok := message.Data.(map[string]interface{})
	if !ok {
		return "", false
	}
	pattern, ok := data["events"].(string)
	if !ok || pattern == "" {
		return "", false
	}
	return pattern, true
}

// sendMessage queues a message for one client
func (h *WebSocketHandler) sendMessage(client *Client, message *WebSocketMessage) {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal WebSocket message", zap.Error(err))
		return
	}

	select {
	case client.Send <- messageBytes:
	default:
		h.logger.Warn("Client send channel full, dropping message",
			zap.String("client_id", client.ID),
		)
	}
}

// sendError sends an error message to a client
func (h *WebSocketHandler) sendError(client *Client, errorMsg string) {
	h.sendMessage(client, &WebSocketMessage{
		Type: "error",
		Data: map[string]interface{}{
			"error": errorMsg,
		},
		Timestamp: time.Now(),
	})
}

// GetConnectionStats returns connection statistics
func (h *WebSocketHandler) GetConnectionStats() *ConnectionStats {
	return h.connections.GetStats()
}
