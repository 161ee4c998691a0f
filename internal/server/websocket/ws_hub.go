package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tekiplanet/payflow/internal/domain"
	"github.com/tekiplanet/payflow/internal/domain/models"
)

type WsHub struct {
	Clients    map[string]map[*websocket.Conn]bool
	Broadcast  chan models.StatusUpdate
	Register   chan *WsClient
	Unregister chan *WsClient
	Logger     zerolog.Logger
}

type WsClient struct {
	UserID string
	Conn   *websocket.Conn
}

func NewWsHub(logger zerolog.Logger) *WsHub {
	hub := &WsHub{
		Clients:    make(map[string]map[*websocket.Conn]bool),
		Broadcast:  make(chan models.StatusUpdate, 100),
		Register:   make(chan *WsClient, 100),
		Unregister: make(chan *WsClient, 100),
		Logger:     logger,
	}
	return hub
}

func (h *WsHub) Run() {
	for {
		select {
		case client := <-h.Register:
			if h.Clients[client.UserID] == nil {
				h.Clients[client.UserID] = make(map[*websocket.Conn]bool)
			}
			h.Clients[client.UserID][client.Conn] = true
			h.Logger.Info().
				Str("user_id", client.UserID).
				Int("connection_count", len(h.Clients[client.UserID])).
				Msg("WebSocket client registered successfully")

		case client := <-h.Unregister:
			if clients, ok := h.Clients[client.UserID]; ok {
				delete(clients, client.Conn)
				h.Logger.Info().
					Str("user_id", client.UserID).
					Int("connection_count", len(clients)).
					Msg("WebSocket client unregistered")
				if len(clients) == 0 {
					delete(h.Clients, client.UserID)
				}
				client.Conn.Close()
			}

		case message := <-h.Broadcast:
			h.deliver(message)
		}
	}
}

func (h *WsHub) deliver(message models.StatusUpdate) {
	h.Logger.Info().
		Str("user_id", message.UserID).
		Str("session_id", message.SessionID).
		Str("type", message.Type).
		Msg("Broadcasting status update")

	if message.UserID == "" {
		// Updates without an owner go to every connected client.
		for userID, clients := range h.Clients {
			h.writeAll(userID, clients, message)
		}
		return
	}

	clients, ok := h.Clients[message.UserID]
	if !ok {
		h.Logger.Warn().
			Str("user_id", message.UserID).
			Str("type", message.Type).
			Msg("No clients found for broadcast")
		return
	}
	h.writeAll(message.UserID, clients, message)
}

func (h *WsHub) writeAll(userID string, clients map[*websocket.Conn]bool, message models.StatusUpdate) {
	for conn := range clients {
		if err := conn.WriteJSON(message); err != nil {
			h.Logger.Err(err).
				Str("user_id", userID).
				Str("type", message.Type).
				Msg("Failed to send WebSocket message")
			conn.Close()
			delete(clients, conn)
		}
	}
	if len(clients) == 0 {
		delete(h.Clients, userID)
	}
}

func (h *WsHub) NotifyBalance(balance domain.Balance) {
	h.Broadcast <- models.StatusUpdate{
		Type:      "balance",
		UserID:    balance.OwnerID,
		Payload:   &balance,
		Timestamp: time.Now(),
	}
}

func (h *WsHub) NotifyObligation(userID string, obligation domain.Obligation) {
	h.Broadcast <- models.StatusUpdate{
		Type:      "obligation",
		UserID:    userID,
		Status:    string(obligation.Status),
		Payload:   &obligation,
		Timestamp: time.Now(),
	}
}

func (h *WsHub) NotifySession(session domain.WorkflowSession, status, message string) {
	h.Broadcast <- models.StatusUpdate{
		Type:      "session",
		SessionID: session.SessionID,
		UserID:    session.UserID,
		Status:    status,
		Message:   message,
		Payload:   &session,
		Timestamp: time.Now(),
	}
}
