package handlers

import (
	"net/http"

	"github.com/CrowderSoup/priority-pilot/services"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler streams notifications to signed-in clients
type WebSocketHandler struct {
	hub      *services.Hub
	upgrader websocket.Upgrader
}

func NewWebSocketHandler(hub *services.Hub, checkOrigin func(r *http.Request) bool) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
	}
}

// Handle upgrades the HTTP connection to a WebSocket connection
func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	user := services.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "user not found")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Error upgrading to WebSocket")
		return
	}

	client := &services.Client{
		Hub:    h.hub,
		Conn:   conn,
		Send:   make(chan []byte, 256),
		UserID: user.ID,
	}
	h.hub.Register(client)
	log.Debug().Str("user", user.ID).Msg("WebSocket client registered")

	go client.WritePump()
	go client.ReadPump()
}
