package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4 * 1024
)

// Client represents a connected WebSocket client
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
	UserID string
}

// WebSocketMessage is the standard message format for WebSocket communication
type WebSocketMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// ReadPump keeps the read side alive so pongs and close frames are seen.
// Clients only receive notifications, anything they send is discarded.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("user", c.UserID).Msg("WebSocket error")
			}
			return
		}
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type delivery struct {
	// userID receives message; everyone else gets othersMessage when set.
	userID        string
	message       []byte
	othersMessage []byte
}

// Hub maintains the set of active clients and routes notifications to them.
// It implements Notifier.
type Hub struct {
	clients    map[*Client]bool
	deliver    chan delivery
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

// NewHub creates a new hub instance
func NewHub() *Hub {
	return &Hub{
		deliver:    make(chan delivery, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		done:       make(chan struct{}),
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Notify sends n to the acting user's connections and tells every other
// connection that tasks changed. Notifications without a user go to all.
// It never blocks; when the hub is backed up the notification is dropped.
func (h *Hub) Notify(_ context.Context, n Notification) {
	message, err := json.Marshal(WebSocketMessage{Type: "notification", Data: n})
	if err != nil {
		log.Error().Err(err).Msg("Error marshalling WebSocket message")
		return
	}
	d := delivery{userID: n.UserID, message: message}
	if n.UserID != "" && n.Level != LevelError {
		d.othersMessage, _ = json.Marshal(WebSocketMessage{Type: "tasks_changed", Data: map[string]string{"taskId": n.TaskID}})
	}

	select {
	case h.deliver <- d:
	default:
		log.Warn().Str("message", n.Message).Msg("Hub backlog full, dropping notification")
	}
}

// Run starts the hub's main loop and returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.Send)
				delete(h.clients, client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			log.Debug().Str("user", client.UserID).Msg("Client connected")
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				log.Debug().Str("user", client.UserID).Msg("Client disconnected")
			}
		case d := <-h.deliver:
			for client := range h.clients {
				message := d.message
				if d.userID != "" && client.UserID != d.userID {
					message = d.othersMessage
				}
				if message == nil {
					continue
				}

				select {
				case client.Send <- message:
				default:
					// Client's send buffer is full, assume disconnected
					log.Warn().Str("user", client.UserID).Msg("Client send buffer full, removing client")
					close(client.Send)
					delete(h.clients, client)
				}
			}
		}
	}
}
