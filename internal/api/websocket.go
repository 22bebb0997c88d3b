package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/FocuswithJustin/sermonrefs/core/scripture"
	"github.com/FocuswithJustin/sermonrefs/internal/logging"
	"github.com/FocuswithJustin/sermonrefs/internal/server"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 256
)

// WebSocketConfig bounds what a single client may send.
type WebSocketConfig struct {
	MaxMessageSize int64 // bytes per message
	MaxMessageRate int   // messages per second
}

func (c WebSocketConfig) withDefaults() WebSocketConfig {
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 4096
	}
	if c.MaxMessageRate <= 0 {
		c.MaxMessageRate = 10
	}
	return c
}

// ProgressMessage represents a progress update sent via WebSocket.
type ProgressMessage struct {
	Type      string         `json:"type"`      // "progress", "complete", "error"
	Operation string         `json:"operation"` // "import"
	Stage     string         `json:"stage,omitempty"`
	Progress  int            `json:"progress"` // 0-100
	Message   string         `json:"message"`
	Timestamp string         `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// ExtractMessage is a client request to extract references from text.
// Plain text frames are treated as Text with no ID.
type ExtractMessage struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
}

// ReferencesMessage answers an ExtractMessage.
type ReferencesMessage struct {
	Type       string                `json:"type"` // "references" or "error"
	ID         string                `json:"id,omitempty"`
	References []scripture.Reference `json:"references,omitempty"`
	Message    string                `json:"message,omitempty"`
	Timestamp  string                `json:"timestamp"`
}

// Client represents a WebSocket client connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

// enqueue queues msg for the write pump. It reports false when the client
// is closed or its buffer is full.
func (c *Client) enqueue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// close stops the write pump. Safe to call more than once.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Hub maintains active WebSocket connections and broadcasts messages.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
}

// NewHub creates a new WebSocket hub. Start it with Run.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, sendBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run handles registration and broadcasting until ctx is canceled, then
// closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				client.close()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			logging.WebSocketEvent("client_connected", n)

		case client := <-h.unregister:
			h.mu.Lock()
			if h.clients[client] {
				delete(h.clients, client)
				client.close()
			}
			n := len(h.clients)
			h.mu.Unlock()
			logging.WebSocketEvent("client_disconnected", n)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if !client.enqueue(message) {
					// Slow client, disconnect.
					client.close()
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// join registers client. It reports false once the hub has stopped.
func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends a progress message to all connected clients.
func (h *Hub) Broadcast(msg ProgressMessage) {
	if msg.Timestamp == "" {
		msg.Timestamp = timestamp()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		logging.Error("failed to marshal progress message", "error", err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		logging.Warn("broadcast channel full, dropping message")
	}
}

// BroadcastProgress sends a progress update to all connected clients.
func (h *Hub) BroadcastProgress(operation, stage, message string, progress int) {
	h.Broadcast(ProgressMessage{
		Type:      "progress",
		Operation: operation,
		Stage:     stage,
		Progress:  progress,
		Message:   message,
	})
}

// BroadcastComplete sends a completion message to all connected clients.
func (h *Hub) BroadcastComplete(operation, message string, data map[string]any) {
	h.Broadcast(ProgressMessage{
		Type:      "complete",
		Operation: operation,
		Progress:  100,
		Message:   message,
		Data:      data,
	})
}

// BroadcastError sends an error message to all connected clients.
func (h *Hub) BroadcastError(operation, message string) {
	h.Broadcast(ProgressMessage{
		Type:      "error",
		Operation: operation,
		Message:   message,
	})
}

// readPump answers extraction requests until the connection fails.
func (s *Server) readPump(c *Client) {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	limit := newTokenBucket(float64(s.cfg.WebSocket.MaxMessageRate), float64(s.cfg.WebSocket.MaxMessageRate))

	c.conn.SetReadLimit(s.cfg.WebSocket.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.WebSocketEvent("unexpected_close", c.hub.Clients(), "error", err)
			}
			return
		}

		if ok, _, _ := limit.take(); !ok {
			logging.SecurityEvent("websocket_rate_limited", "api", "remote_addr", c.conn.RemoteAddr().String())
			s.reply(c, ReferencesMessage{Type: "error", Message: "rate limit exceeded"})
			continue
		}
		s.reply(c, s.answer(data))
	}
}

// answer extracts references from one client frame.
func (s *Server) answer(data []byte) ReferencesMessage {
	req := ExtractMessage{Text: string(data)}
	if trimmed := strings.TrimSpace(req.Text); strings.HasPrefix(trimmed, "{") {
		req = ExtractMessage{}
		if err := json.Unmarshal(data, &req); err != nil {
			return ReferencesMessage{Type: "error", Message: "invalid JSON message"}
		}
	}

	refs := s.extractor.Extract(req.Text)
	if refs == nil {
		refs = []scripture.Reference{}
	}
	return ReferencesMessage{Type: "references", ID: req.ID, References: refs}
}

func (s *Server) reply(c *Client, msg ReferencesMessage) {
	msg.Timestamp = timestamp()
	data, err := json.Marshal(msg)
	if err != nil {
		logging.Error("failed to marshal websocket reply", "error", err)
		return
	}
	if !c.enqueue(data) {
		logging.Warn("websocket reply dropped", "remote_addr", c.conn.RemoteAddr().String())
	}
}

// writePump writes queued messages and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleWebSocket handles GET /ws. Clients receive import progress and may
// send text to have its references extracted.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	cors := server.CORSConfig{AllowedOrigins: s.cfg.AllowedOrigins}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || cors.OriginAllowed(origin) {
				return true
			}
			logging.SecurityEvent("websocket_origin_rejected", "api", "origin", origin)
			return false
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	if !s.hub.join(client) {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	go client.writePump()
	go s.readPump(client)
}
