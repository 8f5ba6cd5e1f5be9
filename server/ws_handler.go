package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"WaveFM/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The frontend is served from arbitrary origins in development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSEvent is the envelope for every message pushed to listeners.
type WSEvent struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// wsClient is one connected listener.
type wsClient struct {
	hub  *StationHub
	conn *websocket.Conn
	send chan []byte
}

// StationHub fans station events out to every connected websocket client.
// There is a single logical station, so no room bookkeeping is needed.
type StationHub struct {
	clients map[*wsClient]bool

	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan []byte

	mu   sync.RWMutex
	done chan struct{}
}

// NewStationHub creates a StationHub.
func NewStationHub() *StationHub {
	return &StationHub{
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// Run drives the hub loop until Stop is called.
func (h *StationHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			logger.Debug("Listener connected", logger.Int("listeners", count))

		case client := <-h.unregister:
			h.removeClient(client)

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer; drop it rather than block the hub.
					go func(c *wsClient) { h.unregister <- c }(client)
				}
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				if client.conn != nil {
					client.conn.Close()
				}
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop shuts the hub down and disconnects every client.
func (h *StationHub) Stop() {
	close(h.done)
}

func (h *StationHub) removeClient(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		logger.Debug("Listener disconnected", logger.Int("listeners", len(h.clients)))
	}
}

// BroadcastEvent marshals and queues an event for every client. Satisfies
// the station and stream notifier interfaces.
func (h *StationHub) BroadcastEvent(eventType string, data interface{}) {
	event := WSEvent{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal websocket event",
			logger.String("type", eventType), logger.ErrorField(err))
		return
	}

	select {
	case h.broadcast <- payload:
	case <-h.done:
	}
}

// ListenerCount returns the number of connected clients.
func (h *StationHub) ListenerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// readPump discards inbound messages and keeps the pong deadline fresh.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("Websocket read error", logger.ErrorField(err))
			}
			return
		}
	}
}

// writePump flushes queued events and pings on an interval.
func (c *wsClient) writePump() {
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

// WebSocketHandler upgrades the connection and registers it with the hub.
func (h *APIHandler) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "Live updates are not available")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("Websocket upgrade failed", logger.ErrorField(err))
		return
	}

	client := &wsClient{hub: h.hub, conn: conn, send: make(chan []byte, 64)}
	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}
