// Package stream serves live court snapshots over websockets and exposes a
// small HTTP control surface for the running simulation.
package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 512
	sendBuffer     = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // viewers are served from anywhere
	},
}

// Message is the envelope of everything written to a viewer.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Client is one connected viewer.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks connected viewers and fans messages out to them.
type Hub struct {
	clients map[string]*Client
	mu      sync.RWMutex
	log     *zap.Logger
}

// NewHub creates an empty hub. A nil logger is replaced by a no-op one.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{clients: make(map[string]*Client), log: log}
}

// Len is the number of connected viewers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		close(c.send)
	}
	h.mu.Unlock()
	h.log.Info("viewer disconnected", zap.String("client", c.id))
}

// Broadcast sends msg to every viewer. Viewers whose buffer is full miss it.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("marshal message", zap.String("type", msg.Type), zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.log.Warn("send buffer full, dropping message", zap.String("client", c.id))
		}
	}
}

// ServeWS upgrades the request and attaches the viewer. first, if not nil,
// is queued before any broadcast reaches the new viewer.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, first func() Message) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &Client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	h.mu.Lock()
	h.clients[c.id] = c
	if first != nil {
		if data, err := json.Marshal(first()); err == nil {
			c.send <- data
		}
	}
	h.mu.Unlock()
	h.log.Info("viewer connected", zap.String("client", c.id))

	go c.writePump()
	go c.readPump()
}

// writePump drains the send queue to the connection and keeps it alive.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.log.Debug("websocket write", zap.String("client", c.id), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.log.Debug("websocket ping", zap.String("client", c.id), zap.Error(err))
				return
			}
		}
	}
}

// readPump discards viewer input and detaches the viewer when the
// connection drops.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Warn("websocket closed", zap.String("client", c.id), zap.Error(err))
			}
			return
		}
	}
}
