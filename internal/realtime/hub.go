package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/example/storefront/internal/domain/cart"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

// Message is the JSON frame pushed to the browser
type Message struct {
	Type string `json:"type"`
	cart.Change
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans cart changes out to every open connection of the cart owner
type Hub struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger:  logger.Named("realtime"),
		clients: make(map[string]map[*client]struct{}),
	}
}

// Serve upgrades the request and keeps the connection registered for owner until it closes
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, owner string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(owner, c)
	go h.writeLoop(c)

	defer func() {
		h.unregister(owner, c)
		conn.Close()
	}()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) register(owner string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[owner] == nil {
		h.clients[owner] = make(map[*client]struct{})
	}
	h.clients[owner][c] = struct{}{}
}

func (h *Hub) unregister(owner string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[owner][c]; !ok {
		return
	}
	delete(h.clients[owner], c)
	if len(h.clients[owner]) == 0 {
		delete(h.clients, owner)
	}
	close(c.send)
}

// CartChanged implements cart.Listener. Connections whose buffer is full miss the frame.
func (h *Hub) CartChanged(_ context.Context, change cart.Change) {
	data, err := json.Marshal(Message{Type: "cart", Change: change})
	if err != nil {
		h.logger.Error("encode cart change", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[change.Owner] {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("dropping frame for slow client", zap.String("owner", change.Owner))
		}
	}
}

// Connections reports how many connections owner has open
func (h *Hub) Connections(owner string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[owner])
}
