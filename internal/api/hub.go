package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// origins are restricted by the CORS middleware
		return true
	},
}

// subscriber is one websocket connection listening on a topic.
type subscriber struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	topic string
}

type message struct {
	topic string
	data  []byte
}

// Hub maintains the set of active clients and broadcasts messages to the
// clients of a topic. The empty topic reaches every subscriber.
type Hub struct {
	clients    map[*subscriber]bool
	broadcast  chan message
	register   chan *subscriber
	unregister chan *subscriber

	done chan struct{}
	once sync.Once

	mu     sync.RWMutex
	logger *zap.Logger
}

// NewHub returns a hub; call Run to start it.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		broadcast:  make(chan message, 256),
		register:   make(chan *subscriber),
		unregister: make(chan *subscriber),
		clients:    make(map[*subscriber]bool),
		done:       make(chan struct{}),
		logger:     logger.Named("hub"),
	}
}

// Run starts the hub's main loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for sub := range h.clients {
				delete(h.clients, sub)
				close(sub.send)
			}
			h.mu.Unlock()
			return

		case sub := <-h.register:
			h.mu.Lock()
			h.clients[sub] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("websocket subscriber connected", zap.String("topic", sub.topic), zap.Int("total", total))

		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[sub]; ok {
				delete(h.clients, sub)
				close(sub.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("websocket subscriber disconnected", zap.String("topic", sub.topic), zap.Int("total", total))

		case msg := <-h.broadcast:
			h.mu.Lock()
			for sub := range h.clients {
				if msg.topic != "" && sub.topic != msg.topic {
					continue
				}
				select {
				case sub.send <- msg.data:
				default:
					// slow subscriber
					close(sub.send)
					delete(h.clients, sub)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop ends Run and closes every subscriber.
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.done) })
}

// Broadcast sends v as JSON to the clients of topic.
func (h *Hub) Broadcast(topic string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- message{topic: topic, data: data}:
	case <-h.done:
	}
	return nil
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Serve upgrades the request and subscribes the connection to topic.
func (h *Hub) Serve(c echo.Context, topic string) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return err
	}

	sub := &subscriber{
		hub:   h,
		conn:  ws,
		send:  make(chan []byte, 256),
		topic: topic,
	}

	select {
	case h.register <- sub:
	case <-h.done:
		return ws.Close()
	}

	go sub.writePump()
	go sub.readPump()

	return nil
}

// readPump only drains control frames; subscribers never send data.
func (sub *subscriber) readPump() {
	defer func() {
		select {
		case sub.hub.unregister <- sub:
		case <-sub.hub.done:
		}
		_ = sub.conn.Close()
	}()

	_ = sub.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck // Deadline errors are handled by ReadMessage
	sub.conn.SetPongHandler(func(string) error {
		_ = sub.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck // Deadline errors are handled by ReadMessage
		return nil
	})

	for {
		_, _, err := sub.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				sub.hub.logger.Warn("websocket read failed", zap.Error(err))
			}
			break
		}
	}
}

// writePump forwards hub messages and keeps the connection alive with pings.
func (sub *subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = sub.conn.Close()
	}()

	for {
		select {
		case message, ok := <-sub.send:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // Deadline errors are handled by WriteMessage
			if !ok {
				_ = sub.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck // Connection is closing, error can be ignored
				return
			}

			// one JSON document per frame
			if err := sub.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // Deadline errors are handled by WriteMessage
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
