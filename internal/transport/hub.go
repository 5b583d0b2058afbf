package transport

import (
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/danielpatrickdp/mirror-console/internal/sim"
)

const writeWait = 5 * time.Second

// #region messages
type stateMessage struct {
	Type       string               `json:"type"`
	State      *sim.SimulationState `json:"state"`
	ServerTime int64                `json:"serverTime"`
}

type clientMessage struct {
	Type   string `json:"type"`
	SentAt int64  `json:"sentAt"`
}

type heartbeatMessage struct {
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
}

// #endregion messages

// #region hub
// Hub streams driver snapshots to websocket clients. Each client gets its
// own latest-wins subscription so a slow socket never delays the tick.
type Hub struct {
	driver *sim.Driver
	logger *log.Logger

	mu      sync.Mutex
	clients map[uint64]*client
	nextID  atomic.Uint64
}

type client struct {
	id     uint64
	conn   *websocket.Conn
	mu     sync.Mutex // serializes writes
	cancel func()
}

// NewHub creates a hub for driver.
func NewHub(driver *sim.Driver, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{driver: driver, logger: logger, clients: make(map[uint64]*client)}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Serve owns conn until it closes: snapshots are pushed as they are
// published and client messages ("toggle", "heartbeat") are handled.
func (h *Hub) Serve(conn *websocket.Conn) {
	updates, cancel := h.driver.Subscribe(4)
	c := &client{id: h.nextID.Add(1), conn: conn, cancel: cancel}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	h.logger.Printf("[HTTP] ws client %d connected", c.id)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for snap := range updates {
			if err := h.write(c, stateMessage{Type: "state", State: snap, ServerTime: time.Now().UnixMilli()}); err != nil {
				h.logger.Printf("[HTTP] ws client %d send failed: %v", c.id, err)
				conn.Close()
				return
			}
		}
	}()

	h.readLoop(c)

	h.disconnect(c)
	<-done
}

func (h *Hub) readLoop(c *client) {
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.logger.Printf("[HTTP] discarding malformed message from ws client %d: %v", c.id, err)
			continue
		}

		switch msg.Type {
		case "toggle":
			h.driver.ToggleRunning()
		case "heartbeat":
			ack := heartbeatMessage{Type: "heartbeat", ServerTime: time.Now().UnixMilli(), ClientTime: msg.SentAt}
			if err := h.write(c, ack); err != nil {
				return
			}
		default:
			h.logger.Printf("[HTTP] unknown message type %q from ws client %d", msg.Type, c.id)
		}
	}
}

func (h *Hub) write(c *client, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (h *Hub) disconnect(c *client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	c.cancel()
	c.conn.Close()
	h.logger.Printf("[HTTP] ws client %d disconnected", c.id)
}

// #endregion hub
