package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ErrTooManyClients is returned when the client limit is reached.
var ErrTooManyClients = errors.New("maximum dashboard clients reached")

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// Message is the envelope pushed to websocket clients.
type Message struct {
	Data any    `json:"data"`
	Type string `json:"type"`
}

// client is one websocket connection. Writes are serialized by mu since
// gorilla connections allow a single concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}

	err = c.conn.WriteMessage(messageType, data)
	if err != nil {
		return fmt.Errorf("write message: %w", err)
	}

	return nil
}

// hub tracks connected clients and fans messages out to them.
type hub struct {
	logger     *slog.Logger
	clients    map[*client]struct{}
	maxClients int
	mu         sync.RWMutex
}

func newHub(maxClients int, logger *slog.Logger) *hub {
	return &hub{
		logger:     logger,
		clients:    make(map[*client]struct{}),
		maxClients: maxClients,
	}
}

func (h *hub) add(conn *websocket.Conn) (*client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.maxClients > 0 && len(h.clients) >= h.maxClients {
		return nil, ErrTooManyClients
	}

	c := &client{conn: conn}
	h.clients[c] = struct{}{}

	return c, nil
}

func (h *hub) full() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.maxClients > 0 && len(h.clients) >= h.maxClients
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.clients, c)
}

func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// broadcast sends msg to every client and drops the ones that fail.
func (h *hub) broadcast(msg Message) {
	h.mu.RLock()
	if len(h.clients) == 0 {
		h.mu.RUnlock()

		return
	}

	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal dashboard message", "type", msg.Type, "error", err)

		return
	}

	var failed []*client

	for _, c := range targets {
		writeErr := c.write(websocket.TextMessage, data)
		if writeErr != nil {
			h.logger.Debug("drop dashboard client", "error", writeErr)

			_ = c.conn.Close()
			failed = append(failed, c)
		}
	}

	if len(failed) == 0 {
		return
	}

	h.mu.Lock()
	for _, c := range failed {
		delete(h.clients, c)
	}
	h.mu.Unlock()
}

// closeAll sends a normal closure to every client.
func (h *hub) closeAll() {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	closing := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")

	for _, c := range targets {
		_ = c.write(websocket.CloseMessage, closing)
	}
}
