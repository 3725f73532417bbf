// Package websocket streams generation progress events to subscribed clients.
package websocket

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/websocket/v2"

	"github.com/chynybekuuludastan/sitecloner/internal/logging"
	"github.com/chynybekuuludastan/sitecloner/internal/service/pipeline"
)

// Message types
const (
	TypeConnected = "connected"
	TypeProgress  = "progress"
)

// sendBuffer is the per-client queue length; a client that falls this far behind is dropped
const sendBuffer = 64

// Client represents a connected WebSocket client
type Client struct {
	conn  *websocket.Conn
	jobID string
	send  chan []byte
}

// Message represents a WebSocket message
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of active clients per job and fans progress events out to them.
// It implements pipeline.Reporter.
type Hub struct {
	// Registered clients by job ID
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	mu     sync.RWMutex
	logger logging.Logger
}

// NewHub creates a new websocket hub
func NewHub(logger logging.Logger) *Hub {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub's registration loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.clients[client.jobID]; !ok {
				h.clients[client.jobID] = make(map[*Client]bool)
			}
			h.clients[client.jobID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.remove(client)

		case <-h.done:
			h.mu.Lock()
			for jobID, clients := range h.clients {
				for client := range clients {
					close(client.send)
				}
				delete(h.clients, jobID)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop ends Run and closes every client queue. It is safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.clients[client.jobID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.jobID)
	}
}

// Subscribers returns the number of clients following a job
func (h *Hub) Subscribers(jobID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[jobID])
}

// Publish implements pipeline.Reporter
func (h *Hub) Publish(jobID string, event pipeline.Event) {
	h.Broadcast(jobID, Message{Type: TypeProgress, Data: event})
}

// Broadcast sends a message to all clients subscribed to a job
func (h *Hub) Broadcast(jobID string, message Message) {
	payload, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Error marshalling WebSocket message", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[jobID] {
		select {
		case client.send <- payload:
		default:
			// Client's send buffer is full
			go h.drop(client)
		}
	}
}

func (h *Hub) drop(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// HandleConnection serves one connection until the client disconnects. fiber's
// websocket handler must not return while the connection is in use, so this blocks.
func (h *Hub) HandleConnection(conn *websocket.Conn, jobID string) {
	client := newClient(conn, jobID)
	if !h.attach(client) {
		return
	}

	go client.readPump(h)
	client.writePump()
}

// newClient builds a client whose queue already holds the connected greeting, so nothing
// is sent on the queue after the hub may have closed it
func newClient(conn *websocket.Conn, jobID string) *Client {
	client := &Client{
		conn:  conn,
		jobID: jobID,
		send:  make(chan []byte, sendBuffer),
	}
	hello, _ := json.Marshal(Message{
		Type: TypeConnected,
		Data: map[string]string{"jobId": jobID},
	})
	client.send <- hello
	return client
}

// attach registers the client, reporting false when the hub has stopped
func (h *Hub) attach(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump discards client messages and unregisters on disconnect
func (c *Client) readPump(h *Hub) {
	defer h.drop(c)

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("WebSocket closed", "job_id", c.jobID, "error", err)
			}
			return
		}
	}
}
