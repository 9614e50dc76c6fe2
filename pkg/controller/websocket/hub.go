package websocket

import (
	"context"
	"sync"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/event"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/interfaces"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/ack"
	websocket_model "github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/websocket"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/clock"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/logging"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Hub maintains the set of UI clients and fans lifecycle events out to them.
// It implements the lifecycle hooks, so it can be handed to the use cases
// directly.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
}

var _ interfaces.Hooks = &Hub{}

// Client is a middleman between the websocket connection and the hub
type Client struct {
	hub *Hub

	conn *websocket.Conn

	// Buffered channel of outbound messages
	send chan []byte

	clientID string

	ctx    context.Context
	cancel context.CancelFunc

	// Mutex to protect send channel
	mu sync.Mutex
}

const (
	// Maximum message size allowed from peer
	maxMessageSize = 4 * 1024

	maxClients = 32

	// Buffer size for client send channel
	clientSendBufferSize = 256

	// Events queued while the hub loop is busy; more are dropped
	broadcastBufferSize = 64
)

func NewHub(ctx context.Context) *Hub {
	ctx, cancel := context.WithCancel(ctx)
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, broadcastBufferSize),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	logger := logging.From(h.ctx)
	logger.Info("event hub started")

	defer func() {
		logger.Info("event hub stopped")
		h.cancel()
	}()

	for {
		select {
		case <-h.ctx.Done():
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastToAll(message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	logger := logging.From(h.ctx)

	if len(h.clients) >= maxClients {
		logger.Warn("maximum event clients reached", "max_clients", maxClients)
		client.closeSend()
		client.cancel()
		return
	}
	h.clients[client] = true

	logger.Info("event client registered",
		"client_id", client.clientID,
		"total_clients", len(h.clients))

	welcome := websocket_model.NewStatusMessage("subscribed to lifecycle events")
	if data, err := welcome.ToBytes(); err == nil {
		select {
		case client.send <- data:
		default:
			client.closeSend()
			delete(h.clients, client)
		}
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.closeSend()
		logging.From(h.ctx).Info("event client unregistered",
			"client_id", client.clientID,
			"remaining_clients", len(h.clients))
	}
	client.cancel()
}

// broadcastToAll drops clients whose send buffer is full instead of waiting
// on them.
func (h *Hub) broadcastToAll(message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			logging.From(h.ctx).Warn("event client too slow, dropping", "client_id", client.clientID)
			h.removeLocked(client)
		}
	}
}

// Publish queues ev for every connected client. It never blocks; when the
// queue is full the event is dropped.
func (h *Hub) Publish(ctx context.Context, ev event.Event) {
	data, err := websocket_model.NewEventMessage(ev).ToBytes()
	if err != nil {
		logging.From(ctx).Warn("failed to encode event", logging.ErrAttr(err), "type", ev.Type)
		return
	}

	select {
	case h.broadcast <- data:
	case <-h.ctx.Done():
	default:
		logging.From(ctx).Warn("event queue full, dropping event", "type", ev.Type)
	}
}

func (h *Hub) OnAlertNotified(ctx context.Context, id types.AlertID) {
	h.Publish(ctx, event.AlertNotified(id, clock.Now(ctx)))
}

func (h *Hub) OnResponseObserved(ctx context.Context, id types.AlertID, code types.ResponseCode) {
	h.Publish(ctx, event.ResponseObserved(id, code, clock.Now(ctx)))
}

func (h *Hub) OnAckTimeoutComputed(ctx context.Context, summary ack.Summary) {
	h.Publish(ctx, event.AckTimeoutComputed(summary, clock.Now(ctx)))
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) NewClient(conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(h.ctx)
	return &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, clientSendBufferSize),
		clientID: uuid.NewString(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Register registers a client with the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
		client.closeSend()
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// Close gracefully shuts down the hub
func (h *Hub) Close() error {
	h.cancel()

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.cancel()
		client.closeSend()
	}
	h.clients = make(map[*Client]bool)
	return nil
}

// closeSend closes the send channel once.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.send != nil {
		close(c.send)
		c.send = nil
	}
}
