package websocket

import (
	"net/http"
	"time"

	websocket_model "github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/websocket"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/logging"
	"github.com/gorilla/websocket"
)

// Handler upgrades UI connections and attaches them to the event hub
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The event stream is served on the device's loopback address.
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10
)

// HandleEvents streams lifecycle events to the connecting client
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	logger := logging.From(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the response
		logger.Warn("failed to upgrade connection", logging.ErrAttr(err))
		return
	}

	client := h.hub.NewClient(conn)
	h.hub.Register(client)

	logger.Debug("event client connected", "client_id", client.clientID)

	go h.writePump(client)
	go h.readPump(client)
}

// readPump consumes pings and detects disconnects
func (h *Handler) readPump(client *Client) {
	logger := logging.From(client.ctx)

	defer func() {
		h.hub.Unregister(client)
		if err := client.conn.Close(); err != nil {
			logger.Debug("failed to close connection in readPump", "error", err)
		}
	}()

	client.conn.SetReadLimit(maxMessageSize)
	if err := client.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logger.Error("failed to set read deadline", "error", err)
		return
	}
	client.conn.SetPongHandler(func(string) error {
		if err := client.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			logger.Error("failed to set read deadline in pong handler", "error", err)
		}
		return nil
	})

	for {
		if client.ctx.Err() != nil {
			return
		}

		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("unexpected websocket close", "error", err)
			}
			return
		}

		var msg websocket_model.ClientMessage
		if err := msg.FromBytes(data); err != nil || !msg.IsValidMessageType() {
			h.reply(client, websocket_model.NewErrorMessage("invalid message"))
			continue
		}
		h.reply(client, websocket_model.NewPongMessage())
	}
}

// writePump pumps messages from the hub to the websocket connection
func (h *Handler) writePump(client *Client) {
	logger := logging.From(client.ctx)
	ticker := time.NewTicker(pingPeriod)

	client.mu.Lock()
	send := client.send
	client.mu.Unlock()

	defer func() {
		ticker.Stop()
		if err := client.conn.Close(); err != nil {
			logger.Debug("failed to close connection in writePump", "error", err)
		}
	}()

	if send == nil {
		return
	}

	for {
		select {
		case <-client.ctx.Done():
			return

		case message, ok := <-send:
			if err := client.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logger.Error("failed to set write deadline", "error", err)
				return
			}
			if !ok {
				// The hub closed the channel
				if err := client.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					logger.Debug("failed to write close message", "error", err)
				}
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			if err := client.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logger.Error("failed to set write deadline for ping", "error", err)
				return
			}
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) reply(client *Client, msg *websocket_model.ServerMessage) {
	data, err := msg.ToBytes()
	if err != nil {
		return
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	if client.send == nil {
		return
	}
	select {
	case client.send <- data:
	default:
		// Client's send channel is full, ignore
	}
}
