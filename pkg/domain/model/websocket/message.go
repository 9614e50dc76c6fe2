package websocket

import (
	"encoding/json"
	"time"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/event"
)

// ClientMessage represents a message sent from client to server
type ClientMessage struct {
	Type      string `json:"type"`      // "ping"
	Timestamp int64  `json:"timestamp"` // unix timestamp
}

// ServerMessage represents a message sent from server to client
type ServerMessage struct {
	Type      string       `json:"type"` // "event", "status", "error", "pong"
	Content   string       `json:"content,omitempty"`
	Event     *event.Event `json:"event,omitempty"`
	Timestamp int64        `json:"timestamp"`
}

// ToBytes converts ServerMessage to JSON bytes
func (r *ServerMessage) ToBytes() ([]byte, error) {
	return json.Marshal(r)
}

// FromBytes parses JSON bytes to ClientMessage
func (m *ClientMessage) FromBytes(data []byte) error {
	return json.Unmarshal(data, m)
}

func newServerMessage(msgType, content string) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Content:   content,
		Timestamp: time.Now().Unix(),
	}
}

// NewEventMessage wraps a lifecycle event
func NewEventMessage(ev event.Event) *ServerMessage {
	msg := newServerMessage("event", "")
	msg.Event = &ev
	return msg
}

func NewStatusMessage(content string) *ServerMessage {
	return newServerMessage("status", content)
}

func NewErrorMessage(content string) *ServerMessage {
	return newServerMessage("error", content)
}

func NewPongMessage() *ServerMessage {
	return newServerMessage("pong", "")
}

// IsValidMessageType checks if message type is valid
func (m *ClientMessage) IsValidMessageType() bool {
	return m.Type == "ping"
}
