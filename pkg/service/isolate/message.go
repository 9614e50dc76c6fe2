// Package isolate runs the background delivery surface as a separate OS
// process. The two processes share nothing but explicit control messages and
// the remote store.
package isolate

import (
	"encoding/json"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/errs"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type MessageType string

const (
	MessageUpdateRecipient MessageType = "update_recipient"
	MessageStop            MessageType = "stop"
)

// Message is one control line sent from the host to the background process.
type Message struct {
	Type      MessageType  `json:"type"`
	Recipient types.UserID `json:"recipient,omitempty"`
}

func UpdateRecipient(id types.UserID) Message {
	return Message{Type: MessageUpdateRecipient, Recipient: id}
}

func Stop() Message {
	return Message{Type: MessageStop}
}

func (x Message) Validate() error {
	switch x.Type {
	case MessageUpdateRecipient, MessageStop:
		return nil
	}
	return goerr.New("unknown control message", goerr.T(errs.TagValidation), goerr.V("type", x.Type))
}

func decodeMessage(line []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(line, &msg); err != nil {
		return msg, goerr.Wrap(err, "malformed control message", goerr.T(errs.TagValidation))
	}
	if err := msg.Validate(); err != nil {
		return msg, err
	}
	return msg, nil
}
