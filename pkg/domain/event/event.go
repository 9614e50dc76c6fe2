// Package event holds the lifecycle events pushed to UI clients.
package event

import (
	"time"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/ack"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
)

type Type string

const (
	TypeAlertNotified      Type = "alert_notified"
	TypeResponseObserved   Type = "response_observed"
	TypeAckTimeoutComputed Type = "ack_timeout_computed"
)

func (x Type) String() string {
	return string(x)
}

// Event is one hook invocation. Only the fields of its Type are set.
type Event struct {
	Type     Type               `json:"type"`
	AlertID  types.AlertID      `json:"alert_id,omitempty"`
	Response types.ResponseCode `json:"response,omitempty"`
	Summary  *ack.Summary       `json:"summary,omitempty"`
	At       time.Time          `json:"at"`
}

func AlertNotified(id types.AlertID, at time.Time) Event {
	return Event{Type: TypeAlertNotified, AlertID: id, At: at}
}

func ResponseObserved(id types.AlertID, code types.ResponseCode, at time.Time) Event {
	return Event{Type: TypeResponseObserved, AlertID: id, Response: code, At: at}
}

func AckTimeoutComputed(summary ack.Summary, at time.Time) Event {
	return Event{Type: TypeAckTimeoutComputed, Summary: &summary, At: at}
}
