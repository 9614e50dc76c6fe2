package types

type ReceiverState string

const (
	ReceiverUnseen    ReceiverState = "unseen"
	ReceiverNotified  ReceiverState = "notified"
	ReceiverRead      ReceiverState = "read"
	ReceiverResponded ReceiverState = "responded"
)

func (x ReceiverState) String() string {
	return string(x)
}

type SenderState string

const (
	SenderSending      SenderState = "sending"
	SenderDelivered    SenderState = "delivered"
	SenderAcknowledged SenderState = "acknowledged"
	SenderResolved     SenderState = "resolved"
	SenderTimeout      SenderState = "timeout"
	SenderFailed       SenderState = "failed"
)

var senderStateLabels = map[SenderState]string{
	SenderSending:      "📤 Sending",
	SenderDelivered:    "📬 Delivered",
	SenderAcknowledged: "👀 Acknowledged",
	SenderResolved:     "✅️ Resolved",
	SenderTimeout:      "⌛ No answer",
	SenderFailed:       "❌ Failed",
}

func (x SenderState) String() string {
	return string(x)
}

func (x SenderState) Label() string {
	return senderStateLabels[x]
}

// AckStatus is the acknowledgment tracker's classification of a sent alert.
type AckStatus string

const (
	AckPending      AckStatus = "pending"
	AckTimedOut     AckStatus = "timed_out"
	AckAcknowledged AckStatus = "acknowledged"
)

func (x AckStatus) String() string {
	return string(x)
}

// Capability is the answer of the capability gate.
type Capability struct {
	Allowed   bool   `json:"allowed"`
	Reason    string `json:"reason,omitempty"`
	Remaining int    `json:"remaining"`
}
