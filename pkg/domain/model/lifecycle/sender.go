package lifecycle

import (
	"sync"
	"time"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
)

var senderTransitions = map[types.SenderState][]types.SenderState{
	types.SenderSending:      {types.SenderDelivered, types.SenderFailed, types.SenderAcknowledged},
	types.SenderDelivered:    {types.SenderAcknowledged, types.SenderTimeout},
	types.SenderTimeout:      {types.SenderAcknowledged},
	types.SenderAcknowledged: {types.SenderResolved},
}

// Sender tracks one outgoing alert from the sender's point of view.
//
// sending -> delivered -> acknowledged -> resolved, with failed reachable from
// sending and timeout from delivered. A response observed while sending or
// after a UI timeout still acknowledges the alert.
type Sender struct {
	mu          sync.Mutex
	alertID     types.AlertID
	state       types.SenderState
	response    *types.ResponseCode
	deliveredAt time.Time
	failure     error
}

func NewSender(id types.AlertID) *Sender {
	return &Sender{alertID: id, state: types.SenderSending}
}

func (x *Sender) AlertID() types.AlertID {
	return x.alertID
}

func (x *Sender) State() types.SenderState {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.state
}

func (x *Sender) move(to types.SenderState) error {
	if err := checkTransition(x.alertID, senderTransitions, x.state, to); err != nil {
		return err
	}
	x.state = to
	return nil
}

// Delivered fires once the remote store accepted the alert.
func (x *Sender) Delivered(at time.Time) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if err := x.move(types.SenderDelivered); err != nil {
		return err
	}
	x.deliveredAt = at
	return nil
}

// Fail is terminal. cause is kept for the sender's error message.
func (x *Sender) Fail(cause error) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if err := x.move(types.SenderFailed); err != nil {
		return err
	}
	x.failure = cause
	return nil
}

// Observe applies a response seen on the sender's live query. It returns false
// when the response was already applied. moving_now and wrong_car resolve the
// alert right away; the other codes stay acknowledged.
func (x *Sender) Observe(code types.ResponseCode) (bool, error) {
	if err := code.Validate(); err != nil {
		return false, err
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.response != nil {
		return false, nil
	}
	if err := x.move(types.SenderAcknowledged); err != nil {
		return false, err
	}
	x.response = &code

	if code.AutoResolves() {
		if err := x.move(types.SenderResolved); err != nil {
			return true, err
		}
	}
	return true, nil
}

// Resolve is the out-of-band follow-up for responses that do not auto-resolve.
func (x *Sender) Resolve() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.move(types.SenderResolved)
}

// CheckTimeout moves a delivered alert to timeout once window has passed
// without a response. It only changes local state.
func (x *Sender) CheckTimeout(now time.Time, window time.Duration) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.state != types.SenderDelivered {
		return false
	}
	if !now.After(x.deliveredAt.Add(window)) {
		return false
	}
	x.state = types.SenderTimeout
	return true
}

// SenderView is a read-only copy of a Sender.
type SenderView struct {
	AlertID     types.AlertID       `json:"alert_id"`
	State       types.SenderState   `json:"state"`
	Response    *types.ResponseCode `json:"response,omitempty"`
	DeliveredAt *time.Time          `json:"delivered_at,omitempty"`
	Failure     string              `json:"failure,omitempty"`
}

func (x *Sender) View() SenderView {
	x.mu.Lock()
	defer x.mu.Unlock()

	v := SenderView{AlertID: x.alertID, State: x.state}
	if x.response != nil {
		code := *x.response
		v.Response = &code
	}
	if !x.deliveredAt.IsZero() {
		at := x.deliveredAt
		v.DeliveredAt = &at
	}
	if x.failure != nil {
		v.Failure = x.failure.Error()
	}
	return v
}

type SenderBook = Book[Sender]

func NewSenderBook() *SenderBook {
	return newBook(NewSender)
}
