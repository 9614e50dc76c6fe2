package lifecycle

import (
	"sync"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
)

var receiverTransitions = map[types.ReceiverState][]types.ReceiverState{
	types.ReceiverUnseen:   {types.ReceiverNotified},
	types.ReceiverNotified: {types.ReceiverRead, types.ReceiverResponded},
	types.ReceiverRead:     {types.ReceiverResponded},
}

// Receiver tracks one incoming alert: unseen, notified, read, responded.
type Receiver struct {
	mu       sync.Mutex
	alertID  types.AlertID
	state    types.ReceiverState
	response *types.ResponseCode
}

func NewReceiver(id types.AlertID) *Receiver {
	return &Receiver{alertID: id, state: types.ReceiverUnseen}
}

// RestoreReceiver rebuilds a machine from a state derived from the stored alert.
func RestoreReceiver(id types.AlertID, state types.ReceiverState) *Receiver {
	return &Receiver{alertID: id, state: state}
}

func (x *Receiver) AlertID() types.AlertID {
	return x.alertID
}

func (x *Receiver) State() types.ReceiverState {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.state
}

func (x *Receiver) Response() *types.ResponseCode {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.response
}

func (x *Receiver) move(to types.ReceiverState) error {
	if err := checkTransition(x.alertID, receiverTransitions, x.state, to); err != nil {
		return err
	}
	x.state = to
	return nil
}

// Notify fires when a delivery surface accepted the alert for the first time.
func (x *Receiver) Notify() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.move(types.ReceiverNotified)
}

// Open fires when the receiving user opens the alert.
func (x *Receiver) Open() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.move(types.ReceiverRead)
}

// Respond is terminal for the receiver.
func (x *Receiver) Respond(code types.ResponseCode) error {
	if err := code.Validate(); err != nil {
		return err
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if err := x.move(types.ReceiverResponded); err != nil {
		return err
	}
	x.response = &code
	return nil
}

func (x *Receiver) Terminal() bool {
	return x.State() == types.ReceiverResponded
}

type ReceiverBook = Book[Receiver]

func NewReceiverBook() *ReceiverBook {
	return newBook(NewReceiver)
}
