package alert

import (
	"time"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/errs"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/errutil"
	"github.com/m-mizutani/goerr/v2"
)

// Alert is one request to move a vehicle. Lifecycle fields only move forward:
// once a timestamp or the response is set it is never cleared or replaced.
type Alert struct {
	ID         types.AlertID   `json:"id" firestore:"id"`
	SenderID   types.UserID    `json:"sender_id" firestore:"sender_id"`
	ReceiverID types.UserID    `json:"receiver_id" firestore:"receiver_id"`
	PlateHash  types.PlateHash `json:"plate_hash" firestore:"plate_hash"`
	Urgency    types.Urgency   `json:"urgency" firestore:"urgency"`
	Message    string          `json:"message,omitempty" firestore:"message"`

	CreatedAt   time.Time  `json:"created_at" firestore:"created_at"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty" firestore:"delivered_at"`
	ReadAt      *time.Time `json:"read_at,omitempty" firestore:"read_at"`
	ResponseAt  *time.Time `json:"response_at,omitempty" firestore:"response_at"`

	Response        *types.ResponseCode `json:"response,omitempty" firestore:"response"`
	ResponseMessage string              `json:"response_message,omitempty" firestore:"response_message"`
}

type Alerts []*Alert

func New(sender, receiver types.UserID, plate types.PlateHash, urgency types.Urgency, message string, now time.Time) Alert {
	return Alert{
		ID:         types.NewAlertID(),
		SenderID:   sender,
		ReceiverID: receiver,
		PlateHash:  plate,
		Urgency:    urgency,
		Message:    message,
		CreatedAt:  now.UTC(),
	}
}

func (x *Alert) Validate() error {
	if err := x.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid alert", goerr.T(errs.TagValidation))
	}
	if x.SenderID == types.EmptyUserID || x.ReceiverID == types.EmptyUserID {
		return goerr.New("alert requires sender and receiver",
			goerr.T(errs.TagValidation),
			goerr.TV(errutil.AlertIDKey, x.ID))
	}
	if err := x.Urgency.Validate(); err != nil {
		return goerr.Wrap(err, "invalid alert", goerr.T(errs.TagValidation), goerr.TV(errutil.AlertIDKey, x.ID))
	}
	if x.CreatedAt.IsZero() {
		return goerr.New("alert has no creation time", goerr.T(errs.TagValidation), goerr.TV(errutil.AlertIDKey, x.ID))
	}
	if x.Response != nil {
		if err := x.Response.Validate(); err != nil {
			return goerr.Wrap(err, "invalid alert", goerr.T(errs.TagValidation), goerr.TV(errutil.AlertIDKey, x.ID))
		}
	}
	return nil
}

// Copy returns a deep copy so callers can hand alerts across goroutines.
func (x Alert) Copy() Alert {
	cp := x
	cp.DeliveredAt = copyTime(x.DeliveredAt)
	cp.ReadAt = copyTime(x.ReadAt)
	cp.ResponseAt = copyTime(x.ResponseAt)
	if x.Response != nil {
		r := *x.Response
		cp.Response = &r
	}
	return cp
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// NeedsNotification reports whether a store-observed alert should still raise
// a notification: nobody opened or answered it and it is younger than window.
func (x *Alert) NeedsNotification(now time.Time, window time.Duration) bool {
	if x.ReadAt != nil || x.Response != nil {
		return false
	}
	return now.Sub(x.CreatedAt) < window
}

// ReceiverState derives the receiver-side lifecycle state from the record.
func (x *Alert) ReceiverState() types.ReceiverState {
	switch {
	case x.Response != nil:
		return types.ReceiverResponded
	case x.ReadAt != nil:
		return types.ReceiverRead
	case x.DeliveredAt != nil:
		return types.ReceiverNotified
	default:
		return types.ReceiverUnseen
	}
}

func (x *Alert) Responded() bool {
	return x.Response != nil
}
