package alert

import (
	"time"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/errs"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/errutil"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/ptr"
	"github.com/m-mizutani/goerr/v2"
)

// Fields is a partial update of the lifecycle fields. Nil means "leave as is".
type Fields struct {
	DeliveredAt     *time.Time          `json:"delivered_at,omitempty"`
	ReadAt          *time.Time          `json:"read_at,omitempty"`
	ResponseAt      *time.Time          `json:"response_at,omitempty"`
	Response        *types.ResponseCode `json:"response,omitempty"`
	ResponseMessage *string             `json:"response_message,omitempty"`
}

func (f Fields) IsEmpty() bool {
	return f.DeliveredAt == nil && f.ReadAt == nil && f.ResponseAt == nil &&
		f.Response == nil && f.ResponseMessage == nil
}

func Delivered(at time.Time) Fields {
	return Fields{DeliveredAt: ptr.UTC(at)}
}

func Read(at time.Time) Fields {
	return Fields{ReadAt: ptr.UTC(at)}
}

func Responded(code types.ResponseCode, message string, at time.Time) Fields {
	f := Fields{ResponseAt: ptr.UTC(at), Response: &code}
	if message != "" {
		f.ResponseMessage = &message
	}
	return f
}

// Apply merges f into the alert and returns the fields that actually changed.
// Fields that are already set are kept: a replayed or out-of-order update is a
// no-op, never an overwrite. Timestamps earlier than created_at are rejected.
//
// Reading or responding implies delivery, so delivered_at is filled in from the
// earliest of those when it is still empty, and a read or response stamped
// before an existing delivered_at (clock skew between devices) is moved up to
// it. This keeps created_at <= delivered_at <= response_at for every record.
func (x *Alert) Apply(f Fields) (Fields, error) {
	var changed Fields

	if (f.Response == nil) != (f.ResponseAt == nil) {
		return changed, goerr.New("response and response_at must be set together",
			goerr.T(errs.TagValidation), goerr.TV(errutil.AlertIDKey, x.ID))
	}
	if f.Response != nil {
		if err := f.Response.Validate(); err != nil {
			return changed, goerr.Wrap(err, "invalid response", goerr.T(errs.TagValidation), goerr.TV(errutil.AlertIDKey, x.ID))
		}
	}

	for name, ts := range map[string]*time.Time{
		"delivered_at": f.DeliveredAt,
		"read_at":      f.ReadAt,
		"response_at":  f.ResponseAt,
	} {
		if ts != nil && ts.Before(x.CreatedAt) {
			return changed, goerr.New("lifecycle timestamp precedes creation",
				goerr.T(errs.TagValidation),
				goerr.TV(errutil.AlertIDKey, x.ID),
				goerr.TV(errutil.FieldKey, name),
				goerr.TV(errutil.TimestampKey, *ts))
		}
	}

	if x.Response == nil && f.Response != nil {
		code := *f.Response
		at := notBefore(*f.ResponseAt, x.DeliveredAt)
		x.Response = &code
		x.ResponseAt = &at
		changed.Response = &code
		changed.ResponseAt = &at
		if f.ResponseMessage != nil {
			msg := *f.ResponseMessage
			x.ResponseMessage = msg
			changed.ResponseMessage = &msg
		}
	}

	if x.ReadAt == nil && f.ReadAt != nil {
		at := notBefore(*f.ReadAt, x.DeliveredAt)
		x.ReadAt = &at
		changed.ReadAt = &at
	}

	if x.DeliveredAt == nil {
		delivered := earliest(f.DeliveredAt, x.ReadAt, x.ResponseAt)
		if delivered != nil {
			at := *delivered
			x.DeliveredAt = &at
			changed.DeliveredAt = &at
		}
	}

	return changed, nil
}

func earliest(candidates ...*time.Time) *time.Time {
	var lowest *time.Time
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if lowest == nil || c.Before(*lowest) {
			lowest = c
		}
	}
	return lowest
}

func notBefore(t time.Time, floor *time.Time) time.Time {
	if floor != nil && t.Before(*floor) {
		return *floor
	}
	return t
}
