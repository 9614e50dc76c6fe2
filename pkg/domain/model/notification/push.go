package notification

import (
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/errs"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/errutil"
	"github.com/m-mizutani/goerr/v2"
)

// Push is the data-only payload carried by a platform push message. Every
// value travels as a string.
type Push struct {
	AlertID types.AlertID `json:"alert_id"`
	Urgency types.Urgency `json:"urgency"`
	Title   string        `json:"title,omitempty"`
	Body    string        `json:"body,omitempty"`
}

const (
	pushKeyType    = "type"
	pushKeyAlertID = "alert_id"
	pushKeyUrgency = "urgency"
	pushKeyTitle   = "title"
	pushKeyBody    = "body"

	pushTypeAlert = "yuh_blockin_alert"
)

func (x Push) Encode() map[string]string {
	data := map[string]string{
		pushKeyType:    pushTypeAlert,
		pushKeyAlertID: x.AlertID.String(),
		pushKeyUrgency: x.Urgency.String(),
	}
	if x.Title != "" {
		data[pushKeyTitle] = x.Title
	}
	if x.Body != "" {
		data[pushKeyBody] = x.Body
	}
	return data
}

// DecodePush reads a push payload. An unknown urgency falls back to normal so
// that a malformed field never drops the alert.
func DecodePush(data map[string]string) (*Push, error) {
	if t, ok := data[pushKeyType]; ok && t != pushTypeAlert {
		return nil, goerr.New("not an alert push message",
			goerr.T(errs.TagValidation),
			goerr.V("type", t))
	}

	id := types.AlertID(data[pushKeyAlertID])
	if err := id.Validate(); err != nil {
		return nil, goerr.Wrap(err, "push payload has no valid alert id",
			goerr.T(errs.TagValidation),
			goerr.TV(errutil.AlertIDKey, id))
	}

	urgency := types.Urgency(data[pushKeyUrgency])
	if urgency.Validate() != nil {
		urgency = types.UrgencyNormal
	}

	return &Push{
		AlertID: id,
		Urgency: urgency,
		Title:   data[pushKeyTitle],
		Body:    data[pushKeyBody],
	}, nil
}

// PushFor builds the payload for an alert going to a registered device.
func PushFor(id types.AlertID, urgency types.Urgency, title, body string) Push {
	return Push{AlertID: id, Urgency: urgency, Title: title, Body: body}
}

// Notification turns a decoded payload into something the presenter can show.
// Missing text falls back to the standard title and body for the urgency.
func (x Push) Notification() Notification {
	title, body := x.Title, x.Body
	if title == "" {
		title = titles[x.Urgency]
		if title == "" {
			title = titles[types.UrgencyNormal]
		}
	}
	if body == "" {
		body = defaultBody
	}
	return New(x.AlertID, title, body, x.Urgency)
}
