// Package notification describes what the presenter hands to the platform.
package notification

import (
	"fmt"
	"time"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/alert"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
)

// Notification is a platform notification ready to be shown. ID is derived
// from AlertID so posting it twice replaces rather than duplicates.
type Notification struct {
	ID        types.NotificationID `json:"id"`
	AlertID   types.AlertID        `json:"alert_id"`
	ChannelID string               `json:"channel_id"`
	Title     string               `json:"title"`
	Body      string               `json:"body"`
	Urgency   types.Urgency        `json:"urgency"`
	Sound     string               `json:"sound,omitempty"`
	Vibration []time.Duration      `json:"vibration,omitempty"`
}

func New(id types.AlertID, title, body string, urgency types.Urgency) Notification {
	return Notification{
		ID:        types.NotificationIDOf(id),
		AlertID:   id,
		ChannelID: types.NotificationChannelID,
		Title:     title,
		Body:      body,
		Urgency:   urgency,
		Vibration: VibrationFor(urgency),
	}
}

var titles = map[types.Urgency]string{
	types.UrgencyLow:    "Yuh Blockin'",
	types.UrgencyNormal: "Yuh Blockin'!",
	types.UrgencyHigh:   "Yuh Blockin'! Please move",
	types.UrgencyUrgent: "URGENT: Yuh Blockin'!",
}

const defaultBody = "Someone needs you to move your vehicle."

// Compose builds title and body for an incoming alert.
func Compose(a alert.Alert) (string, string) {
	title, ok := titles[a.Urgency]
	if !ok {
		title = titles[types.UrgencyNormal]
	}

	body := defaultBody
	if a.Message != "" {
		body = fmt.Sprintf("%s \"%s\"", defaultBody, a.Message)
	}
	return title, body
}

// FromAlert composes a notification for an incoming alert.
func FromAlert(a alert.Alert) Notification {
	title, body := Compose(a)
	return New(a.ID, title, body, a.Urgency)
}

// Vibration patterns alternate wait and buzz durations, starting with a wait.
var vibrations = map[types.Urgency][]time.Duration{
	types.UrgencyLow:    {0, 200 * time.Millisecond},
	types.UrgencyNormal: {0, 300 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond},
	types.UrgencyHigh:   {0, 500 * time.Millisecond, 200 * time.Millisecond, 500 * time.Millisecond},
	types.UrgencyUrgent: {0, 800 * time.Millisecond, 200 * time.Millisecond, 800 * time.Millisecond, 200 * time.Millisecond, 800 * time.Millisecond},
}

func VibrationFor(u types.Urgency) []time.Duration {
	p, ok := vibrations[u]
	if !ok {
		p = vibrations[types.UrgencyNormal]
	}
	out := make([]time.Duration, len(p))
	copy(out, p)
	return out
}
