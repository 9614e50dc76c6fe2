package notification_test

import (
	"testing"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/notification"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/m-mizutani/gt"
)

func TestPushEncodeDecode(t *testing.T) {
	id := types.NewAlertID()
	p := notification.PushFor(id, types.UrgencyHigh, "title", "body")

	data := p.Encode()
	gt.Equal(t, data["alert_id"], id.String())
	gt.Equal(t, data["urgency"], "high")

	got := gt.R1(notification.DecodePush(data)).NoError(t)
	gt.Equal(t, *got, p)
}

func TestDecodePush(t *testing.T) {
	id := types.NewAlertID()

	t.Run("unknown urgency falls back to normal", func(t *testing.T) {
		got := gt.R1(notification.DecodePush(map[string]string{
			"alert_id": id.String(),
			"urgency":  "extreme",
		})).NoError(t)
		gt.Equal(t, got.Urgency, types.UrgencyNormal)
	})

	t.Run("missing alert id", func(t *testing.T) {
		_, err := notification.DecodePush(map[string]string{"urgency": "high"})
		gt.Error(t, err)
	})

	t.Run("other message type", func(t *testing.T) {
		_, err := notification.DecodePush(map[string]string{
			"type":     "promo",
			"alert_id": id.String(),
		})
		gt.Error(t, err)
	})
}

func TestPushNotificationDefaults(t *testing.T) {
	id := types.NewAlertID()
	n := notification.Push{AlertID: id, Urgency: types.UrgencyUrgent}.Notification()
	gt.Equal(t, n.ID, types.NotificationIDOf(id))
	gt.Equal(t, n.Title, "URGENT: Yuh Blockin'!")
	gt.Equal(t, n.Body, "Someone needs you to move your vehicle.")
}
