package interfaces

import (
	"context"
	"time"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/ack"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/notification"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
)

// Notifier is a platform notification surface. Showing a notification whose
// ID is already displayed replaces it.
type Notifier interface {
	Show(ctx context.Context, n notification.Notification) error
}

type Vibrator interface {
	Vibrate(ctx context.Context, pattern []time.Duration) error
}

// Presenter renders an alert as a notification. It never fails.
type Presenter interface {
	Present(ctx context.Context, id types.AlertID, title, body string, urgency types.Urgency)
}

// SoundPreferences resolves the user's sound for an urgency.
type SoundPreferences interface {
	GetSoundForLevel(ctx context.Context, urgency types.Urgency) (string, error)
}

// CapabilityGate answers whether a user may send an alert right now.
type CapabilityGate interface {
	CanSendAlert(ctx context.Context, user types.UserID) (types.Capability, error)
}

// Hooks are the lifecycle events exposed to the UI layer. Implementations
// must not block.
type Hooks interface {
	OnAlertNotified(ctx context.Context, id types.AlertID)
	OnResponseObserved(ctx context.Context, id types.AlertID, code types.ResponseCode)
	OnAckTimeoutComputed(ctx context.Context, summary ack.Summary)
}

// PushSender delivers a data-only push message to one device token.
type PushSender interface {
	Push(ctx context.Context, token string, p notification.Push) error
}
