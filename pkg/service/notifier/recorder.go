package notifier

import (
	"context"
	"sync"
	"time"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/interfaces"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/notification"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
)

// Recorder behaves like a platform notification tray: posting an id that is
// already visible replaces it. Several processes' presenters may share one
// Recorder to model a single device.
type Recorder struct {
	mu         sync.Mutex
	visible    map[types.NotificationID]notification.Notification
	posts      []notification.Notification
	vibrations [][]time.Duration

	showErr    error
	vibrateErr error
}

var _ interfaces.Notifier = &Recorder{}
var _ interfaces.Vibrator = &Recorder{}

func NewRecorder() *Recorder {
	return &Recorder{
		visible: make(map[types.NotificationID]notification.Notification),
	}
}

// FailShow makes every Show call fail with err until it is called with nil.
func (x *Recorder) FailShow(err error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.showErr = err
}

// FailVibrate makes every Vibrate call fail with err until it is called with nil.
func (x *Recorder) FailVibrate(err error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.vibrateErr = err
}

func (x *Recorder) Show(ctx context.Context, n notification.Notification) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.showErr != nil {
		return x.showErr
	}
	x.posts = append(x.posts, n)
	x.visible[n.ID] = n
	return nil
}

func (x *Recorder) Vibrate(ctx context.Context, pattern []time.Duration) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.vibrateErr != nil {
		return x.vibrateErr
	}
	x.vibrations = append(x.vibrations, pattern)
	return nil
}

// Visible returns the notifications currently in the tray.
func (x *Recorder) Visible() []notification.Notification {
	x.mu.Lock()
	defer x.mu.Unlock()

	out := make([]notification.Notification, 0, len(x.visible))
	for _, n := range x.visible {
		out = append(out, n)
	}
	return out
}

// Posts returns every successful Show call in order.
func (x *Recorder) Posts() []notification.Notification {
	x.mu.Lock()
	defer x.mu.Unlock()

	out := make([]notification.Notification, len(x.posts))
	copy(out, x.posts)
	return out
}

func (x *Recorder) Vibrations() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.vibrations)
}
