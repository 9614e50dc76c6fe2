package push

import (
	"context"
	"sync"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/interfaces"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/notification"
)

// Recorder is an in-process PushSender. A Handler, if set, receives the
// encoded payload the way the device's push entry point would.
type Recorder struct {
	mu      sync.Mutex
	sent    map[string][]notification.Push
	failFor map[string]error

	Handler func(ctx context.Context, data map[string]string) error
}

var _ interfaces.PushSender = &Recorder{}

func NewRecorder() *Recorder {
	return &Recorder{
		sent:    make(map[string][]notification.Push),
		failFor: make(map[string]error),
	}
}

// Fail makes every push to token fail with err.
func (x *Recorder) Fail(token string, err error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.failFor[token] = err
}

func (x *Recorder) Push(ctx context.Context, token string, p notification.Push) error {
	x.mu.Lock()
	if err := x.failFor[token]; err != nil {
		x.mu.Unlock()
		return err
	}
	x.sent[token] = append(x.sent[token], p)
	handler := x.Handler
	x.mu.Unlock()

	if handler != nil {
		return handler(ctx, p.Encode())
	}
	return nil
}

func (x *Recorder) Sent(token string) []notification.Push {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]notification.Push(nil), x.sent[token]...)
}
