package hook

import (
	"context"
	"sync"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/interfaces"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/ack"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
)

// Recorder keeps every hook invocation. Used by tests and the CLI's summary
// output.
type Recorder struct {
	mu        sync.Mutex
	notified  []types.AlertID
	responses map[types.AlertID]types.ResponseCode
	summaries []ack.Summary
}

var _ interfaces.Hooks = &Recorder{}

func NewRecorder() *Recorder {
	return &Recorder{responses: make(map[types.AlertID]types.ResponseCode)}
}

func (x *Recorder) OnAlertNotified(ctx context.Context, id types.AlertID) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.notified = append(x.notified, id)
}

func (x *Recorder) OnResponseObserved(ctx context.Context, id types.AlertID, code types.ResponseCode) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.responses[id] = code
}

func (x *Recorder) OnAckTimeoutComputed(ctx context.Context, summary ack.Summary) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.summaries = append(x.summaries, summary)
}

func (x *Recorder) Notified() []types.AlertID {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]types.AlertID(nil), x.notified...)
}

func (x *Recorder) Response(id types.AlertID) (types.ResponseCode, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	code, ok := x.responses[id]
	return code, ok
}

// LastSummary returns the most recent summary, or false if none was computed.
func (x *Recorder) LastSummary() (ack.Summary, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if len(x.summaries) == 0 {
		return ack.Summary{}, false
	}
	return x.summaries[len(x.summaries)-1], true
}
