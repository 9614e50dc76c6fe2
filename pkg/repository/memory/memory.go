package memory

import (
	"sync"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/interfaces"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/alert"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/errutil"
	"github.com/m-mizutani/goerr/v2"
)

// Memory is an in-process alert store with a realtime feed. It backs tests
// and the single-process demo mode of the CLI.
type Memory struct {
	mu sync.Mutex

	alerts  map[types.AlertID]*alert.Alert
	plates  map[types.PlateHash][]types.UserID
	tokens  map[types.UserID][]string
	streams map[*stream]struct{}

	// failures injected into the next Insert/Update/Subscribe calls
	failInsert    []error
	failUpdate    []error
	failSubscribe []error

	// Call counter for tracking method invocations
	callCounts map[string]int
	callMu     sync.RWMutex

	eb *goerr.Builder
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		alerts:     make(map[types.AlertID]*alert.Alert),
		plates:     make(map[types.PlateHash][]types.UserID),
		tokens:     make(map[types.UserID][]string),
		streams:    make(map[*stream]struct{}),
		callCounts: make(map[string]int),
		eb:         goerr.NewBuilder(goerr.TV(errutil.RepositoryKey, "memory")),
	}
}

// incrementCallCount safely increments the call counter for a method
func (r *Memory) incrementCallCount(methodName string) {
	r.callMu.Lock()
	defer r.callMu.Unlock()
	r.callCounts[methodName]++
}

// GetCallCount returns the number of times a method has been called
func (r *Memory) GetCallCount(methodName string) int {
	r.callMu.RLock()
	defer r.callMu.RUnlock()
	return r.callCounts[methodName]
}

// FailInsert makes the next Insert calls fail with errs, one per call.
func (r *Memory) FailInsert(errs ...error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failInsert = append(r.failInsert, errs...)
}

// FailUpdate makes the next Update calls fail with errs, one per call.
func (r *Memory) FailUpdate(errs ...error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failUpdate = append(r.failUpdate, errs...)
}

// FailSubscribe makes the next subscription attempts fail with errs, one per call.
func (r *Memory) FailSubscribe(errs ...error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failSubscribe = append(r.failSubscribe, errs...)
}

// BreakStreams ends every open subscription with err, as a dropped
// connection would.
func (r *Memory) BreakStreams(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for s := range r.streams {
		s.fail(err)
	}
}

// ActiveStreams returns the number of open subscriptions.
func (r *Memory) ActiveStreams() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.streams)
}

func popError(queue *[]error) error {
	if len(*queue) == 0 {
		return nil
	}
	err := (*queue)[0]
	*queue = (*queue)[1:]
	return err
}
