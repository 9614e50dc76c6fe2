// Package lifecycle holds the per-alert state machines of both parties.
package lifecycle

import (
	"slices"
	"sync"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/errs"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/errutil"
	"github.com/m-mizutani/goerr/v2"
)

type state interface {
	~string
}

func checkTransition[S state](id types.AlertID, table map[S][]S, from, to S) error {
	if slices.Contains(table[from], to) {
		return nil
	}
	return goerr.New("invalid state transition",
		goerr.T(errs.TagInvalidState),
		goerr.TV(errutil.AlertIDKey, id),
		goerr.TV(errutil.FromKey, string(from)),
		goerr.TV(errutil.ToKey, string(to)))
}

// Book keeps one state machine per alert id.
type Book[M any] struct {
	mu       sync.Mutex
	machines map[types.AlertID]*M
	create   func(types.AlertID) *M
}

func newBook[M any](create func(types.AlertID) *M) *Book[M] {
	return &Book[M]{
		machines: make(map[types.AlertID]*M),
		create:   create,
	}
}

// Get returns the machine for id, creating it in its initial state.
func (x *Book[M]) Get(id types.AlertID) *M {
	x.mu.Lock()
	defer x.mu.Unlock()

	if m, ok := x.machines[id]; ok {
		return m
	}
	m := x.create(id)
	x.machines[id] = m
	return m
}

func (x *Book[M]) Lookup(id types.AlertID) (*M, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	m, ok := x.machines[id]
	return m, ok
}

func (x *Book[M]) Put(id types.AlertID, m *M) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.machines[id] = m
}

func (x *Book[M]) Forget(id types.AlertID) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.machines, id)
}

// All returns the machines in no particular order.
func (x *Book[M]) All() []*M {
	x.mu.Lock()
	defer x.mu.Unlock()

	out := make([]*M, 0, len(x.machines))
	for _, m := range x.machines {
		out = append(out, m)
	}
	return out
}
