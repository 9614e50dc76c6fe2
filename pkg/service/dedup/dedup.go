// Package dedup remembers which alerts a delivery surface already notified.
package dedup

import (
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity bounds the registry; the oldest id is evicted first.
const DefaultCapacity = 100

// Registry is an ordered, bounded set of alert ids. Lookups do not refresh an
// entry's position, so eviction is strictly by insertion order. One Registry
// serves one delivery surface; it is safe for concurrent use.
type Registry struct {
	seen *lru.Cache[types.AlertID, struct{}]
}

func New(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	cache, err := lru.New[types.AlertID, struct{}](capacity)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	return &Registry{seen: cache}
}

func (x *Registry) HasSeen(id types.AlertID) bool {
	return x.seen.Contains(id)
}

func (x *Registry) MarkSeen(id types.AlertID) {
	if x.seen.Contains(id) {
		return
	}
	x.seen.Add(id, struct{}{})
}

// SeenOrMark atomically checks and marks id. It returns true when id had
// already been seen, in which case the caller must not notify again.
func (x *Registry) SeenOrMark(id types.AlertID) bool {
	ok, _ := x.seen.ContainsOrAdd(id, struct{}{})
	return ok
}

func (x *Registry) Len() int {
	return x.seen.Len()
}
