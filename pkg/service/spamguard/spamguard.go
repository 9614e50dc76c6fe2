// Package spamguard limits how often one sender may alert.
package spamguard

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/interfaces"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/errs"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/clock"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/errutil"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/samber/lo"
)

const (
	DefaultCooldown  = 60 * time.Second
	DefaultHourlyCap = 10

	capWindow = time.Hour
)

// Decision is the outcome of Check. RetryAfter is set when Allowed is false.
type Decision struct {
	Allowed    bool          `json:"allowed"`
	Reason     string        `json:"reason,omitempty"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

type sendEntry struct {
	ID    string          `json:"id,omitempty"`
	Plate types.PlateHash `json:"plate"`
	At    time.Time       `json:"at"`
}

// Guard enforces a cooldown per sender and plate and a cap per sender per
// hour. History is kept in device-local storage, one document per sender, and
// every change goes through KVStore.Update so processes sharing the store see
// each other's sends.
type Guard struct {
	kv        interfaces.KVStore
	cooldown  time.Duration
	hourlyCap int
}

type Option func(*Guard)

func WithCooldown(d time.Duration) Option {
	return func(g *Guard) {
		g.cooldown = d
	}
}

func WithHourlyCap(n int) Option {
	return func(g *Guard) {
		g.hourlyCap = n
	}
}

func New(kv interfaces.KVStore, opts ...Option) *Guard {
	g := &Guard{kv: kv, cooldown: DefaultCooldown, hourlyCap: DefaultHourlyCap}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func keyFor(sender types.UserID) string {
	return "spamguard:" + sender.String()
}

func decode(data []byte, now time.Time) ([]sendEntry, error) {
	if data == nil {
		return nil, nil
	}
	var entries []sendEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, goerr.Wrap(err, "failed to decode send history", goerr.T(errs.TagStorage))
	}
	return lo.Filter(entries, func(e sendEntry, _ int) bool {
		return now.Sub(e.At) < capWindow
	}), nil
}

func encode(entries []sendEntry) ([]byte, error) {
	if entries == nil {
		entries = []sendEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode send history", goerr.T(errs.TagStorage))
	}
	return data, nil
}

// update runs fn on sender's history inside one atomic store update. fn
// returns the new history, or nil to leave it as is.
func (x *Guard) update(ctx context.Context, sender types.UserID, now time.Time, fn func(entries []sendEntry) []sendEntry) error {
	err := x.kv.Update(ctx, keyFor(sender), func(old []byte) ([]byte, error) {
		entries, err := decode(old, now)
		if err != nil {
			return nil, err
		}
		next := fn(entries)
		if next == nil {
			return nil, nil
		}
		return encode(next)
	})
	if err != nil {
		return goerr.Wrap(err, "failed to update send history",
			goerr.T(errs.TagStorage), goerr.TV(errutil.SenderIDKey, sender))
	}
	return nil
}

// Check reports whether sender may alert plate now. It does not record
// anything; use Reserve on the send path.
func (x *Guard) Check(ctx context.Context, sender types.UserID, plate types.PlateHash) (Decision, error) {
	now := clock.Now(ctx)
	data, err := x.kv.Get(ctx, keyFor(sender))
	if err != nil {
		return Decision{}, goerr.Wrap(err, "failed to read send history",
			goerr.T(errs.TagStorage), goerr.TV(errutil.SenderIDKey, sender))
	}
	entries, err := decode(data, now)
	if err != nil {
		return Decision{}, goerr.Wrap(err, "unreadable send history", goerr.TV(errutil.SenderIDKey, sender))
	}
	return x.decide(entries, plate, now), nil
}

func (x *Guard) decide(entries []sendEntry, plate types.PlateHash, now time.Time) Decision {
	for _, e := range entries {
		if e.Plate == plate && now.Sub(e.At) < x.cooldown {
			return Decision{
				Reason:     "this vehicle was alerted a moment ago",
				RetryAfter: x.cooldown - now.Sub(e.At),
			}
		}
	}

	if x.hourlyCap > 0 && len(entries) >= x.hourlyCap {
		oldest := lo.MinBy(entries, func(a, b sendEntry) bool { return a.At.Before(b.At) })
		return Decision{
			Reason:     "hourly alert limit reached",
			RetryAfter: capWindow - now.Sub(oldest.At),
		}
	}
	return Decision{Allowed: true}
}

// Reservation is a send counted against the limits before it happened.
// Release takes it back when the send failed.
type Reservation struct {
	guard  *Guard
	sender types.UserID
	id     string
}

// Reserve checks the limits and, when allowed, records the send in the same
// atomic update. Two racing sends for one plate cannot both pass the
// cooldown. The reservation is nil when the decision is not allowed.
func (x *Guard) Reserve(ctx context.Context, sender types.UserID, plate types.PlateHash) (Decision, *Reservation, error) {
	now := clock.Now(ctx)
	id := uuid.NewString()

	var decision Decision
	err := x.update(ctx, sender, now, func(entries []sendEntry) []sendEntry {
		decision = x.decide(entries, plate, now)
		if !decision.Allowed {
			return nil
		}
		return append(entries, sendEntry{ID: id, Plate: plate, At: now.UTC()})
	})
	if err != nil {
		return Decision{}, nil, err
	}
	if !decision.Allowed {
		return decision, nil, nil
	}
	return decision, &Reservation{guard: x, sender: sender, id: id}, nil
}

// Release removes the reserved send from the history. Releasing twice is a
// no-op.
func (x *Reservation) Release(ctx context.Context) error {
	if x == nil {
		return nil
	}
	return x.guard.update(ctx, x.sender, clock.Now(ctx), func(entries []sendEntry) []sendEntry {
		kept := lo.Reject(entries, func(e sendEntry, _ int) bool { return e.ID == x.id })
		if len(kept) == len(entries) {
			return nil
		}
		return kept
	})
}

// Record adds a send to sender's history without checking the limits.
func (x *Guard) Record(ctx context.Context, sender types.UserID, plate types.PlateHash) error {
	now := clock.Now(ctx)
	return x.update(ctx, sender, now, func(entries []sendEntry) []sendEntry {
		return append(entries, sendEntry{ID: uuid.NewString(), Plate: plate, At: now.UTC()})
	})
}
