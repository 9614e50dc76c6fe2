// Package tracker keeps the sender's list of alerts waiting for an answer.
package tracker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/interfaces"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/ack"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/errs"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/hook"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/clock"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/errutil"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/samber/lo"
)

// StorageKey is where the record list lives in the device-local store.
const StorageKey = "ack_records"

// Tracker persists ack.Records. Every operation is a read-modify-write of the
// whole list inside one KVStore.Update, so neither concurrent calls nor other
// processes sharing the store lose an update.
type Tracker struct {
	kv    interfaces.KVStore
	hooks interfaces.Hooks
}

type Option func(*Tracker)

func WithHooks(hooks interfaces.Hooks) Option {
	return func(t *Tracker) {
		t.hooks = hooks
	}
}

func New(kv interfaces.KVStore, opts ...Option) *Tracker {
	t := &Tracker{kv: kv, hooks: hook.Nop}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func decode(ctx context.Context, data []byte) []ack.Record {
	if data == nil {
		return nil
	}

	var doc ack.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		// a broken document must not block sending; start over
		errs.Handle(ctx, goerr.Wrap(err, "discarding unreadable ack records",
			goerr.T(errs.TagStorage), goerr.TV(errutil.StorageKey, StorageKey)))
		return nil
	}
	if doc.Version != ack.Version {
		logging.From(ctx).Warn("ack records written by another version",
			slog.String("version", doc.Version))
	}
	return doc.Records
}

func encode(records []ack.Record) ([]byte, error) {
	if records == nil {
		records = []ack.Record{}
	}
	data, err := json.Marshal(ack.Document{Version: ack.Version, Records: records})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode ack records", goerr.T(errs.TagStorage))
	}
	return data, nil
}

// mutate loads the list, applies fn and writes the result back when fn
// reports a change.
func (x *Tracker) mutate(ctx context.Context, fn func(records []ack.Record) ([]ack.Record, bool)) error {
	err := x.kv.Update(ctx, StorageKey, func(old []byte) ([]byte, error) {
		records, changed := fn(decode(ctx, old))
		if !changed {
			return nil, nil
		}
		return encode(records)
	})
	if err != nil {
		return goerr.Wrap(err, "failed to update ack records",
			goerr.T(errs.TagStorage), goerr.TV(errutil.StorageKey, StorageKey))
	}
	return nil
}

// TrackSent starts tracking a sent alert. Tracking the same alert again is a
// no-op; its timeout stays where it was first set.
func (x *Tracker) TrackSent(ctx context.Context, id types.AlertID, targetPlate string, urgency types.Urgency, message string) error {
	now := clock.Now(ctx)
	return x.mutate(ctx, func(records []ack.Record) ([]ack.Record, bool) {
		if lo.ContainsBy(records, func(r ack.Record) bool { return r.AlertID == id }) {
			return records, false
		}
		return append(records, ack.NewRecord(id, targetPlate, urgency, message, now)), true
	})
}

// MarkAcknowledged records that the receiver answered. It returns false when
// the alert is not tracked or was already acknowledged.
func (x *Tracker) MarkAcknowledged(ctx context.Context, id types.AlertID) (bool, error) {
	now := clock.Now(ctx).UTC()
	var marked bool
	err := x.mutate(ctx, func(records []ack.Record) ([]ack.Record, bool) {
		marked = false
		_, idx, found := lo.FindIndexOf(records, func(r ack.Record) bool { return r.AlertID == id })
		if !found || records[idx].AcknowledgedAt != nil {
			return records, false
		}
		records[idx].AcknowledgedAt = &now
		records[idx].Status = types.AckAcknowledged
		marked = true
		return records, true
	})
	if err != nil {
		return false, err
	}
	return marked, nil
}

// GetAll recomputes every status at the current time, drops acknowledged
// records past their retention, persists whatever changed and returns the
// list in sending order.
func (x *Tracker) GetAll(ctx context.Context) ([]ack.Record, error) {
	now := clock.Now(ctx)
	var result []ack.Record
	err := x.mutate(ctx, func(records []ack.Record) ([]ack.Record, bool) {
		changed := false
		kept := lo.Filter(records, func(r ack.Record, _ int) bool {
			if r.Expired(now) {
				changed = true
				return false
			}
			return true
		})
		for i := range kept {
			if status := kept[i].StatusAt(now); status != kept[i].Status {
				kept[i].Status = status
				changed = true
			}
		}
		result = kept
		return kept, changed
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Get returns one record after recomputing the list, or nil.
func (x *Tracker) Get(ctx context.Context, id types.AlertID) (*ack.Record, error) {
	records, err := x.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	r, ok := lo.Find(records, func(r ack.Record) bool { return r.AlertID == id })
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// GetSummary counts the recomputed records and hands the result to the
// OnAckTimeoutComputed hook.
func (x *Tracker) GetSummary(ctx context.Context) (ack.Summary, error) {
	records, err := x.GetAll(ctx)
	if err != nil {
		return ack.Summary{}, err
	}
	summary := ack.Summarize(records)
	x.hooks.OnAckTimeoutComputed(ctx, summary)
	return summary, nil
}

// Remove stops tracking an alert.
func (x *Tracker) Remove(ctx context.Context, id types.AlertID) error {
	return x.mutate(ctx, func(records []ack.Record) ([]ack.Record, bool) {
		kept := lo.Reject(records, func(r ack.Record, _ int) bool { return r.AlertID == id })
		return kept, len(kept) != len(records)
	})
}
