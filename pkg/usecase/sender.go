package usecase

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/ack"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/alert"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/errs"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/lifecycle"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/supervisor"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/clock"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/errutil"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// WatchSent returns a supervisor over the sender's live query. Start it with
// the sender's id; every row goes through ObserveSent.
func (u *UseCases) WatchSent(opts ...supervisor.Option) *supervisor.Supervisor {
	return supervisor.New("sent", u.repository.SubscribeBySender, u.ObserveSent, opts...)
}

// ObserveSent applies one row of the sender's live query. A newly seen
// response acknowledges the tracker record and fires OnResponseObserved once.
func (u *UseCases) ObserveSent(ctx context.Context, row alert.Alert) {
	// a replayed row answered long ago belongs to a machine already
	// forgotten; do not bring it back
	if _, ok := u.senders.Lookup(row.ID); !ok && row.ResponseAt != nil &&
		clock.Now(ctx).Sub(*row.ResponseAt) > u.senderRetention {
		return
	}
	machine := u.senders.Get(row.ID)

	// rows from before a restart: the store has them, so they were delivered
	if machine.State() == types.SenderSending && row.Response == nil {
		at := row.CreatedAt
		if row.DeliveredAt != nil {
			at = *row.DeliveredAt
		}
		_ = machine.Delivered(at)
	}

	if row.Response == nil {
		return
	}

	applied, err := machine.Observe(*row.Response)
	if err != nil {
		errs.Handle(ctx, goerr.Wrap(err, "failed to apply observed response",
			goerr.TV(errutil.AlertIDKey, row.ID)))
		return
	}
	if !applied {
		return
	}

	if _, err := u.tracker.MarkAcknowledged(ctx, row.ID); err != nil {
		errs.Handle(ctx, err)
	}

	logging.From(ctx).Info("response observed",
		slog.String("alert_id", row.ID.String()),
		slog.String("response", row.Response.String()),
		slog.String("state", machine.State().String()))
	u.hooks.OnResponseObserved(ctx, row.ID, *row.Response)
}

// CheckDeliveryTimeouts moves delivered alerts without an answer past the
// ack window to timeout, then recomputes the tracker summary, which fires
// OnAckTimeoutComputed. It returns the alerts that timed out in this call.
func (u *UseCases) CheckDeliveryTimeouts(ctx context.Context) ([]types.AlertID, ack.Summary, error) {
	now := clock.Now(ctx)

	var timedOut []types.AlertID
	for _, machine := range u.senders.All() {
		if machine.CheckTimeout(now, u.ackWindow) {
			timedOut = append(timedOut, machine.AlertID())
		}
	}
	slices.Sort(timedOut)
	u.forgetSettled(now)

	summary, err := u.tracker.GetSummary(ctx)
	if err != nil {
		return timedOut, ack.Summary{}, err
	}
	return timedOut, summary, nil
}

// forgetSettled drops resolved and failed machines once they have been
// settled for longer than the retention. The settle time is when a check
// first saw the machine settled.
func (u *UseCases) forgetSettled(now time.Time) {
	u.settledMu.Lock()
	defer u.settledMu.Unlock()

	for _, machine := range u.senders.All() {
		id := machine.AlertID()
		switch machine.State() {
		case types.SenderResolved, types.SenderFailed:
		default:
			delete(u.settled, id)
			continue
		}

		since, ok := u.settled[id]
		if !ok {
			u.settled[id] = now
			continue
		}
		if now.Sub(since) > u.senderRetention {
			u.senders.Forget(id)
			delete(u.settled, id)
		}
	}
}

// RunTimeoutChecks calls CheckDeliveryTimeouts every interval until ctx is
// cancelled.
func (u *UseCases) RunTimeoutChecks(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ids, _, err := u.CheckDeliveryTimeouts(ctx)
			if err != nil {
				errs.Handle(ctx, err)
				continue
			}
			for _, id := range ids {
				logging.From(ctx).Info("alert timed out without answer", slog.String("alert_id", id.String()))
			}
		}
	}
}

// ResolveAlert is the out-of-band follow-up for answers that do not close the
// alert by themselves, such as five_minutes.
func (u *UseCases) ResolveAlert(ctx context.Context, id types.AlertID) (*lifecycle.SenderView, error) {
	machine, ok := u.senders.Lookup(id)
	if !ok {
		return nil, goerr.New("alert is not tracked by this sender",
			goerr.T(errs.TagNotFound), goerr.TV(errutil.AlertIDKey, id))
	}
	if err := machine.Resolve(); err != nil {
		return nil, err
	}
	view := machine.View()
	return &view, nil
}

// SentAlert returns the sender-side view of one alert.
func (u *UseCases) SentAlert(id types.AlertID) (*lifecycle.SenderView, bool) {
	machine, ok := u.senders.Lookup(id)
	if !ok {
		return nil, false
	}
	view := machine.View()
	return &view, true
}

// SentAlerts returns every sender-side view of this process, by alert id.
func (u *UseCases) SentAlerts() []lifecycle.SenderView {
	machines := u.senders.All()
	views := make([]lifecycle.SenderView, 0, len(machines))
	for _, m := range machines {
		views = append(views, m.View())
	}
	slices.SortFunc(views, func(a, b lifecycle.SenderView) int {
		return strings.Compare(a.AlertID.String(), b.AlertID.String())
	})
	return views
}

// Acks returns the recomputed tracker records.
func (u *UseCases) Acks(ctx context.Context) ([]ack.Record, error) {
	return u.tracker.GetAll(ctx)
}

func (u *UseCases) AckSummary(ctx context.Context) (ack.Summary, error) {
	return u.tracker.GetSummary(ctx)
}

func (u *UseCases) RemoveAck(ctx context.Context, id types.AlertID) error {
	return u.tracker.Remove(ctx, id)
}
