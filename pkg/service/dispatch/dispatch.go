// Package dispatch turns store rows and push payloads into at most one
// visible notification per alert.
package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/interfaces"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/alert"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/errs"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/lifecycle"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/notification"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/dedup"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/hook"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/supervisor"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/clock"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/errutil"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/logging"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/metrics"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

// DefaultFreshness is how old a store-observed alert may be and still raise
// a notification. Every store-backed surface uses the same value.
const DefaultFreshness = 60 * time.Second

// Dispatcher is one delivery surface. It owns its dedup registry; the
// notification id derived from the alert id collapses what several surfaces
// post for the same alert.
type Dispatcher struct {
	surface   types.Surface
	presenter interfaces.Presenter
	registry  *dedup.Registry
	store     interfaces.AlertStore
	hooks     interfaces.Hooks
	receivers *lifecycle.ReceiverBook
	freshness time.Duration
}

type Option func(*Dispatcher)

// WithStore enables the best-effort delivered_at write after presenting.
func WithStore(store interfaces.AlertStore) Option {
	return func(d *Dispatcher) {
		d.store = store
	}
}

func WithHooks(hooks interfaces.Hooks) Option {
	return func(d *Dispatcher) {
		d.hooks = hooks
	}
}

// WithReceivers shares the receiver state machines with other components of
// the same process.
func WithReceivers(book *lifecycle.ReceiverBook) Option {
	return func(d *Dispatcher) {
		d.receivers = book
	}
}

func WithFreshness(window time.Duration) Option {
	return func(d *Dispatcher) {
		d.freshness = window
	}
}

func WithRegistry(registry *dedup.Registry) Option {
	return func(d *Dispatcher) {
		d.registry = registry
	}
}

func New(surface types.Surface, presenter interfaces.Presenter, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		surface:   surface,
		presenter: presenter,
		hooks:     hook.Nop,
		freshness: DefaultFreshness,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.registry == nil {
		d.registry = dedup.New(dedup.DefaultCapacity)
	}
	if d.receivers == nil {
		d.receivers = lifecycle.NewReceiverBook()
	}
	return d
}

func (x *Dispatcher) Surface() types.Surface {
	return x.surface
}

func (x *Dispatcher) Receivers() *lifecycle.ReceiverBook {
	return x.receivers
}

// Supervise returns a supervisor that feeds the receiver's live query into
// HandleRow.
func (x *Dispatcher) Supervise(store interfaces.AlertStore, opts ...supervisor.Option) *supervisor.Supervisor {
	return supervisor.New(x.surface.String(), store.SubscribeByReceiver, x.HandleRow, opts...)
}

// HandleRow is the store-backed handler. It never fails: problems are logged
// and counted, and the next row is handled independently.
func (x *Dispatcher) HandleRow(ctx context.Context, row alert.Alert) {
	x.guard(ctx, row.ID, func() error {
		return x.handleRow(ctx, row)
	})
}

func (x *Dispatcher) handleRow(ctx context.Context, row alert.Alert) error {
	logger := logging.From(ctx).With(
		slog.String("alert_id", row.ID.String()),
		slog.String("surface", x.surface.String()),
	)
	now := clock.Now(ctx)

	if !row.NeedsNotification(now, x.freshness) {
		logger.Debug("row does not need a notification",
			slog.String("receiver_state", row.ReceiverState().String()),
			slog.Duration("age", now.Sub(row.CreatedAt)))
		return nil
	}

	if x.registry.SeenOrMark(row.ID) {
		metrics.DedupHits.WithLabelValues(x.surface.String()).Inc()
		logger.Debug("alert already notified on this surface")
		return nil
	}

	title, body := notification.Compose(row)
	x.presenter.Present(ctx, row.ID, title, body, row.Urgency)
	x.notified(ctx, row.ID)

	if x.store != nil && row.DeliveredAt == nil {
		if _, err := x.store.Update(ctx, row.ID, alert.Delivered(now)); err != nil {
			// the notification is already up; delivered_at is informational
			logger.Warn("failed to record delivery", logging.ErrAttr(err))
		}
	}
	return nil
}

// HandlePush presents an alert from a platform push payload. Push payloads
// carry no creation time, so no freshness filter applies. The returned error
// only reports an undecodable payload; presentation never fails.
func (x *Dispatcher) HandlePush(ctx context.Context, data map[string]string) error {
	p, err := notification.DecodePush(data)
	if err != nil {
		metrics.DeliveryFailures.WithLabelValues(x.surface.String()).Inc()
		return goerr.Wrap(err, "invalid push payload", goerr.TV(errutil.SurfaceKey, x.surface.String()))
	}

	x.guard(ctx, p.AlertID, func() error {
		if x.registry.SeenOrMark(p.AlertID) {
			metrics.DedupHits.WithLabelValues(x.surface.String()).Inc()
			return nil
		}
		n := p.Notification()
		x.presenter.Present(ctx, p.AlertID, n.Title, n.Body, p.Urgency)
		x.notified(ctx, p.AlertID)
		return nil
	})
	return nil
}

func (x *Dispatcher) notified(ctx context.Context, id types.AlertID) {
	r := x.receivers.Get(id)
	if r.State() == types.ReceiverUnseen {
		if err := r.Notify(); err != nil {
			logging.From(ctx).Debug("receiver state not advanced", logging.ErrAttr(err))
		}
	}
	x.hooks.OnAlertNotified(ctx, id)
}

// guard isolates one delivery attempt: a panic or error is reported and
// swallowed.
func (x *Dispatcher) guard(ctx context.Context, id types.AlertID, fn func() error) {
	if err := safe.Run(fn); err != nil {
		metrics.DeliveryFailures.WithLabelValues(x.surface.String()).Inc()
		errs.Handle(ctx, goerr.Wrap(err, "delivery attempt failed",
			goerr.TV(errutil.AlertIDKey, id),
			goerr.TV(errutil.SurfaceKey, x.surface.String())))
	}
}
