package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/alert"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/errs"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/lifecycle"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/notification"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/push"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/spamguard"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/clock"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/errutil"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/logging"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/metrics"
	"github.com/m-mizutani/goerr/v2"
	"github.com/samber/lo"
)

// SendRequest is one "Yuh Blockin'!" from the sender's device.
type SendRequest struct {
	Sender  types.UserID  `json:"sender"`
	Plate   string        `json:"plate"`
	Urgency types.Urgency `json:"urgency"`
	Message string        `json:"message,omitempty"`
}

func (x SendRequest) Validate() error {
	if x.Sender == types.EmptyUserID {
		return goerr.New("sender is required", goerr.T(errs.TagValidation))
	}
	if types.NormalizePlate(x.Plate) == "" {
		return goerr.New("plate is required", goerr.T(errs.TagValidation))
	}
	if err := x.Urgency.Validate(); err != nil {
		return goerr.Wrap(err, "invalid send request", goerr.T(errs.TagValidation))
	}
	return nil
}

// SendResult has one entry per registered owner of the plate.
type SendResult struct {
	Alerts     []lifecycle.SenderView `json:"alerts"`
	Capability types.Capability       `json:"capability"`
}

// Delivered counts the alerts the store accepted.
func (x SendResult) Delivered() int {
	n := 0
	for _, a := range x.Alerts {
		if a.State != types.SenderFailed {
			n++
		}
	}
	return n
}

// SendAlert checks the capability gate, resolves the plate to its owners and
// inserts one alert per owner. Sender-side state machines move to delivered
// when the store accepts the alert and to failed otherwise.
//
// A plate without owners fails with a no-recipient error, distinct from a
// transport error. When every insert fails the transport error is returned;
// partial failures are reported through the result.
func (u *UseCases) SendAlert(ctx context.Context, req SendRequest) (*SendResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	logger := logging.From(ctx).With(slog.String("sender", req.Sender.String()))

	capa, err := u.capability.CanSendAlert(ctx, req.Sender)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to check capability",
			goerr.T(errs.TagTransport), goerr.TV(errutil.SenderIDKey, req.Sender))
	}
	if !capa.Allowed {
		metrics.AlertsSent.WithLabelValues("denied").Inc()
		return nil, goerr.Wrap(errs.ErrCapabilityDenied, capa.Reason,
			goerr.T(errs.TagCapabilityDenied),
			goerr.TV(errutil.SenderIDKey, req.Sender),
			goerr.TV(errutil.ReasonKey, capa.Reason),
			goerr.V("remaining", capa.Remaining))
	}

	plate := types.HashPlate(req.Plate)
	owners, err := u.repository.ResolveRecipient(ctx, plate)
	if err != nil {
		metrics.AlertsSent.WithLabelValues("transport").Inc()
		return nil, goerr.Wrap(err, "failed to resolve plate owner",
			goerr.T(errs.TagTransport), goerr.TV(errutil.PlateHashKey, plate))
	}
	// alerting your own plate reaches nobody
	owners = lo.Without(owners, req.Sender)

	if len(owners) == 0 {
		// the attempt still gets a sender machine so it shows up as failed
		id := types.NewAlertID()
		noRecipient := goerr.Wrap(errs.ErrNoRecipient, "plate is not registered",
			goerr.T(errs.TagNoRecipient),
			goerr.TV(errutil.AlertIDKey, id),
			goerr.TV(errutil.PlateHashKey, plate))
		_ = u.senders.Get(id).Fail(noRecipient)
		metrics.AlertsSent.WithLabelValues("no_recipient").Inc()
		return nil, noRecipient
	}

	var reservation *spamguard.Reservation
	if u.spamGuard != nil {
		decision, r, err := u.spamGuard.Reserve(ctx, req.Sender, plate)
		if err != nil {
			return nil, err
		}
		reservation = r
		if !decision.Allowed {
			metrics.AlertsSent.WithLabelValues("rate_limited").Inc()
			return nil, goerr.New(decision.Reason,
				goerr.T(errs.TagRateLimit),
				goerr.TV(errutil.SenderIDKey, req.Sender),
				goerr.TV(errutil.DurationKey, decision.RetryAfter))
		}
	}

	result := &SendResult{Capability: capa}
	var failures []error
	for _, owner := range owners {
		view, err := u.sendOne(ctx, req, plate, owner)
		result.Alerts = append(result.Alerts, view)
		if err != nil {
			failures = append(failures, err)
		}
	}

	if len(failures) == len(owners) {
		// nothing reached the store; the attempt must not count against
		// the sender's limits
		if err := reservation.Release(ctx); err != nil {
			errs.Handle(ctx, err)
		}
		metrics.AlertsSent.WithLabelValues("transport").Inc()
		return nil, goerr.Wrap(errors.Join(failures...), "failed to send alert",
			goerr.T(errs.TagTransport), goerr.TV(errutil.PlateHashKey, plate))
	}
	metrics.AlertsSent.WithLabelValues("sent").Inc()

	logger.Info("alert sent",
		slog.Int("recipients", len(owners)),
		slog.Int("delivered", result.Delivered()))
	return result, nil
}

func (u *UseCases) sendOne(ctx context.Context, req SendRequest, plate types.PlateHash, owner types.UserID) (lifecycle.SenderView, error) {
	now := clock.Now(ctx)
	a := alert.New(req.Sender, owner, plate, req.Urgency, strings.TrimSpace(req.Message), now)
	machine := u.senders.Get(a.ID)

	if _, err := u.repository.Insert(ctx, a); err != nil {
		wrapped := goerr.Wrap(err, "failed to insert alert",
			goerr.T(errs.TagTransport),
			goerr.TV(errutil.AlertIDKey, a.ID),
			goerr.TV(errutil.ReceiverIDKey, owner))
		_ = machine.Fail(wrapped)
		return machine.View(), wrapped
	}
	if err := machine.Delivered(now); err != nil {
		// a response raced ahead of us on the live query; it already moved on
		logging.From(ctx).Debug("sender state already advanced", logging.ErrAttr(err))
	}

	if err := u.tracker.TrackSent(ctx, a.ID, types.NormalizePlate(req.Plate), a.Urgency, a.Message); err != nil {
		errs.Handle(ctx, err)
	}

	if u.pusher != nil {
		title, body := notification.Compose(a)
		res, err := push.SendToUser(ctx, u.repository, u.pusher, owner, notification.PushFor(a.ID, a.Urgency, title, body))
		if err != nil {
			errs.Handle(ctx, err)
		} else {
			logging.From(ctx).Debug("push fan-out done",
				slog.String("alert_id", a.ID.String()),
				slog.Int("sent", res.Sent),
				slog.Int("failed", res.Failed))
		}
	}

	return machine.View(), nil
}
