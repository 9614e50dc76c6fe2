package usecase_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/adapter/storage"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/errs"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/repository"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/capability"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/dispatch"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/hook"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/notifier"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/presenter"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/push"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/spamguard"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/supervisor"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/tracker"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/usecase"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/clock"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

var t0 = time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

const (
	sender = types.UserID("driver")
	owner  = types.UserID("owner")
	plate  = "PDX 42"
)

type fixture struct {
	repo  *repository.Memory
	hooks *hook.Recorder
	uc    *usecase.UseCases
	clock *clock.Manual
	ctx   context.Context
}

func setup(t *testing.T, opts ...usecase.Option) *fixture {
	t.Helper()
	f := &fixture{
		repo:  repository.NewMemory(),
		hooks: hook.NewRecorder(),
		clock: clock.NewManual(t0),
	}
	f.ctx = clock.With(context.Background(), f.clock.Clock())

	base := []usecase.Option{
		usecase.WithRepository(f.repo),
		usecase.WithHooks(f.hooks),
		usecase.WithTracker(tracker.New(storage.NewMemory(), tracker.WithHooks(f.hooks))),
	}
	f.uc = usecase.New(append(base, opts...)...)

	gt.R1(f.uc.RegisterPlate(f.ctx, owner, plate)).NoError(t)
	return f
}

func (f *fixture) send(t *testing.T, urgency types.Urgency) types.AlertID {
	t.Helper()
	res := gt.R1(f.uc.SendAlert(f.ctx, usecase.SendRequest{
		Sender: sender, Plate: "pdx-42", Urgency: urgency, Message: "blocking the gate",
	})).NoError(t)
	gt.A(t, res.Alerts).Length(1).Required()
	return res.Alerts[0].AlertID
}

// observe replays the stored row into the sender's listener.
func (f *fixture) observe(t *testing.T, id types.AlertID) {
	t.Helper()
	row := gt.R1(f.repo.GetAlert(f.ctx, id)).NoError(t)
	f.uc.ObserveSent(f.ctx, *row)
}

func TestSendAlert(t *testing.T) {
	f := setup(t)
	id := f.send(t, types.UrgencyHigh)

	view, ok := f.uc.SentAlert(id)
	gt.True(t, ok)
	gt.Equal(t, view.State, types.SenderDelivered)

	stored := gt.R1(f.repo.GetAlert(f.ctx, id)).NoError(t)
	gt.Equal(t, stored.ReceiverID, owner)
	gt.Equal(t, stored.SenderID, sender)
	gt.Equal(t, stored.PlateHash, types.HashPlate(plate))
	gt.Equal(t, stored.CreatedAt, t0)

	records := gt.R1(f.uc.Acks(f.ctx)).NoError(t)
	gt.A(t, records).Length(1).Required()
	gt.Equal(t, records[0].AlertID, id)
	gt.Equal(t, records[0].TargetPlate, "PDX42")
	gt.Equal(t, records[0].Status, types.AckPending)
}

func TestSendAlertFailures(t *testing.T) {
	t.Run("no recipient is distinct from transport", func(t *testing.T) {
		f := setup(t)
		_, err := f.uc.SendAlert(f.ctx, usecase.SendRequest{Sender: sender, Plate: "UNKNOWN 1", Urgency: types.UrgencyNormal})
		gt.Error(t, err)
		gt.True(t, errs.IsNoRecipient(err))
		gt.False(t, errs.IsTransport(err))

		views := f.uc.SentAlerts()
		gt.A(t, views).Length(1).Required()
		gt.Equal(t, views[0].State, types.SenderFailed)
		gt.Equal(t, f.repo.GetCallCount("Insert"), 0)
	})

	t.Run("own plate has no recipient", func(t *testing.T) {
		f := setup(t)
		_, err := f.uc.SendAlert(f.ctx, usecase.SendRequest{Sender: owner, Plate: plate, Urgency: types.UrgencyNormal})
		gt.True(t, errs.IsNoRecipient(err))
	})

	t.Run("store rejection fails with transport", func(t *testing.T) {
		f := setup(t)
		f.repo.FailInsert(errors.New("unavailable"))
		_, err := f.uc.SendAlert(f.ctx, usecase.SendRequest{Sender: sender, Plate: plate, Urgency: types.UrgencyNormal})
		gt.Error(t, err)
		gt.True(t, errs.IsTransport(err))
		gt.False(t, errs.IsNoRecipient(err))

		views := f.uc.SentAlerts()
		gt.A(t, views).Length(1).Required()
		gt.Equal(t, views[0].State, types.SenderFailed)
		gt.S(t, views[0].Failure).Contains("unavailable")

		records := gt.R1(f.uc.Acks(f.ctx)).NoError(t)
		gt.A(t, records).Length(0)
	})

	t.Run("capability denied is a precondition", func(t *testing.T) {
		f := setup(t, usecase.WithCapabilityGate(capability.Static{Allowed: false, Reason: "no alerts left today"}))
		_, err := f.uc.SendAlert(f.ctx, usecase.SendRequest{Sender: sender, Plate: plate, Urgency: types.UrgencyNormal})
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, errs.TagCapabilityDenied))
		gt.True(t, errors.Is(err, errs.ErrCapabilityDenied))
		gt.Equal(t, f.repo.GetCallCount("ResolveRecipient"), 0)
		gt.A(t, f.uc.SentAlerts()).Length(0)
	})

	t.Run("spam guard cooldown", func(t *testing.T) {
		f := setup(t, usecase.WithSpamGuard(spamguard.New(storage.NewMemory())))
		f.send(t, types.UrgencyNormal)

		f.clock.Advance(30 * time.Second)
		_, err := f.uc.SendAlert(f.ctx, usecase.SendRequest{Sender: sender, Plate: plate, Urgency: types.UrgencyNormal})
		gt.True(t, goerr.HasTag(err, errs.TagRateLimit))

		f.clock.Advance(31 * time.Second)
		f.send(t, types.UrgencyNormal)
	})

	t.Run("racing sends pass the cooldown once", func(t *testing.T) {
		f := setup(t, usecase.WithSpamGuard(spamguard.New(storage.NewMemory())))

		start := make(chan struct{})
		var ok atomic.Int32
		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, err := f.uc.SendAlert(f.ctx, usecase.SendRequest{Sender: sender, Plate: plate, Urgency: types.UrgencyHigh})
				if err == nil {
					ok.Add(1)
					return
				}
				gt.True(t, goerr.HasTag(err, errs.TagRateLimit))
			}()
		}
		close(start)
		wg.Wait()

		gt.Equal(t, ok.Load(), int32(1))
		gt.Equal(t, f.repo.GetCallCount("Insert"), 1)
	})

	t.Run("failed send does not use up the cooldown", func(t *testing.T) {
		f := setup(t, usecase.WithSpamGuard(spamguard.New(storage.NewMemory())))
		f.repo.FailInsert(errors.New("unavailable"))
		_, err := f.uc.SendAlert(f.ctx, usecase.SendRequest{Sender: sender, Plate: plate, Urgency: types.UrgencyNormal})
		gt.True(t, errs.IsTransport(err))

		f.send(t, types.UrgencyNormal)
	})

	t.Run("invalid request", func(t *testing.T) {
		f := setup(t)
		_, err := f.uc.SendAlert(f.ctx, usecase.SendRequest{Sender: sender, Plate: " - ", Urgency: types.UrgencyNormal})
		gt.True(t, goerr.HasTag(err, errs.TagValidation))
		_, err = f.uc.SendAlert(f.ctx, usecase.SendRequest{Sender: sender, Plate: plate, Urgency: "panic"})
		gt.True(t, goerr.HasTag(err, errs.TagValidation))
	})
}

func TestResponseLifecycle(t *testing.T) {
	t.Run("moving_now resolves", func(t *testing.T) {
		f := setup(t)
		id := f.send(t, types.UrgencyHigh)

		f.clock.Advance(time.Minute)
		gt.R1(f.uc.OpenAlert(f.ctx, owner, id)).NoError(t)
		gt.Equal(t, f.uc.ReceiverState(id), types.ReceiverRead)

		f.clock.Advance(time.Minute)
		answered := gt.R1(f.uc.RespondToAlert(f.ctx, owner, id, types.ResponseMovingNow, "")).NoError(t)
		gt.Equal(t, *answered.Response, types.ResponseMovingNow)
		gt.Equal(t, f.uc.ReceiverState(id), types.ReceiverResponded)

		f.observe(t, id)
		f.observe(t, id)

		view, _ := f.uc.SentAlert(id)
		gt.Equal(t, view.State, types.SenderResolved)

		code, ok := f.hooks.Response(id)
		gt.True(t, ok)
		gt.Equal(t, code, types.ResponseMovingNow)

		summary := gt.R1(f.uc.AckSummary(f.ctx)).NoError(t)
		gt.Equal(t, summary.Acknowledged, 1)
	})

	t.Run("cant_move stays acknowledged until resolved", func(t *testing.T) {
		f := setup(t)
		id := f.send(t, types.UrgencyNormal)

		gt.R1(f.uc.RespondToAlert(f.ctx, owner, id, types.ResponseCantMove, "at the doctor")).NoError(t)
		f.observe(t, id)

		view, _ := f.uc.SentAlert(id)
		gt.Equal(t, view.State, types.SenderAcknowledged)
		gt.Equal(t, *view.Response, types.ResponseCantMove)

		resolved := gt.R1(f.uc.ResolveAlert(f.ctx, id)).NoError(t)
		gt.Equal(t, resolved.State, types.SenderResolved)

		_, err := f.uc.ResolveAlert(f.ctx, types.NewAlertID())
		gt.True(t, goerr.HasTag(err, errs.TagNotFound))
	})

	t.Run("answer is set at most once", func(t *testing.T) {
		f := setup(t)
		id := f.send(t, types.UrgencyNormal)

		gt.R1(f.uc.RespondToAlert(f.ctx, owner, id, types.ResponseFiveMinutes, "")).NoError(t)
		_, err := f.uc.RespondToAlert(f.ctx, owner, id, types.ResponseWrongCar, "")
		gt.True(t, goerr.HasTag(err, errs.TagInvalidState))

		stored := gt.R1(f.repo.GetAlert(f.ctx, id)).NoError(t)
		gt.Equal(t, *stored.Response, types.ResponseFiveMinutes)
	})

	t.Run("only the receiver may answer", func(t *testing.T) {
		f := setup(t)
		id := f.send(t, types.UrgencyNormal)

		_, err := f.uc.RespondToAlert(f.ctx, "stranger", id, types.ResponseMovingNow, "")
		gt.True(t, goerr.HasTag(err, errs.TagForbidden))
		_, err = f.uc.OpenAlert(f.ctx, "stranger", id)
		gt.True(t, goerr.HasTag(err, errs.TagForbidden))
	})

	t.Run("timestamps stay monotonic", func(t *testing.T) {
		f := setup(t)
		id := f.send(t, types.UrgencyNormal)

		f.clock.Advance(2 * time.Minute)
		gt.R1(f.uc.RespondToAlert(f.ctx, owner, id, types.ResponseMovingNow, "")).NoError(t)
		f.clock.Advance(time.Minute)
		gt.R1(f.uc.OpenAlert(f.ctx, owner, id)).NoError(t)

		stored := gt.R1(f.repo.GetAlert(f.ctx, id)).NoError(t)
		gt.NotNil(t, stored.DeliveredAt)
		gt.False(t, stored.DeliveredAt.Before(stored.CreatedAt))
		gt.False(t, stored.ResponseAt.Before(*stored.DeliveredAt))
		gt.Nil(t, stored.ReadAt)
	})
}

func TestDeliveryTimeout(t *testing.T) {
	f := setup(t)
	quiet := f.send(t, types.UrgencyNormal)

	f.clock.Advance(time.Minute)
	gt.R1(f.uc.RegisterPlate(f.ctx, owner, "OTHER 1")).NoError(t)
	res := gt.R1(f.uc.SendAlert(f.ctx, usecase.SendRequest{Sender: sender, Plate: "OTHER 1", Urgency: types.UrgencyNormal})).NoError(t)
	answered := res.Alerts[0].AlertID
	gt.R1(f.uc.RespondToAlert(f.ctx, owner, answered, types.ResponseFiveMinutes, "")).NoError(t)
	f.observe(t, answered)

	f.clock.Set(t0.Add(10 * time.Minute))
	ids, summary := gt.R2(f.uc.CheckDeliveryTimeouts(f.ctx)).NoError(t)
	gt.A(t, ids).Length(0)
	gt.Equal(t, summary.Pending, 1)

	f.clock.Set(t0.Add(10*time.Minute + time.Second))
	ids, summary = gt.R2(f.uc.CheckDeliveryTimeouts(f.ctx)).NoError(t)
	gt.Equal(t, ids, []types.AlertID{quiet})
	gt.Equal(t, summary.TimedOut, 1)
	gt.Equal(t, summary.Acknowledged, 1)

	last, ok := f.hooks.LastSummary()
	gt.True(t, ok)
	gt.Equal(t, last, summary)

	view, _ := f.uc.SentAlert(quiet)
	gt.Equal(t, view.State, types.SenderTimeout)

	// a late answer still acknowledges
	gt.R1(f.uc.RespondToAlert(f.ctx, owner, quiet, types.ResponseMovingNow, "")).NoError(t)
	f.observe(t, quiet)
	view, _ = f.uc.SentAlert(quiet)
	gt.Equal(t, view.State, types.SenderResolved)

	// acknowledged records are pruned an hour after the answer
	f.clock.Set(t0.Add(61*time.Minute + time.Second))
	records := gt.R1(f.uc.Acks(f.ctx)).NoError(t)
	gt.A(t, records).Length(1).Required()
	gt.Equal(t, records[0].AlertID, quiet)
	f.clock.Set(t0.Add(2 * time.Hour))
	gt.A(t, gt.R1(f.uc.Acks(f.ctx)).NoError(t)).Length(0)
}

func TestSettledSendersAreForgotten(t *testing.T) {
	f := setup(t, usecase.WithSenderRetention(30*time.Minute))
	resolved := f.send(t, types.UrgencyHigh)
	gt.R1(f.uc.RegisterPlate(f.ctx, owner, "OTHER 1")).NoError(t)
	res := gt.R1(f.uc.SendAlert(f.ctx, usecase.SendRequest{Sender: sender, Plate: "OTHER 1", Urgency: types.UrgencyLow})).NoError(t)
	waiting := res.Alerts[0].AlertID

	gt.R1(f.uc.RespondToAlert(f.ctx, owner, resolved, types.ResponseMovingNow, "")).NoError(t)
	gt.R1(f.uc.RespondToAlert(f.ctx, owner, waiting, types.ResponseCantMove, "")).NoError(t)
	f.observe(t, resolved)
	f.observe(t, waiting)

	// the first check only notes when the alert settled
	gt.R2(f.uc.CheckDeliveryTimeouts(f.ctx)).NoError(t)
	f.clock.Advance(20 * time.Minute)
	gt.R2(f.uc.CheckDeliveryTimeouts(f.ctx)).NoError(t)
	_, ok := f.uc.SentAlert(resolved)
	gt.True(t, ok)

	f.clock.Advance(11 * time.Minute)
	gt.R2(f.uc.CheckDeliveryTimeouts(f.ctx)).NoError(t)
	_, ok = f.uc.SentAlert(resolved)
	gt.False(t, ok)

	// acknowledged but unresolved alerts stay
	view, ok := f.uc.SentAlert(waiting)
	gt.True(t, ok)
	gt.Equal(t, view.State, types.SenderAcknowledged)

	// replaying the old row on a reconnect does not resurrect it
	f.observe(t, resolved)
	_, ok = f.uc.SentAlert(resolved)
	gt.False(t, ok)
}

func TestWatchSent(t *testing.T) {
	repo := repository.NewMemory()
	hooks := hook.NewRecorder()
	uc := usecase.New(usecase.WithRepository(repo), usecase.WithHooks(hooks))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gt.R1(uc.RegisterPlate(ctx, owner, plate)).NoError(t)
	watcher := uc.WatchSent(supervisor.WithRetryInterval(10 * time.Millisecond))
	watcher.Start(ctx, sender)
	defer watcher.Stop()

	res := gt.R1(uc.SendAlert(ctx, usecase.SendRequest{Sender: sender, Plate: plate, Urgency: types.UrgencyUrgent})).NoError(t)
	id := res.Alerts[0].AlertID

	// the feed breaks before the answer arrives
	repo.BreakStreams(errors.New("connection reset"))
	gt.R1(uc.RespondToAlert(ctx, owner, id, types.ResponseWrongCar, "")).NoError(t)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := hooks.Response(id); ok {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	code, ok := hooks.Response(id)
	gt.True(t, ok)
	gt.Equal(t, code, types.ResponseWrongCar)

	view, _ := uc.SentAlert(id)
	gt.Equal(t, view.State, types.SenderResolved)
}

// Sender and receiver on one device model: push and the foreground stream
// both fire for the same alert, the tray shows it once.
func TestEndToEndDelivery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := repository.NewMemory()
	tray := notifier.NewRecorder()
	hooks := hook.NewRecorder()

	foreground := dispatch.New(types.SurfaceForeground, presenter.New(tray),
		dispatch.WithStore(repo), dispatch.WithHooks(hooks))
	pushSurface := dispatch.New(types.SurfacePush,
		presenter.New(tray, presenter.WithSurface(types.SurfacePush)))

	pusher := push.NewRecorder()
	pusher.Handler = pushSurface.HandlePush

	uc := usecase.New(usecase.WithRepository(repo), usecase.WithPushSender(pusher),
		usecase.WithReceivers(foreground.Receivers()))
	gt.R1(uc.RegisterPlate(ctx, owner, plate)).NoError(t)
	gt.NoError(t, uc.RegisterDevice(ctx, owner, "device-1"))

	sup := foreground.Supervise(repo, supervisor.WithRetryInterval(10*time.Millisecond))
	sup.Start(ctx, owner)
	defer sup.Stop()
	deadline := time.Now().Add(5 * time.Second)
	for repo.ActiveStreams() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	res := gt.R1(uc.SendAlert(ctx, usecase.SendRequest{Sender: sender, Plate: plate, Urgency: types.UrgencyHigh})).NoError(t)
	id := res.Alerts[0].AlertID
	gt.A(t, pusher.Sent("device-1")).Length(1)

	for time.Now().Before(deadline) && len(hooks.Notified()) == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	gt.A(t, hooks.Notified()).Length(1)

	visible := tray.Visible()
	gt.A(t, visible).Length(1).Required()
	gt.Equal(t, visible[0].ID, types.NotificationIDOf(id))
	gt.Equal(t, uc.ReceiverState(id), types.ReceiverNotified)

	gt.R1(uc.OpenAlert(ctx, owner, id)).NoError(t)
	gt.Equal(t, uc.ReceiverState(id), types.ReceiverRead)
}
