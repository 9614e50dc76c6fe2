package dispatch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/alert"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/notification"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/repository"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/dispatch"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/hook"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/notifier"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/presenter"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/supervisor"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/clock"
	"github.com/m-mizutani/gt"
)

var t0 = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func newAlert(created time.Time) alert.Alert {
	return alert.New("sender", "receiver", types.HashPlate("ABC 123"), types.UrgencyHigh, "blocking the gate", created)
}

func TestHandleRow(t *testing.T) {
	t.Run("fresh unread row is presented once", func(t *testing.T) {
		ctx := clock.With(context.Background(), clock.Fixed(t0.Add(10*time.Second)))
		tray := notifier.NewRecorder()
		rec := hook.NewRecorder()
		d := dispatch.New(types.SurfaceForeground, presenter.New(tray), dispatch.WithHooks(rec))

		row := newAlert(t0)
		d.HandleRow(ctx, row)
		d.HandleRow(ctx, row)

		posts := tray.Posts()
		gt.A(t, posts).Length(1).Required()
		gt.Equal(t, posts[0].ID, types.NotificationIDOf(row.ID))
		gt.S(t, posts[0].Body).Contains("blocking the gate")
		gt.A(t, rec.Notified()).Length(1)
		gt.Equal(t, d.Receivers().Get(row.ID).State(), types.ReceiverNotified)
	})

	t.Run("row at the freshness boundary is skipped", func(t *testing.T) {
		ctx := clock.With(context.Background(), clock.Fixed(t0.Add(dispatch.DefaultFreshness)))
		tray := notifier.NewRecorder()
		d := dispatch.New(types.SurfaceForeground, presenter.New(tray))

		d.HandleRow(ctx, newAlert(t0))
		gt.A(t, tray.Posts()).Length(0)
	})

	t.Run("read or answered rows are skipped", func(t *testing.T) {
		ctx := clock.With(context.Background(), clock.Fixed(t0.Add(time.Second)))
		tray := notifier.NewRecorder()
		d := dispatch.New(types.SurfaceForeground, presenter.New(tray))

		read := newAlert(t0)
		_, err := read.Apply(alert.Read(t0))
		gt.NoError(t, err)
		d.HandleRow(ctx, read)

		answered := newAlert(t0)
		_, err = answered.Apply(alert.Responded(types.ResponseMovingNow, "", t0))
		gt.NoError(t, err)
		d.HandleRow(ctx, answered)

		gt.A(t, tray.Posts()).Length(0)
	})

	t.Run("records delivered_at best effort", func(t *testing.T) {
		ctx := context.Background()
		repo := repository.NewMemory()
		tray := notifier.NewRecorder()
		d := dispatch.New(types.SurfaceForeground, presenter.New(tray), dispatch.WithStore(repo))

		row := newAlert(time.Now())
		gt.R1(repo.Insert(ctx, row)).NoError(t)
		d.HandleRow(ctx, row)

		stored := gt.R1(repo.GetAlert(ctx, row.ID)).NoError(t)
		gt.NotNil(t, stored.DeliveredAt)

		failing := newAlert(time.Now())
		gt.R1(repo.Insert(ctx, failing)).NoError(t)
		repo.FailUpdate(errors.New("offline"))
		d.HandleRow(ctx, failing)
		gt.A(t, tray.Posts()).Length(2)
	})

	t.Run("presentation failure does not escape", func(t *testing.T) {
		ctx := context.Background()
		tray := notifier.NewRecorder()
		tray.FailShow(errors.New("notification permission revoked"))
		d := dispatch.New(types.SurfaceForeground, presenter.New(tray))

		d.HandleRow(ctx, newAlert(time.Now()))
		gt.A(t, tray.Posts()).Length(0)
	})

	t.Run("panicking presenter is contained", func(t *testing.T) {
		ctx := context.Background()
		d := dispatch.New(types.SurfaceForeground, panicPresenter{})
		d.HandleRow(ctx, newAlert(time.Now()))
	})
}

type panicPresenter struct{}

func (panicPresenter) Present(ctx context.Context, id types.AlertID, title, body string, urgency types.Urgency) {
	panic("platform channel crashed")
}

func TestHandlePush(t *testing.T) {
	ctx := context.Background()
	tray := notifier.NewRecorder()
	d := dispatch.New(types.SurfacePush, presenter.New(tray, presenter.WithSurface(types.SurfacePush)))

	id := types.NewAlertID()
	payload := notification.PushFor(id, types.UrgencyUrgent, "", "").Encode()
	gt.NoError(t, d.HandlePush(ctx, payload))
	gt.NoError(t, d.HandlePush(ctx, payload))

	posts := tray.Posts()
	gt.A(t, posts).Length(1).Required()
	gt.Equal(t, posts[0].Urgency, types.UrgencyUrgent)
	gt.Equal(t, posts[0].ID, types.NotificationIDOf(id))

	gt.Error(t, d.HandlePush(ctx, map[string]string{"type": "chat_message"}))
	gt.Error(t, d.HandlePush(ctx, map[string]string{"alert_id": "not-a-uuid"}))
}

// Two surfaces on the same device see the same alert within a couple of
// seconds; the tray must end up with a single notification.
func TestSurfacesCollapseToOneNotification(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := repository.NewMemory()
	tray := notifier.NewRecorder()

	foreground := dispatch.New(types.SurfaceForeground, presenter.New(tray), dispatch.WithStore(repo))
	background := dispatch.New(types.SurfaceBackground,
		presenter.New(tray, presenter.WithSurface(types.SurfaceBackground)))
	push := dispatch.New(types.SurfacePush, presenter.New(tray, presenter.WithSurface(types.SurfacePush)))

	fg := foreground.Supervise(repo, supervisor.WithRetryInterval(10*time.Millisecond))
	bg := background.Supervise(repo, supervisor.WithRetryInterval(10*time.Millisecond))
	fg.Start(ctx, "receiver")
	bg.Start(ctx, "receiver")
	defer fg.Stop()
	defer bg.Stop()
	waitFor(t, func() bool { return repo.ActiveStreams() == 2 })

	row := newAlert(time.Now())
	gt.R1(repo.Insert(ctx, row)).NoError(t)
	gt.NoError(t, push.HandlePush(ctx, notification.PushFor(row.ID, row.Urgency, "", "").Encode()))

	waitFor(t, func() bool { return len(tray.Posts()) >= 3 })
	gt.A(t, tray.Visible()).Length(1)
}
