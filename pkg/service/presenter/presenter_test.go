package presenter_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/adapter/storage"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/notification"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/notifier"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/presenter"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/sound"
	"github.com/m-mizutani/gt"
)

type brokenSounds struct{}

func (brokenSounds) GetSoundForLevel(ctx context.Context, urgency types.Urgency) (string, error) {
	return "", errors.New("storage locked")
}

type panickingNotifier struct{}

func (panickingNotifier) Show(ctx context.Context, n notification.Notification) error {
	panic("platform crashed")
}

func TestPresent(t *testing.T) {
	ctx := t.Context()
	rec := notifier.NewRecorder()
	kv := storage.NewMemory()
	prefs := sound.New(kv)
	gt.NoError(t, prefs.SetSound(ctx, types.SoundSlotHigh, "sounds/high/siren.mp3"))

	p := presenter.New(rec,
		presenter.WithVibrator(rec),
		presenter.WithSoundPreferences(prefs),
		presenter.WithSurface(types.SurfaceForeground),
	)

	id := types.NewAlertID()
	p.Present(ctx, id, "Yuh Blockin'!", "Please move", types.UrgencyUrgent)

	visible := rec.Visible()
	gt.A(t, visible).Length(1).Required()
	gt.Equal(t, visible[0].ID, types.NotificationIDOf(id))
	gt.Equal(t, visible[0].ChannelID, types.NotificationChannelID)
	gt.Equal(t, visible[0].Sound, "sounds/high/siren.mp3")
	gt.Equal(t, rec.Vibrations(), 1)

	// presenting again replaces the notification
	p.Present(ctx, id, "Yuh Blockin'!", "Please move", types.UrgencyUrgent)
	gt.A(t, rec.Visible()).Length(1)
	gt.A(t, rec.Posts()).Length(2)
}

func TestPresentFallsBackToDefaultSound(t *testing.T) {
	rec := notifier.NewRecorder()
	p := presenter.New(rec, presenter.WithSoundPreferences(brokenSounds{}))

	p.Present(t.Context(), types.NewAlertID(), "t", "b", types.UrgencyLow)

	visible := rec.Visible()
	gt.A(t, visible).Length(1).Required()
	gt.Equal(t, visible[0].Sound, sound.Default(types.SoundSlotLow))
}

func TestPresentNeverFails(t *testing.T) {
	t.Run("notifier error", func(t *testing.T) {
		rec := notifier.NewRecorder()
		rec.FailShow(errors.New("permission revoked"))
		p := presenter.New(rec, presenter.WithVibrator(rec))

		p.Present(t.Context(), types.NewAlertID(), "t", "b", types.UrgencyHigh)
		gt.A(t, rec.Visible()).Length(0)
		gt.Equal(t, rec.Vibrations(), 0)
	})

	t.Run("notifier panic", func(t *testing.T) {
		p := presenter.New(panickingNotifier{})
		p.Present(t.Context(), types.NewAlertID(), "t", "b", types.UrgencyHigh)
	})

	t.Run("vibration error", func(t *testing.T) {
		rec := notifier.NewRecorder()
		rec.FailVibrate(errors.New("no motor"))
		p := presenter.New(rec, presenter.WithVibrator(rec))

		p.Present(t.Context(), types.NewAlertID(), "t", "b", types.UrgencyNormal)
		gt.A(t, rec.Visible()).Length(1)
	})
}
