// Package presenter turns alerts into platform notifications.
package presenter

import (
	"context"
	"log/slog"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/interfaces"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/errs"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/notification"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/sound"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/errutil"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/logging"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/metrics"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

type Presenter struct {
	notifier interfaces.Notifier
	vibrator interfaces.Vibrator
	sounds   interfaces.SoundPreferences
	surface  types.Surface
}

var _ interfaces.Presenter = &Presenter{}

type Option func(*Presenter)

func WithVibrator(v interfaces.Vibrator) Option {
	return func(p *Presenter) {
		p.vibrator = v
	}
}

func WithSoundPreferences(s interfaces.SoundPreferences) Option {
	return func(p *Presenter) {
		p.sounds = s
	}
}

// WithSurface labels metrics and logs with the delivery surface.
func WithSurface(s types.Surface) Option {
	return func(p *Presenter) {
		p.surface = s
	}
}

func New(notifier interfaces.Notifier, opts ...Option) *Presenter {
	p := &Presenter{
		notifier: notifier,
		surface:  types.SurfaceForeground,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Present shows one notification for the alert. Failures are logged and
// reported, never returned; repeated calls for the same alert replace the
// notification because its id is derived from the alert id.
func (x *Presenter) Present(ctx context.Context, id types.AlertID, title, body string, urgency types.Urgency) {
	x.Show(ctx, notification.New(id, title, body, urgency))
}

// Show presents an already composed notification.
func (x *Presenter) Show(ctx context.Context, n notification.Notification) {
	logger := logging.From(ctx).With(
		slog.String("alert_id", n.AlertID.String()),
		slog.String("surface", x.surface.String()),
	)
	n.Sound = x.soundFor(ctx, n.Urgency)

	err := safe.Run(func() error {
		return x.notifier.Show(ctx, n)
	})
	if err != nil {
		metrics.PresentationFailures.Inc()
		errs.Handle(ctx, goerr.Wrap(err, "failed to present notification",
			goerr.T(errs.TagPresentation),
			goerr.TV(errutil.AlertIDKey, n.AlertID),
			goerr.TV(errutil.NotificationIDKey, n.ID),
			goerr.TV(errutil.SurfaceKey, x.surface.String())))
		return
	}
	metrics.NotificationsPresented.WithLabelValues(x.surface.String()).Inc()
	logger.Info("notification presented", slog.String("notification_id", n.ID.String()))

	if x.vibrator == nil || len(n.Vibration) == 0 {
		return
	}
	if err := safe.Run(func() error {
		return x.vibrator.Vibrate(ctx, n.Vibration)
	}); err != nil {
		metrics.PresentationFailures.Inc()
		logger.Warn("vibration failed", logging.ErrAttr(err))
	}
}

func (x *Presenter) soundFor(ctx context.Context, urgency types.Urgency) string {
	fallback := sound.Default(types.SlotFor(urgency))
	if x.sounds == nil {
		return fallback
	}

	var path string
	err := safe.Run(func() error {
		var err error
		path, err = x.sounds.GetSoundForLevel(ctx, urgency)
		return err
	})
	if err != nil || path == "" {
		if err != nil {
			logging.From(ctx).Warn("sound preference unavailable, using default",
				logging.ErrAttr(err),
				slog.String("urgency", urgency.String()))
		}
		return fallback
	}
	return path
}
