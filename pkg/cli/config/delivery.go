package config

import (
	"log/slog"
	"time"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/ack"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/dispatch"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/spamguard"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/supervisor"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Delivery tunes the windows of the delivery pipeline. The defaults are the
// production values; overrides exist for testing.
type Delivery struct {
	freshness     time.Duration
	retryInterval time.Duration
	liveness      time.Duration
	ackWindow     time.Duration
	timeoutCheck  time.Duration
	spamCooldown  time.Duration
	spamHourlyCap int
}

func (x *Delivery) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:        "freshness",
			Usage:       "Maximum age of a store-observed alert that still raises a notification",
			Category:    "Delivery",
			Value:       dispatch.DefaultFreshness,
			Destination: &x.freshness,
			Sources:     cli.EnvVars("YUHBLOCKIN_FRESHNESS"),
		},
		&cli.DurationFlag{
			Name:        "retry-interval",
			Usage:       "Delay before a failed subscription is re-opened",
			Category:    "Delivery",
			Value:       supervisor.DefaultRetryInterval,
			Destination: &x.retryInterval,
			Sources:     cli.EnvVars("YUHBLOCKIN_RETRY_INTERVAL"),
		},
		&cli.DurationFlag{
			Name:        "liveness-interval",
			Usage:       "How often the background subscription re-reads the recipient identity",
			Category:    "Delivery",
			Value:       supervisor.DefaultLivenessInterval,
			Destination: &x.liveness,
			Sources:     cli.EnvVars("YUHBLOCKIN_LIVENESS_INTERVAL"),
		},
		&cli.DurationFlag{
			Name:        "ack-window",
			Usage:       "How long a sent alert waits for an answer",
			Category:    "Delivery",
			Value:       ack.Window,
			Destination: &x.ackWindow,
			Sources:     cli.EnvVars("YUHBLOCKIN_ACK_WINDOW"),
		},
		&cli.DurationFlag{
			Name:        "timeout-check-interval",
			Usage:       "How often sent alerts are checked for the ack window",
			Category:    "Delivery",
			Value:       30 * time.Second,
			Destination: &x.timeoutCheck,
			Sources:     cli.EnvVars("YUHBLOCKIN_TIMEOUT_CHECK_INTERVAL"),
		},
		&cli.DurationFlag{
			Name:        "spam-cooldown",
			Usage:       "Minimum gap between alerts from one sender to the same plate",
			Category:    "Delivery",
			Value:       spamguard.DefaultCooldown,
			Destination: &x.spamCooldown,
			Sources:     cli.EnvVars("YUHBLOCKIN_SPAM_COOLDOWN"),
		},
		&cli.IntFlag{
			Name:        "spam-hourly-cap",
			Usage:       "Maximum alerts one sender may send per hour",
			Category:    "Delivery",
			Value:       spamguard.DefaultHourlyCap,
			Destination: &x.spamHourlyCap,
			Sources:     cli.EnvVars("YUHBLOCKIN_SPAM_HOURLY_CAP"),
		},
	}
}

func (x Delivery) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Duration("freshness", x.freshness),
		slog.Duration("retry_interval", x.retryInterval),
		slog.Duration("liveness", x.liveness),
		slog.Duration("ack_window", x.ackWindow),
		slog.Duration("timeout_check", x.timeoutCheck),
		slog.Duration("spam_cooldown", x.spamCooldown),
		slog.Int("spam_hourly_cap", x.spamHourlyCap),
	)
}

func (x *Delivery) Validate() error {
	for name, d := range map[string]time.Duration{
		"freshness":              x.freshness,
		"retry-interval":         x.retryInterval,
		"liveness-interval":      x.liveness,
		"ack-window":             x.ackWindow,
		"timeout-check-interval": x.timeoutCheck,
	} {
		if d <= 0 {
			return goerr.New("duration must be positive", goerr.V("flag", name), goerr.V("value", d))
		}
	}
	if x.spamHourlyCap <= 0 {
		return goerr.New("spam hourly cap must be positive", goerr.V("value", x.spamHourlyCap))
	}
	return nil
}

func (x Delivery) Freshness() time.Duration            { return x.freshness }
func (x Delivery) RetryInterval() time.Duration        { return x.retryInterval }
func (x Delivery) LivenessInterval() time.Duration     { return x.liveness }
func (x Delivery) AckWindow() time.Duration            { return x.ackWindow }
func (x Delivery) TimeoutCheckInterval() time.Duration { return x.timeoutCheck }

// SpamGuardOptions configures the guard with the cooldown and cap flags.
func (x Delivery) SpamGuardOptions() []spamguard.Option {
	return []spamguard.Option{
		spamguard.WithCooldown(x.spamCooldown),
		spamguard.WithHourlyCap(x.spamHourlyCap),
	}
}

// Args renders the flags the background process needs.
func (x Delivery) Args() []string {
	return []string{
		"--freshness", x.freshness.String(),
		"--retry-interval", x.retryInterval.String(),
		"--liveness-interval", x.liveness.String(),
	}
}
