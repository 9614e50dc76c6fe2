package cli

import (
	"context"
	"os"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/cli/config"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/dispatch"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/identity"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/isolate"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/supervisor"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdBackground() *cli.Command {
	var (
		firestoreCfg config.Firestore
		stateCfg     config.LocalState
		slackCfg     config.Slack
		deliveryCfg  config.Delivery
	)

	return &cli.Command{
		Name:   "background",
		Usage:  "Isolated background delivery surface, controlled through JSON lines on stdin",
		Hidden: true,
		Flags: joinFlags(
			firestoreCfg.Flags(),
			stateCfg.Flags(),
			slackCfg.Flags(),
			deliveryCfg.Flags(),
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := deliveryCfg.Validate(); err != nil {
				return err
			}
			ctx = logging.WithAttrs(ctx, "surface", types.SurfaceBackground.String())

			repo, closeRepo, err := openRepository(ctx, &firestoreCfg, false)
			defer closeRepo()
			if err != nil {
				return err
			}

			kv, closeKV, err := stateCfg.Configure()
			defer closeKV()
			if err != nil {
				return err
			}

			p, err := newPresenter(c.Root().Writer, kv, &slackCfg, types.SurfaceBackground)
			if err != nil {
				return err
			}

			// the background surface keeps its own receiver book: nothing is
			// shared with the foreground process but the store and the
			// deterministic notification id
			d := dispatch.New(types.SurfaceBackground, p,
				dispatch.WithStore(repo),
				dispatch.WithFreshness(deliveryCfg.Freshness()),
			)

			ids := identity.New(kv)
			initial, err := ids.Recipient(ctx)
			if err != nil {
				return err
			}

			sub := d.Supervise(repo,
				supervisor.WithRetryInterval(deliveryCfg.RetryInterval()),
				supervisor.WithLiveness(deliveryCfg.LivenessInterval(), ids.Recipient),
			)
			return isolate.Serve(ctx, os.Stdin, sub, initial)
		},
	}
}
