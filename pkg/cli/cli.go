package cli

import (
	"context"
	"io"
	"os"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/cli/config"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func Run(ctx context.Context, args []string) error {
	return run(ctx, args, os.Stdout)
}

// run writes command results to w; logs go where the logger flags say.
func run(ctx context.Context, args []string, w io.Writer) error {
	var loggerCfg config.Logger
	var sentryCfg config.Sentry
	var closers []func()

	app := &cli.Command{
		Name:   "yuhblockin",
		Usage:  "Alert lifecycle and delivery engine for Yuh Blockin'",
		Writer: w,
		Flags:  joinFlags(loggerCfg.Flags(), sentryCfg.Flags()),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			closeLog, err := loggerCfg.Configure()
			closers = append(closers, closeLog)
			if err != nil {
				return ctx, err
			}

			flush, err := sentryCfg.Configure()
			closers = append(closers, flush)
			if err != nil {
				return ctx, err
			}

			logging.Default().Debug("base options", "logger", loggerCfg, "sentry", sentryCfg)
			return logging.With(ctx, logging.Default()), nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdServe(&loggerCfg),
			cmdBackground(),
			cmdSend(),
			cmdOpen(),
			cmdRespond(),
			cmdAcks(),
			cmdPush(),
			cmdSound(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", logging.ErrAttr(err))
		return err
	}

	return nil
}
