package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/cli/config"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/dispatch"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// cmdPush plays the role of the platform push handler: it gets one data
// payload, as the OS would hand it to a terminated app, and presents it.
func cmdPush() *cli.Command {
	var (
		inputFile string
		stateCfg  config.LocalState
	)

	return &cli.Command{
		Name:  "push",
		Usage: "Present a platform push data payload (JSON object of strings)",
		Flags: joinFlags(
			[]cli.Flag{
				&cli.StringFlag{
					Name:        "input",
					Aliases:     []string{"i"},
					Usage:       "Payload file path (default: stdin)",
					Destination: &inputFile,
				},
			},
			stateCfg.Flags(),
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			var r io.Reader = os.Stdin
			if inputFile != "" {
				f, err := os.Open(inputFile)
				if err != nil {
					return goerr.Wrap(err, "failed to open payload", goerr.V("path", inputFile))
				}
				defer safe.Close(ctx, f)
				r = f
			}

			var data map[string]string
			if err := json.NewDecoder(r).Decode(&data); err != nil {
				return goerr.Wrap(err, "failed to decode push payload")
			}

			kv, closeKV, err := stateCfg.Configure()
			defer closeKV()
			if err != nil {
				return err
			}
			p, err := newPresenter(c.Root().Writer, kv, nil, types.SurfacePush)
			if err != nil {
				return err
			}
			return dispatch.New(types.SurfacePush, p).HandlePush(ctx, data)
		},
	}
}
