package cli

import (
	"context"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/cli/config"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/sound"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdSound() *cli.Command {
	var stateCfg config.LocalState

	withPrefs := func(fn func(p *sound.Preferences) error) error {
		kv, closeKV, err := stateCfg.Configure()
		defer closeKV()
		if err != nil {
			return err
		}
		return fn(sound.New(kv))
	}

	return &cli.Command{
		Name:  "sound",
		Usage: "Show or choose the notification sound per slot",
		Flags: stateCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			return withPrefs(func(p *sound.Preferences) error {
				all, err := p.All(ctx)
				if err != nil {
					return err
				}
				return printYAML(c.Root().Writer, all)
			})
		},
		Commands: []*cli.Command{
			{
				Name:  "catalog",
				Usage: "List selectable sounds",
				Action: func(ctx context.Context, c *cli.Command) error {
					return printYAML(c.Root().Writer, sound.Catalog)
				},
			},
			{
				Name:      "set",
				Usage:     "Choose the sound of a slot",
				ArgsUsage: "SLOT PATH",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 2 {
						return goerr.New("usage: sound set SLOT PATH", goerr.V("args", c.Args().Slice()))
					}
					slot := types.SoundSlot(c.Args().Get(0))
					path := c.Args().Get(1)
					return withPrefs(func(p *sound.Preferences) error {
						return p.SetSound(ctx, slot, path)
					})
				},
			},
		},
	}
}
