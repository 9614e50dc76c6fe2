package cli

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/cli/config"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/interfaces"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/repository"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/notifier"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/presenter"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/sound"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

func joinFlags(flags ...[]cli.Flag) []cli.Flag {
	var result []cli.Flag
	for _, flag := range flags {
		result = append(result, flag...)
	}
	return result
}

func userFlag(dst *string, usage string) cli.Flag {
	return &cli.StringFlag{
		Name:        "user",
		Aliases:     []string{"u"},
		Usage:       usage,
		Sources:     cli.EnvVars("YUHBLOCKIN_USER"),
		Destination: dst,
	}
}

// openRepository connects to Firestore, or falls back to an in-process store
// when allowMemory is set. The closer is always safe to call.
func openRepository(ctx context.Context, cfg *config.Firestore, allowMemory bool) (interfaces.Repository, func(), error) {
	if !cfg.IsConfigured() {
		if !allowMemory {
			return nil, func() {}, goerr.New("this command needs the shared alert store (--firestore-project-id)")
		}
		logging.From(ctx).Warn("firestore is not configured, alerts stay in this process")
		return repository.NewMemory(), func() {}, nil
	}

	client, err := cfg.Configure(ctx)
	if err != nil {
		return nil, func() {}, err
	}
	return client, func() {
		if err := client.Close(); err != nil {
			logging.From(ctx).Warn("failed to close firestore", logging.ErrAttr(err))
		}
	}, nil
}

// newPresenter builds the notification surface of this process: the
// terminal, plus Slack when configured.
func newPresenter(w io.Writer, kv interfaces.KVStore, slackCfg *config.Slack, surface types.Surface) (*presenter.Presenter, error) {
	console := notifier.NewConsole(w)
	targets := notifier.Multi{console}

	if slackCfg != nil {
		s, err := slackCfg.Configure(kv)
		if err != nil {
			return nil, err
		}
		if s != nil {
			targets = append(targets, s)
		}
	}

	return presenter.New(targets,
		presenter.WithVibrator(console),
		presenter.WithSoundPreferences(sound.New(kv)),
		presenter.WithSurface(surface),
	), nil
}

func requireArg(c *cli.Command, name string) (string, error) {
	v := strings.TrimSpace(c.Args().First())
	if v == "" {
		return "", goerr.New(name + " argument is required")
	}
	return v, nil
}

// printYAML renders v with its JSON field names.
func printYAML(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return goerr.Wrap(err, "failed to encode output")
	}
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return goerr.Wrap(err, "failed to encode output")
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return goerr.Wrap(err, "failed to encode output")
	}
	return enc.Close()
}
