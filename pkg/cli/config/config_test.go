package config_test

import (
	"context"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/cli/config"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/dispatch"
	"github.com/m-mizutani/gt"
	"github.com/urfave/cli/v3"
)

// parse runs flags through a throwaway command so Destination fields get
// their defaults exactly as in the real CLI.
func parse(t *testing.T, flags []cli.Flag, args ...string) {
	t.Helper()
	cmd := &cli.Command{
		Name:   "test",
		Flags:  flags,
		Action: func(ctx context.Context, c *cli.Command) error { return nil },
	}
	gt.NoError(t, cmd.Run(context.Background(), append([]string{"test"}, args...))).Required()
}

func TestDelivery(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		var cfg config.Delivery
		parse(t, cfg.Flags())
		gt.NoError(t, cfg.Validate())
		gt.Equal(t, cfg.Freshness(), dispatch.DefaultFreshness)
		gt.Equal(t, cfg.AckWindow(), 10*time.Minute)
	})

	t.Run("override", func(t *testing.T) {
		var cfg config.Delivery
		parse(t, cfg.Flags(), "--ack-window", "30s", "--freshness", "5s")
		gt.NoError(t, cfg.Validate())
		gt.Equal(t, cfg.AckWindow(), 30*time.Second)
		gt.True(t, slices.Contains(cfg.Args(), "5s"))
	})

	t.Run("non-positive duration", func(t *testing.T) {
		var cfg config.Delivery
		parse(t, cfg.Flags(), "--retry-interval", "0s")
		gt.Error(t, cfg.Validate())
	})

	t.Run("zero value is invalid", func(t *testing.T) {
		var cfg config.Delivery
		gt.Error(t, cfg.Validate())
	})
}

func TestLocalState(t *testing.T) {
	ctx := context.Background()

	t.Run("memory when no path", func(t *testing.T) {
		var cfg config.LocalState
		kv, closer, err := cfg.Configure()
		gt.NoError(t, err).Required()
		defer closer()
		gt.NoError(t, kv.Put(ctx, "k", []byte("v")))
		gt.A(t, cfg.Args()).Length(0)
	})

	t.Run("sqlite file survives reopen", func(t *testing.T) {
		var cfg config.LocalState
		path := filepath.Join(t.TempDir(), "state.db")
		parse(t, cfg.Flags(), "--state-db", path)

		kv, closer, err := cfg.Configure()
		gt.NoError(t, err).Required()
		gt.NoError(t, kv.Put(ctx, "k", []byte("v")))
		closer()

		kv, closer, err = cfg.Configure()
		gt.NoError(t, err).Required()
		defer closer()
		got := gt.R1(kv.Get(ctx, "k")).NoError(t)
		gt.Equal(t, string(got), "v")
		gt.A(t, cfg.Args()).Length(2)
	})
}

func TestOptionalIntegrations(t *testing.T) {
	t.Run("firestore requires project", func(t *testing.T) {
		var cfg config.Firestore
		gt.False(t, cfg.IsConfigured())
		gt.A(t, cfg.Args()).Length(0)
		_, err := cfg.Configure(context.Background())
		gt.Error(t, err)
	})

	t.Run("push disabled without credentials", func(t *testing.T) {
		var cfg config.FCM
		client, err := cfg.Configure(context.Background())
		gt.NoError(t, err)
		gt.True(t, client == nil)
	})

	t.Run("slack disabled without token", func(t *testing.T) {
		var cfg config.Slack
		n, err := cfg.Configure(nil)
		gt.NoError(t, err)
		gt.True(t, n == nil)
	})

	t.Run("slack requires channel", func(t *testing.T) {
		var cfg config.Slack
		parse(t, cfg.Flags(), "--slack-oauth-token", "xoxb-test")
		_, err := cfg.Configure(nil)
		gt.Error(t, err)
	})
}

func TestLoggerArgs(t *testing.T) {
	var cfg config.Logger
	parse(t, cfg.Flags(), "--log-level", "debug", "--log-format", "json")
	args := cfg.Args()
	gt.True(t, slices.Contains(args, "debug"))
	gt.True(t, slices.Contains(args, "json"))
	gt.True(t, slices.Contains(args, "stderr"))
}
