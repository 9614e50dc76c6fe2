package config

import (
	"log/slog"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/interfaces"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/notifier"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	sdk "github.com/slack-go/slack"
)

// Slack mirrors presented notifications into a channel.
type Slack struct {
	oauthToken string
	channelID  string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-oauth-token",
			Usage:       "Slack OAuth token; the Slack surface is disabled when empty",
			Category:    "Slack",
			Destination: &x.oauthToken,
			Sources:     cli.EnvVars("YUHBLOCKIN_SLACK_OAUTH_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-channel-id",
			Usage:       "Slack channel ID that receives notifications",
			Category:    "Slack",
			Destination: &x.channelID,
			Sources:     cli.EnvVars("YUHBLOCKIN_SLACK_CHANNEL_ID"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("oauth-token.len", len(x.oauthToken)),
		slog.String("channel-id", x.channelID),
	)
}

func (x *Slack) IsConfigured() bool {
	return x.oauthToken != ""
}

// Configure returns nil without error when Slack is not configured. kv keeps
// the message timestamps so a notification is edited in place.
func (x *Slack) Configure(kv interfaces.KVStore) (*notifier.Slack, error) {
	if !x.IsConfigured() {
		return nil, nil
	}
	if x.channelID == "" {
		return nil, goerr.New("slack channel ID is required with an OAuth token")
	}
	return notifier.NewSlack(sdk.New(x.oauthToken), x.channelID, kv), nil
}
