package config

import (
	"context"
	"log/slog"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/push"
	"github.com/urfave/cli/v3"
)

// FCM enables platform push on send.
type FCM struct {
	credentialsFile string
}

func (x *FCM) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "fcm-credentials",
			Usage:       "Service account JSON used to send platform pushes; push is disabled when empty",
			Category:    "Push",
			Destination: &x.credentialsFile,
			Sources:     cli.EnvVars("YUHBLOCKIN_FCM_CREDENTIALS", "GOOGLE_APPLICATION_CREDENTIALS"),
		},
	}
}

func (x FCM) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("credentials", x.credentialsFile),
	)
}

func (x *FCM) IsConfigured() bool {
	return x.credentialsFile != ""
}

// Configure returns nil without error when push is not configured.
func (x *FCM) Configure(ctx context.Context) (*push.FCM, error) {
	if !x.IsConfigured() {
		return nil, nil
	}
	client, err := push.NewMessagingClient(ctx, x.credentialsFile)
	if err != nil {
		return nil, err
	}
	return push.New(client), nil
}
