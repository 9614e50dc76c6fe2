package cli

import (
	"context"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/cli/config"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/spamguard"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/tracker"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdSend() *cli.Command {
	var (
		userID       string
		plate        string
		urgency      string
		message      string
		firestoreCfg config.Firestore
		stateCfg     config.LocalState
		fcmCfg       config.FCM
		deliveryCfg  config.Delivery
	)

	flags := joinFlags(
		[]cli.Flag{
			userFlag(&userID, "Sender account"),
			&cli.StringFlag{
				Name:        "plate",
				Aliases:     []string{"p"},
				Usage:       "License plate of the blocking car",
				Required:    true,
				Destination: &plate,
			},
			&cli.StringFlag{
				Name:        "urgency",
				Usage:       "Urgency [low|normal|high|urgent]",
				Value:       types.UrgencyNormal.String(),
				Destination: &urgency,
			},
			&cli.StringFlag{
				Name:        "message",
				Aliases:     []string{"m"},
				Usage:       "Optional note for the owner",
				Destination: &message,
			},
		},
		firestoreCfg.Flags(),
		stateCfg.Flags(),
		fcmCfg.Flags(),
		deliveryCfg.Flags(),
	)

	return &cli.Command{
		Name:  "send",
		Usage: "Send an alert to the owner of a plate",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
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
			pusher, err := fcmCfg.Configure(ctx)
			if err != nil {
				return err
			}

			opts := []usecase.Option{
				usecase.WithRepository(repo),
				usecase.WithTracker(tracker.New(kv)),
				usecase.WithSpamGuard(spamguard.New(kv, deliveryCfg.SpamGuardOptions()...)),
			}
			if pusher != nil {
				opts = append(opts, usecase.WithPushSender(pusher))
			}

			result, err := usecase.New(opts...).SendAlert(ctx, usecase.SendRequest{
				Sender:  types.UserID(userID),
				Plate:   plate,
				Urgency: types.Urgency(urgency),
				Message: message,
			})
			if err != nil {
				return err
			}
			return printYAML(c.Root().Writer, result)
		},
	}
}

func cmdOpen() *cli.Command {
	var (
		userID       string
		firestoreCfg config.Firestore
	)

	return &cli.Command{
		Name:      "open",
		Usage:     "Mark a received alert as read",
		ArgsUsage: "ALERT_ID",
		Flags:     joinFlags([]cli.Flag{userFlag(&userID, "Receiver account")}, firestoreCfg.Flags()),
		Action: func(ctx context.Context, c *cli.Command) error {
			id, err := requireArg(c, "ALERT_ID")
			if err != nil {
				return err
			}
			repo, closeRepo, err := openRepository(ctx, &firestoreCfg, false)
			defer closeRepo()
			if err != nil {
				return err
			}

			a, err := usecase.New(usecase.WithRepository(repo)).
				OpenAlert(ctx, types.UserID(userID), types.AlertID(id))
			if err != nil {
				return err
			}
			return printYAML(c.Root().Writer, a)
		},
	}
}

func cmdRespond() *cli.Command {
	var (
		userID       string
		response     string
		message      string
		firestoreCfg config.Firestore
	)

	return &cli.Command{
		Name:      "respond",
		Usage:     "Answer a received alert",
		ArgsUsage: "ALERT_ID",
		Flags: joinFlags(
			[]cli.Flag{
				userFlag(&userID, "Receiver account"),
				&cli.StringFlag{
					Name:        "response",
					Aliases:     []string{"r"},
					Usage:       "Answer [moving_now|five_minutes|cant_move|wrong_car]",
					Required:    true,
					Destination: &response,
				},
				&cli.StringFlag{
					Name:        "message",
					Aliases:     []string{"m"},
					Usage:       "Optional note for the sender",
					Destination: &message,
				},
			},
			firestoreCfg.Flags(),
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			id, err := requireArg(c, "ALERT_ID")
			if err != nil {
				return err
			}
			repo, closeRepo, err := openRepository(ctx, &firestoreCfg, false)
			defer closeRepo()
			if err != nil {
				return err
			}

			a, err := usecase.New(usecase.WithRepository(repo)).
				RespondToAlert(ctx, types.UserID(userID), types.AlertID(id), types.ResponseCode(response), message)
			if err != nil {
				return err
			}
			return printYAML(c.Root().Writer, a)
		},
	}
}
