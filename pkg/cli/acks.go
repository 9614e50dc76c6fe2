package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/cli/config"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/ack"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/tracker"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/clock"
	"github.com/dustin/go-humanize"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdAcks() *cli.Command {
	var (
		format   string
		stateCfg config.LocalState
	)

	withTracker := func(ctx context.Context, fn func(t *tracker.Tracker) error) error {
		kv, closeKV, err := stateCfg.Configure()
		defer closeKV()
		if err != nil {
			return err
		}
		return fn(tracker.New(kv))
	}

	return &cli.Command{
		Name:  "acks",
		Usage: "Show whether sent alerts were answered",
		Flags: joinFlags(
			[]cli.Flag{
				&cli.StringFlag{
					Name:        "format",
					Usage:       "Output format [table|yaml]",
					Value:       "table",
					Destination: &format,
				},
			},
			stateCfg.Flags(),
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			return withTracker(ctx, func(t *tracker.Tracker) error {
				records, err := t.GetAll(ctx)
				if err != nil {
					return err
				}
				switch format {
				case "yaml":
					return printYAML(c.Root().Writer, records)
				case "table":
					return printAckTable(c.Root().Writer, records, clock.Now(ctx))
				default:
					return goerr.New("unknown output format", goerr.V("format", format))
				}
			})
		},
		Commands: []*cli.Command{
			{
				Name:  "summary",
				Usage: "Count sent alerts by acknowledgment status",
				Action: func(ctx context.Context, c *cli.Command) error {
					return withTracker(ctx, func(t *tracker.Tracker) error {
						summary, err := t.GetSummary(ctx)
						if err != nil {
							return err
						}
						return printYAML(c.Root().Writer, summary)
					})
				},
			},
			{
				Name:      "remove",
				Usage:     "Forget a sent alert",
				ArgsUsage: "ALERT_ID",
				Action: func(ctx context.Context, c *cli.Command) error {
					id, err := requireArg(c, "ALERT_ID")
					if err != nil {
						return err
					}
					return withTracker(ctx, func(t *tracker.Tracker) error {
						return t.Remove(ctx, types.AlertID(id))
					})
				},
			},
		},
	}
}

func printAckTable(w io.Writer, records []ack.Record, now time.Time) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "no sent alerts")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ALERT\tPLATE\tURGENCY\tSTATUS\tSENT\tDETAIL")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.AlertID,
			r.TargetPlate,
			r.Urgency.Label(),
			r.Status,
			humanize.RelTime(r.SentAt, now, "ago", "from now"),
			ackDetail(r, now),
		)
	}
	return tw.Flush()
}

func ackDetail(r ack.Record, now time.Time) string {
	switch r.Status {
	case types.AckAcknowledged:
		if r.AcknowledgedAt != nil {
			return "answered " + humanize.RelTime(*r.AcknowledgedAt, now, "ago", "from now")
		}
		return "answered"
	case types.AckTimedOut:
		return "no answer within " + strings.TrimSpace(humanize.RelTime(r.SentAt, r.TimeoutAt, "", ""))
	default:
		return "times out " + humanize.RelTime(r.TimeoutAt, now, "ago", "from now")
	}
}
