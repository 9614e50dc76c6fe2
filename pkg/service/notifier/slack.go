package notifier

import (
	"context"
	"fmt"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/interfaces"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/errs"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/notification"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/errutil"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// Slack mirrors notifications into a Slack channel. The message timestamp of
// each notification id is kept in the KV store so a second Show for the same
// id edits the existing message instead of posting a new one, across
// processes that share the store.
type Slack struct {
	client    interfaces.SlackClient
	channelID string
	kv        interfaces.KVStore
}

var _ interfaces.Notifier = &Slack{}

func NewSlack(client interfaces.SlackClient, channelID string, kv interfaces.KVStore) *Slack {
	return &Slack{
		client:    client,
		channelID: channelID,
		kv:        kv,
	}
}

func slackKey(id types.NotificationID) string {
	return "slack_ts:" + id.String()
}

var urgencyEmoji = map[types.Urgency]string{
	types.UrgencyLow:    ":large_blue_circle:",
	types.UrgencyNormal: ":car:",
	types.UrgencyHigh:   ":warning:",
	types.UrgencyUrgent: ":rotating_light:",
}

func slackBlocks(n notification.Notification) slack.MsgOption {
	header := slack.NewTextBlockObject(slack.MarkdownType,
		fmt.Sprintf("%s *%s*", urgencyEmoji[n.Urgency], n.Title), false, false)
	body := slack.NewTextBlockObject(slack.MarkdownType, n.Body, false, false)
	ctxBlock := slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.MarkdownType,
			fmt.Sprintf("alert `%s` · urgency %s", n.AlertID, n.Urgency), false, false))

	return slack.MsgOptionBlocks(
		slack.NewSectionBlock(header, nil, nil),
		slack.NewSectionBlock(body, nil, nil),
		ctxBlock,
	)
}

func (x *Slack) Show(ctx context.Context, n notification.Notification) error {
	key := slackKey(n.ID)
	ts, err := x.kv.Get(ctx, key)
	if err != nil {
		return goerr.Wrap(err, "failed to look up slack message", goerr.T(errs.TagPresentation))
	}

	text := slack.MsgOptionText(n.Title+"\n"+n.Body, false)

	if len(ts) > 0 {
		if _, _, _, err := x.client.UpdateMessageContext(ctx, x.channelID, string(ts), text, slackBlocks(n)); err != nil {
			return goerr.Wrap(err, "failed to update slack message",
				goerr.T(errs.TagPresentation),
				goerr.TV(errutil.ChannelIDKey, x.channelID),
				goerr.TV(errutil.NotificationIDKey, n.ID))
		}
		return nil
	}

	_, newTS, err := x.client.PostMessageContext(ctx, x.channelID, text, slackBlocks(n))
	if err != nil {
		return goerr.Wrap(err, "failed to post slack message",
			goerr.T(errs.TagPresentation),
			goerr.TV(errutil.ChannelIDKey, x.channelID),
			goerr.TV(errutil.NotificationIDKey, n.ID))
	}

	if err := x.kv.Put(ctx, key, []byte(newTS)); err != nil {
		return goerr.Wrap(err, "failed to remember slack message", goerr.T(errs.TagPresentation))
	}
	return nil
}
