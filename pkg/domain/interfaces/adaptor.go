package interfaces

import (
	"context"

	"firebase.google.com/go/v4/messaging"
	"github.com/slack-go/slack"
)

type SlackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	UpdateMessageContext(ctx context.Context, channelID, timestamp string, options ...slack.MsgOption) (string, string, string, error)
	AuthTest() (*slack.AuthTestResponse, error)
}

// MessagingClient is the subset of the FCM client used for push delivery.
type MessagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}
