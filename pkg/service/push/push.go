// Package push delivers alert payloads through Firebase Cloud Messaging.
package push

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/interfaces"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/errs"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/notification"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/errutil"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/option"
)

// NewMessagingClient builds an FCM client from a service account file.
func NewMessagingClient(ctx context.Context, credentialsFile string) (*messaging.Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize firebase app")
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create messaging client")
	}
	return client, nil
}

// FCM sends data-only messages so the receiving app renders the notification
// itself, with the same id as every other surface.
type FCM struct {
	client interfaces.MessagingClient
}

var _ interfaces.PushSender = &FCM{}

func New(client interfaces.MessagingClient) *FCM {
	return &FCM{client: client}
}

// Message builds the FCM message for one device. The alert id is the
// collapse key on both platforms, so a retried send replaces the pending one.
func Message(token string, p notification.Push) *messaging.Message {
	id := p.AlertID.String()
	return &messaging.Message{
		Token: token,
		Data:  p.Encode(),
		Android: &messaging.AndroidConfig{
			Priority:    "high",
			CollapseKey: id,
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-collapse-id": id,
				"apns-priority":    "10",
				"apns-push-type":   "background",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{ContentAvailable: true},
			},
		},
	}
}

// ErrUnregistered marks a device token FCM no longer accepts.
var ErrUnregistered = errors.New("device token is unregistered")

func (x *FCM) Push(ctx context.Context, token string, p notification.Push) error {
	msgID, err := x.client.Send(ctx, Message(token, p))
	if err != nil {
		if messaging.IsUnregistered(err) {
			return goerr.Wrap(ErrUnregistered, "fcm rejected device token",
				goerr.T(errs.TagNotFound),
				goerr.TV(errutil.AlertIDKey, p.AlertID),
				goerr.V("cause", err.Error()))
		}
		return goerr.Wrap(err, "failed to send push message",
			goerr.T(errs.TagTransport), goerr.TV(errutil.AlertIDKey, p.AlertID))
	}

	logging.From(ctx).Debug("push message sent",
		slog.String("alert_id", p.AlertID.String()),
		slog.String("message_id", msgID))
	return nil
}

// Result counts a fan-out to every device of one user.
type Result struct {
	Sent    int
	Failed  int
	Removed int
}

// SendToUser pushes p to every device token registered by user. Tokens that
// FCM reports as unregistered are deleted. Per-device failures are reported
// and counted, never returned; only reading the token list can fail.
func SendToUser(ctx context.Context, tokens interfaces.DeviceTokens, sender interfaces.PushSender, user types.UserID, p notification.Push) (Result, error) {
	var result Result

	list, err := tokens.GetDeviceTokens(ctx, user)
	if err != nil {
		return result, goerr.Wrap(err, "failed to get device tokens", goerr.TV(errutil.UserIDKey, user))
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, token := range list {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			err := sender.Push(ctx, token, p)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				result.Sent++
			case errors.Is(err, ErrUnregistered):
				result.Removed++
				if err := tokens.DeleteDeviceToken(ctx, user, token); err != nil {
					errs.Handle(ctx, goerr.Wrap(err, "failed to delete stale device token", goerr.TV(errutil.UserIDKey, user)))
				}
			default:
				result.Failed++
				errs.Handle(ctx, err)
			}
		}(token)
	}
	wg.Wait()

	return result, nil
}
