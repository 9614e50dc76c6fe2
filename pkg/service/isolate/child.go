package isolate

import (
	"bufio"
	"context"
	"io"
	"log/slog"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/logging"
)

// Subscription is what the background process drives from control messages.
// *supervisor.Supervisor satisfies it.
type Subscription interface {
	Start(ctx context.Context, recipient types.UserID)
	SetRecipient(recipient types.UserID)
	Stop()
}

// Serve runs the background side until a stop message arrives, the control
// stream closes or ctx is cancelled. The subscription is started for initial
// and always stopped before Serve returns.
func Serve(ctx context.Context, control io.Reader, sub Subscription, initial types.UserID) error {
	logger := logging.From(ctx)
	sub.Start(ctx, initial)
	defer sub.Stop()

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(control)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case line, ok := <-lines:
			if !ok {
				// host went away; nothing can update us any more
				logger.Info("control stream closed, stopping background surface")
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			if len(line) == 0 {
				continue
			}

			msg, err := decodeMessage(line)
			if err != nil {
				logger.Warn("ignoring control message", logging.ErrAttr(err))
				continue
			}

			switch msg.Type {
			case MessageUpdateRecipient:
				logger.Info("recipient updated", slog.String("recipient", msg.Recipient.String()))
				sub.SetRecipient(msg.Recipient)
			case MessageStop:
				logger.Info("stop requested")
				return nil
			}
		}
	}
}
