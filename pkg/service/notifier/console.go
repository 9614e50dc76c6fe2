package notifier

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/interfaces"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/notification"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/fatih/color"
)

// Console prints notifications to a terminal. A notification whose id is
// already on screen is printed as a replacement instead of a new entry.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	shown map[types.NotificationID]struct{}
}

var _ interfaces.Notifier = &Console{}
var _ interfaces.Vibrator = &Console{}

func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{
		w:     w,
		shown: make(map[types.NotificationID]struct{}),
	}
}

var urgencyColors = map[types.Urgency]*color.Color{
	types.UrgencyLow:    color.New(color.FgCyan),
	types.UrgencyNormal: color.New(color.FgBlue, color.Bold),
	types.UrgencyHigh:   color.New(color.FgYellow, color.Bold),
	types.UrgencyUrgent: color.New(color.FgRed, color.Bold),
}

func (x *Console) Show(ctx context.Context, n notification.Notification) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	_, replaced := x.shown[n.ID]
	x.shown[n.ID] = struct{}{}

	c, ok := urgencyColors[n.Urgency]
	if !ok {
		c = urgencyColors[types.UrgencyNormal]
	}

	verb := "NEW"
	if replaced {
		verb = "UPDATED"
	}

	if _, err := c.Fprintf(x.w, "[%s #%s] %s\n", verb, n.ID, n.Title); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(x.w, "  %s\n", n.Body); err != nil {
		return err
	}
	if n.Sound != "" {
		if _, err := fmt.Fprintf(x.w, "  sound: %s\n", n.Sound); err != nil {
			return err
		}
	}
	return nil
}

func (x *Console) Vibrate(ctx context.Context, pattern []time.Duration) error {
	parts := make([]string, 0, len(pattern))
	for _, d := range pattern {
		parts = append(parts, d.String())
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	_, err := fmt.Fprintf(x.w, "  vibrate: %s\n", strings.Join(parts, " "))
	return err
}
