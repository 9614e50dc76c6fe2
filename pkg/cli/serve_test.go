package cli_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/cli"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/alert"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/repository"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/isolate"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/supervisor"
	"github.com/m-mizutani/gt"
)

const recipientLogEnv = "YUHBLOCKIN_RECIPIENT_LOG"

// recipientLog appends every identity the background side is handed to a file.
type recipientLog struct {
	mu   sync.Mutex
	path string
}

func (l *recipientLog) write(id types.UserID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.WriteString(id.String() + "\n")
}

func (l *recipientLog) Start(ctx context.Context, recipient types.UserID) { l.write(recipient) }
func (l *recipientLog) SetRecipient(recipient types.UserID)               { l.write(recipient) }
func (l *recipientLog) Stop()                                             {}

// TestBackgroundChild is the child side of TestIdentityChangeReachesBackground.
func TestBackgroundChild(t *testing.T) {
	path := os.Getenv(recipientLogEnv)
	if path == "" {
		return
	}
	if err := isolate.Serve(context.Background(), os.Stdin, &recipientLog{path: path}, "alice"); err != nil {
		os.Exit(2)
	}
	os.Exit(0)
}

func TestIdentityChangeReachesBackground(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "recipients.log")
	t.Setenv(recipientLogEnv, logPath)

	host := gt.R1(isolate.Spawn(context.Background(), os.Args[0], "-test.run=^TestBackgroundChild$")).NoError(t)

	var current atomic.Value
	current.Store(types.UserID("alice"))
	source := func(ctx context.Context) (types.UserID, error) {
		return current.Load().(types.UserID), nil
	}

	forward := cli.ForwardRecipient(host)
	forwarded := make(chan struct{})
	var once sync.Once
	repo := repository.NewMemory()
	inbox := supervisor.New("foreground", repo.SubscribeByReceiver,
		func(context.Context, alert.Alert) {},
		supervisor.WithLiveness(10*time.Millisecond, source),
		supervisor.WithRecipientObserver(func(ctx context.Context, id types.UserID) {
			forward(ctx, id)
			once.Do(func() { close(forwarded) })
		}))
	inbox.Start(t.Context(), "alice")

	current.Store(types.UserID("carol"))
	select {
	case <-forwarded:
	case <-time.After(5 * time.Second):
		t.Fatal("identity change was not forwarded")
	}
	inbox.Stop()
	gt.NoError(t, host.Close()).Required()

	data := gt.R1(os.ReadFile(logPath)).NoError(t)
	gt.Equal(t, strings.Fields(string(data)), []string{"alice", "carol"})
}

func TestForwardWithoutBackground(t *testing.T) {
	// no background process was spawned; the change stays local
	cli.ForwardRecipient(nil)(context.Background(), "carol")
}
