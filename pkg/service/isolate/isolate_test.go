package isolate_test

import (
	"context"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/alert"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/repository"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/isolate"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/supervisor"
	"github.com/m-mizutani/gt"
)

type fakeSub struct {
	mu         sync.Mutex
	started    types.UserID
	recipients []types.UserID
	stopped    bool
}

func (f *fakeSub) Start(ctx context.Context, recipient types.UserID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = recipient
}

func (f *fakeSub) SetRecipient(recipient types.UserID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recipients = append(f.recipients, recipient)
}

func (f *fakeSub) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
}

func serveAsync(ctx context.Context, r io.Reader, sub isolate.Subscription, initial types.UserID) chan error {
	done := make(chan error, 1)
	go func() { done <- isolate.Serve(ctx, r, sub, initial) }()
	return done
}

func wait(t *testing.T, done chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return")
		return nil
	}
}

func TestServeControlMessages(t *testing.T) {
	r, w := io.Pipe()
	sub := &fakeSub{}
	done := serveAsync(context.Background(), r, sub, "first")

	_, err := w.Write([]byte(`{"type":"update_recipient","recipient":"second"}` + "\n"))
	gt.NoError(t, err)
	_, err = w.Write([]byte("garbage\n\n" + `{"type":"reboot"}` + "\n"))
	gt.NoError(t, err)
	_, err = w.Write([]byte(`{"type":"stop"}` + "\n"))
	gt.NoError(t, err)

	gt.NoError(t, wait(t, done))

	sub.mu.Lock()
	defer sub.mu.Unlock()
	gt.Equal(t, sub.started, types.UserID("first"))
	gt.Equal(t, sub.recipients, []types.UserID{"second"})
	gt.True(t, sub.stopped)
}

func TestServeStopsWhenHostGoesAway(t *testing.T) {
	r, w := io.Pipe()
	sub := &fakeSub{}
	done := serveAsync(context.Background(), r, sub, "")

	gt.NoError(t, w.Close())
	gt.NoError(t, wait(t, done))
	gt.True(t, sub.stopped)
}

func TestServeDrivesSupervisor(t *testing.T) {
	repo := repository.NewMemory()
	rows := make(chan alert.Alert, 4)
	sup := supervisor.New("background", repo.SubscribeByReceiver,
		func(ctx context.Context, row alert.Alert) { rows <- row },
		supervisor.WithRetryInterval(10*time.Millisecond))

	r, w := io.Pipe()
	done := serveAsync(context.Background(), r, sup, "")

	_, err := w.Write([]byte(`{"type":"update_recipient","recipient":"owner"}` + "\n"))
	gt.NoError(t, err)

	deadline := time.Now().Add(5 * time.Second)
	for repo.ActiveStreams() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	a := alert.New("sender", "owner", types.HashPlate("ABC 123"), types.UrgencyNormal, "", time.Now())
	gt.R1(repo.Insert(context.Background(), a)).NoError(t)

	select {
	case row := <-rows:
		gt.Equal(t, row.ID, a.ID)
	case <-time.After(5 * time.Second):
		t.Fatal("row was not delivered")
	}

	_, err = w.Write([]byte(`{"type":"stop"}` + "\n"))
	gt.NoError(t, err)
	gt.NoError(t, wait(t, done))
	gt.Equal(t, repo.ActiveStreams(), 0)
	gt.Equal(t, sup.State(), supervisor.StateStopped)
}

const helperEnv = "YUHBLOCKIN_ISOLATE_HELPER"

// TestHelperProcess is the child side of TestHostLifecycle.
func TestHelperProcess(t *testing.T) {
	if os.Getenv(helperEnv) != "1" {
		return
	}
	if err := isolate.Serve(context.Background(), os.Stdin, &fakeSub{}, ""); err != nil {
		os.Exit(2)
	}
	os.Exit(0)
}

func TestHostLifecycle(t *testing.T) {
	t.Setenv(helperEnv, "1")

	host := gt.R1(isolate.Spawn(context.Background(), os.Args[0], "-test.run=^TestHelperProcess$")).NoError(t)
	gt.NoError(t, host.UpdateRecipient("owner"))
	gt.NoError(t, host.Close())
	gt.Error(t, host.UpdateRecipient("again"))
}
