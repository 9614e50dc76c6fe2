package isolate

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// DefaultStopTimeout is how long Close waits for the process to exit after
// the stop message before killing it.
const DefaultStopTimeout = 5 * time.Second

// Host spawns and controls the background process.
type Host struct {
	mu    sync.Mutex
	cmd   *exec.Cmd
	stdin io.WriteCloser
	done  chan error

	stopTimeout time.Duration
}

// Spawn starts name with args. The child's stdout and stderr are inherited.
func Spawn(ctx context.Context, name string, args ...string) (*Host, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open control pipe")
	}
	if err := cmd.Start(); err != nil {
		return nil, goerr.Wrap(err, "failed to start background process", goerr.V("command", name))
	}

	h := &Host{
		cmd:         cmd,
		stdin:       stdin,
		done:        make(chan error, 1),
		stopTimeout: DefaultStopTimeout,
	}
	go func() {
		h.done <- cmd.Wait()
	}()

	logging.From(ctx).Info("background process started", "pid", cmd.Process.Pid)
	return h, nil
}

func (x *Host) send(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return goerr.Wrap(err, "failed to encode control message")
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if x.stdin == nil {
		return goerr.New("background process already stopped")
	}
	if _, err := x.stdin.Write(append(data, '\n')); err != nil {
		return goerr.Wrap(err, "failed to write control message", goerr.V("type", msg.Type))
	}
	return nil
}

func (x *Host) UpdateRecipient(id types.UserID) error {
	return x.send(UpdateRecipient(id))
}

// Close asks the process to stop and waits for it, killing it after the stop
// timeout.
func (x *Host) Close() error {
	if err := x.send(Stop()); err != nil {
		return err
	}

	x.mu.Lock()
	_ = x.stdin.Close()
	x.stdin = nil
	x.mu.Unlock()

	select {
	case err := <-x.done:
		if err != nil {
			return goerr.Wrap(err, "background process exited with error")
		}
		return nil
	case <-time.After(x.stopTimeout):
		if err := x.cmd.Process.Kill(); err != nil {
			return goerr.Wrap(err, "failed to kill background process")
		}
		<-x.done
		return goerr.New("background process did not stop in time", goerr.V("timeout", x.stopTimeout))
	}
}
