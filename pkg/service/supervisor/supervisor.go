// Package supervisor keeps one realtime subscription alive per identity.
package supervisor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/interfaces"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/alert"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/errs"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/errutil"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/logging"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/metrics"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/safe"
	"github.com/cenkalti/backoff/v4"
	"github.com/m-mizutani/goerr/v2"
)

type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateBackoff      State = "backoff"
	StateStopped      State = "stopped"
)

const (
	DefaultRetryInterval    = 5 * time.Second
	DefaultLivenessInterval = 5 * time.Minute
)

// SubscribeFunc opens the realtime query for one identity.
type SubscribeFunc func(ctx context.Context, id types.UserID) (interfaces.AlertStream, error)

// RowHandler receives every row the subscription yields.
type RowHandler func(ctx context.Context, row alert.Alert)

// IdentitySource reads the persisted identity the supervisor should follow.
type IdentitySource func(ctx context.Context) (types.UserID, error)

// Supervisor runs the loop
//
//	disconnected -> connecting -> connected -> (error) -> backoff -> connecting
//
// with unbounded retries. Changing the identity cancels the running
// subscription before the next one is opened. Once cancelled, a run never
// re-arms its backoff timer.
type Supervisor struct {
	name      string
	subscribe SubscribeFunc
	handle    RowHandler

	newBackOff func() backoff.BackOff
	liveness   time.Duration
	identity   IdentitySource
	observers  []func(State)
	onSwitch   []func(context.Context, types.UserID)

	ctlMu     sync.Mutex
	baseCtx   context.Context
	stopAll   context.CancelFunc
	cancelRun context.CancelFunc
	runDone   chan struct{}
	liveDone  chan struct{}
	recipient types.UserID

	stateMu sync.Mutex
	state   State
}

type Option func(*Supervisor)

// WithRetryInterval replaces the fixed delay between reconnect attempts.
func WithRetryInterval(d time.Duration) Option {
	return func(s *Supervisor) {
		s.newBackOff = func() backoff.BackOff {
			return backoff.NewConstantBackOff(d)
		}
	}
}

// WithBackOff replaces the retry policy. The factory is called once per
// subscription run. A policy returning backoff.Stop falls back to the
// default interval; retries are never abandoned.
func WithBackOff(factory func() backoff.BackOff) Option {
	return func(s *Supervisor) {
		s.newBackOff = factory
	}
}

// WithLiveness enables the periodic identity check.
func WithLiveness(interval time.Duration, source IdentitySource) Option {
	return func(s *Supervisor) {
		s.liveness = interval
		s.identity = source
	}
}

// WithRecipientObserver is called after the liveness probe moved the
// subscription to a new identity, so other surfaces can follow it.
func WithRecipientObserver(fn func(ctx context.Context, id types.UserID)) Option {
	return func(s *Supervisor) {
		s.onSwitch = append(s.onSwitch, fn)
	}
}

// WithStateObserver is called on every state change. Observers must not call
// back into the supervisor.
func WithStateObserver(fn func(State)) Option {
	return func(s *Supervisor) {
		s.observers = append(s.observers, fn)
	}
}

func New(name string, subscribe SubscribeFunc, handle RowHandler, opts ...Option) *Supervisor {
	s := &Supervisor{
		name:      name,
		subscribe: subscribe,
		handle:    handle,
		newBackOff: func() backoff.BackOff {
			return backoff.NewConstantBackOff(DefaultRetryInterval)
		},
		liveness: DefaultLivenessInterval,
		state:    StateDisconnected,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (x *Supervisor) State() State {
	x.stateMu.Lock()
	defer x.stateMu.Unlock()
	return x.state
}

func (x *Supervisor) Recipient() types.UserID {
	x.ctlMu.Lock()
	defer x.ctlMu.Unlock()
	return x.recipient
}

func (x *Supervisor) setState(s State) {
	x.stateMu.Lock()
	if x.state == s {
		x.stateMu.Unlock()
		return
	}
	x.state = s
	x.stateMu.Unlock()

	for _, fn := range x.observers {
		fn(s)
	}
}

// Start begins supervising recipient. Calling Start again replaces the
// identity, like SetRecipient. An empty recipient keeps the supervisor
// disconnected until one is set.
func (x *Supervisor) Start(ctx context.Context, recipient types.UserID) {
	x.ctlMu.Lock()
	defer x.ctlMu.Unlock()

	if x.baseCtx == nil || x.baseCtx.Err() != nil {
		x.baseCtx, x.stopAll = context.WithCancel(ctx)
		if x.identity != nil && x.liveness > 0 {
			x.liveDone = make(chan struct{})
			go x.livenessLoop(x.baseCtx, x.liveDone)
		}
	}
	x.switchLocked(recipient)
}

// SetRecipient moves the subscription to a new identity. Setting the current
// identity again is a no-op.
func (x *Supervisor) SetRecipient(recipient types.UserID) {
	x.ctlMu.Lock()
	defer x.ctlMu.Unlock()

	if x.baseCtx == nil || x.baseCtx.Err() != nil {
		x.recipient = recipient
		return
	}
	if recipient == x.recipient && x.runDone != nil {
		return
	}
	x.switchLocked(recipient)
}

func (x *Supervisor) switchLocked(recipient types.UserID) {
	x.stopRunLocked()
	x.recipient = recipient

	if recipient == types.EmptyUserID {
		x.setState(StateDisconnected)
		return
	}

	// set before the run starts so State never reports the previous
	// identity's connection
	x.setState(StateConnecting)
	runCtx, cancel := context.WithCancel(x.baseCtx)
	done := make(chan struct{})
	x.cancelRun = cancel
	x.runDone = done
	go x.run(runCtx, recipient, done)
}

func (x *Supervisor) stopRunLocked() {
	if x.cancelRun == nil {
		return
	}
	x.cancelRun()
	<-x.runDone
	x.cancelRun = nil
	x.runDone = nil
}

// Stop cancels the subscription and the liveness probe and waits for both.
func (x *Supervisor) Stop() {
	x.ctlMu.Lock()
	if x.stopAll != nil {
		x.stopAll()
	}
	x.stopRunLocked()
	liveDone := x.liveDone
	x.liveDone = nil
	x.ctlMu.Unlock()

	// the probe may be waiting on ctlMu
	if liveDone != nil {
		<-liveDone
	}
	x.setState(StateStopped)
}

func (x *Supervisor) run(ctx context.Context, recipient types.UserID, done chan struct{}) {
	defer close(done)
	// every exit is a cancellation
	defer x.setState(StateDisconnected)

	logger := logging.From(ctx).With(
		slog.String("stream", x.name),
		slog.String("recipient", recipient.String()),
	)
	ctx = logging.With(ctx, logger)
	policy := x.newBackOff()

	for {
		if ctx.Err() != nil {
			return
		}

		x.setState(StateConnecting)
		err := x.connect(ctx, recipient, policy)
		if ctx.Err() != nil {
			return
		}

		metrics.StreamReconnects.WithLabelValues(x.name).Inc()
		logger.Warn("realtime subscription lost, retrying", logging.ErrAttr(err))

		wait := policy.NextBackOff()
		if wait == backoff.Stop {
			wait = DefaultRetryInterval
		}

		x.setState(StateBackoff)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// connect opens the stream and consumes it until it fails.
func (x *Supervisor) connect(ctx context.Context, recipient types.UserID, policy backoff.BackOff) error {
	stream, err := x.subscribe(ctx, recipient)
	if err != nil {
		return goerr.Wrap(err, "failed to subscribe", goerr.TV(errutil.UserIDKey, recipient))
	}
	defer stream.Close()

	x.setState(StateConnected)
	policy.Reset()

	for {
		row, err := stream.Next(ctx)
		if err != nil {
			return err
		}
		x.deliver(ctx, *row)
	}
}

func (x *Supervisor) deliver(ctx context.Context, row alert.Alert) {
	err := safe.Run(func() error {
		x.handle(ctx, row)
		return nil
	})
	if err != nil {
		errs.Handle(ctx, goerr.Wrap(err, "row handler failed",
			goerr.TV(errutil.AlertIDKey, row.ID),
			goerr.V("stream", x.name)))
	}
}

func (x *Supervisor) livenessLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(x.liveness)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			x.checkIdentity(ctx)
		}
	}
}

func (x *Supervisor) checkIdentity(ctx context.Context) {
	var id types.UserID
	err := safe.Run(func() error {
		var err error
		id, err = x.identity(ctx)
		return err
	})
	if err != nil {
		logging.From(ctx).Warn("liveness probe could not read identity",
			slog.String("stream", x.name),
			logging.ErrAttr(err))
		return
	}
	if id == types.EmptyUserID || ctx.Err() != nil {
		return
	}

	if id != x.Recipient() {
		logging.From(ctx).Info("recipient changed, resubscribing",
			slog.String("stream", x.name),
			slog.String("recipient", id.String()))
		x.SetRecipient(id)

		for _, fn := range x.onSwitch {
			if err := safe.Run(func() error { fn(ctx, id); return nil }); err != nil {
				errs.Handle(ctx, goerr.Wrap(err, "recipient observer failed", goerr.V("stream", x.name)))
			}
		}
	}
}
