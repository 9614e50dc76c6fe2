package usecase

import (
	"sync"
	"time"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/adapter/storage"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/interfaces"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/ack"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/lifecycle"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/repository"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/capability"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/hook"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/spamguard"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/service/tracker"
)

type UseCases struct {
	// services and adapters
	repository interfaces.Repository
	capability interfaces.CapabilityGate
	spamGuard  *spamguard.Guard
	tracker    *tracker.Tracker
	pusher     interfaces.PushSender
	hooks      interfaces.Hooks

	// state machines of this process
	senders   *lifecycle.SenderBook
	receivers *lifecycle.ReceiverBook

	// first time each resolved or failed sender machine was seen settled
	settledMu sync.Mutex
	settled   map[types.AlertID]time.Time

	// configs
	ackWindow       time.Duration
	senderRetention time.Duration
}

// DefaultSenderRetention is how long resolved and failed alerts stay in
// SentAlerts.
const DefaultSenderRetention = ack.PruneAfter

type Option func(*UseCases)

func WithRepository(repository interfaces.Repository) Option {
	return func(u *UseCases) {
		u.repository = repository
	}
}

func WithCapabilityGate(gate interfaces.CapabilityGate) Option {
	return func(u *UseCases) {
		u.capability = gate
	}
}

func WithSpamGuard(guard *spamguard.Guard) Option {
	return func(u *UseCases) {
		u.spamGuard = guard
	}
}

func WithTracker(t *tracker.Tracker) Option {
	return func(u *UseCases) {
		u.tracker = t
	}
}

// WithPushSender enables platform push to the recipient's devices on send.
func WithPushSender(pusher interfaces.PushSender) Option {
	return func(u *UseCases) {
		u.pusher = pusher
	}
}

func WithHooks(hooks interfaces.Hooks) Option {
	return func(u *UseCases) {
		u.hooks = hooks
	}
}

// WithSenderRetention overrides how long settled sender machines are kept.
func WithSenderRetention(d time.Duration) Option {
	return func(u *UseCases) {
		u.senderRetention = d
	}
}

// WithReceivers shares receiver state machines with the dispatchers of the
// same process.
func WithReceivers(book *lifecycle.ReceiverBook) Option {
	return func(u *UseCases) {
		u.receivers = book
	}
}

// WithAckWindow overrides how long a delivered alert waits for an answer
// before the sender sees it as timed out.
func WithAckWindow(window time.Duration) Option {
	return func(u *UseCases) {
		u.ackWindow = window
	}
}

func New(opts ...Option) *UseCases {
	u := &UseCases{
		repository: repository.NewMemory(),
		capability: capability.Unlimited,
		hooks:      hook.Nop,
		senders:    lifecycle.NewSenderBook(),
		settled:    make(map[types.AlertID]time.Time),
		ackWindow:  ack.Window,

		senderRetention: DefaultSenderRetention,
	}

	for _, opt := range opts {
		opt(u)
	}

	if u.tracker == nil {
		u.tracker = tracker.New(storage.NewMemory(), tracker.WithHooks(u.hooks))
	}
	if u.receivers == nil {
		u.receivers = lifecycle.NewReceiverBook()
	}
	return u
}

func (u *UseCases) Receivers() *lifecycle.ReceiverBook {
	return u.receivers
}

func (u *UseCases) Tracker() *tracker.Tracker {
	return u.tracker
}
