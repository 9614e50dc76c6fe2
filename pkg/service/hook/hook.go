// Package hook composes the lifecycle hooks exposed to the UI layer.
package hook

import (
	"context"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/interfaces"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/ack"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/errs"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

// Funcs adapts plain functions to interfaces.Hooks. Nil fields are skipped.
type Funcs struct {
	AlertNotified      func(ctx context.Context, id types.AlertID)
	ResponseObserved   func(ctx context.Context, id types.AlertID, code types.ResponseCode)
	AckTimeoutComputed func(ctx context.Context, summary ack.Summary)
}

var _ interfaces.Hooks = Funcs{}

func (x Funcs) OnAlertNotified(ctx context.Context, id types.AlertID) {
	if x.AlertNotified != nil {
		x.AlertNotified(ctx, id)
	}
}

func (x Funcs) OnResponseObserved(ctx context.Context, id types.AlertID, code types.ResponseCode) {
	if x.ResponseObserved != nil {
		x.ResponseObserved(ctx, id, code)
	}
}

func (x Funcs) OnAckTimeoutComputed(ctx context.Context, summary ack.Summary) {
	if x.AckTimeoutComputed != nil {
		x.AckTimeoutComputed(ctx, summary)
	}
}

// Nop ignores every event.
var Nop interfaces.Hooks = Funcs{}

// Multi calls each hook in order. A panicking hook is reported and does not
// stop the others.
type Multi []interfaces.Hooks

var _ interfaces.Hooks = Multi{}

func (x Multi) each(ctx context.Context, name string, fn func(h interfaces.Hooks)) {
	for _, h := range x {
		if h == nil {
			continue
		}
		if err := safe.Run(func() error {
			fn(h)
			return nil
		}); err != nil {
			errs.Handle(ctx, goerr.Wrap(err, "lifecycle hook failed", goerr.V("hook", name)))
		}
	}
}

func (x Multi) OnAlertNotified(ctx context.Context, id types.AlertID) {
	x.each(ctx, "alert_notified", func(h interfaces.Hooks) { h.OnAlertNotified(ctx, id) })
}

func (x Multi) OnResponseObserved(ctx context.Context, id types.AlertID, code types.ResponseCode) {
	x.each(ctx, "response_observed", func(h interfaces.Hooks) { h.OnResponseObserved(ctx, id, code) })
}

func (x Multi) OnAckTimeoutComputed(ctx context.Context, summary ack.Summary) {
	x.each(ctx, "ack_timeout_computed", func(h interfaces.Hooks) { h.OnAckTimeoutComputed(ctx, summary) })
}
