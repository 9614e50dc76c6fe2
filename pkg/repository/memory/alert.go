package memory

import (
	"context"
	"sort"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/interfaces"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/alert"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/errs"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/errutil"
	"github.com/m-mizutani/goerr/v2"
)

func (r *Memory) Insert(ctx context.Context, a alert.Alert) (types.AlertID, error) {
	r.incrementCallCount("Insert")

	if err := a.Validate(); err != nil {
		return types.EmptyAlertID, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := popError(&r.failInsert); err != nil {
		return types.EmptyAlertID, r.eb.Wrap(err, "failed to insert alert",
			goerr.T(errs.TagTransport),
			goerr.TV(errutil.AlertIDKey, a.ID))
	}
	if _, ok := r.alerts[a.ID]; ok {
		return types.EmptyAlertID, r.eb.New("alert already exists",
			goerr.T(errs.TagInvalidState),
			goerr.TV(errutil.AlertIDKey, a.ID))
	}

	stored := a.Copy()
	r.alerts[a.ID] = &stored
	r.publish(&stored)
	return a.ID, nil
}

func (r *Memory) Update(ctx context.Context, id types.AlertID, fields alert.Fields) (*alert.Alert, error) {
	r.incrementCallCount("Update")

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := popError(&r.failUpdate); err != nil {
		return nil, r.eb.Wrap(err, "failed to update alert",
			goerr.T(errs.TagTransport),
			goerr.TV(errutil.AlertIDKey, id))
	}

	stored, ok := r.alerts[id]
	if !ok {
		return nil, r.eb.New("alert not found",
			goerr.T(errs.TagNotFound),
			goerr.TV(errutil.AlertIDKey, id))
	}

	next := stored.Copy()
	applied, err := next.Apply(fields)
	if err != nil {
		return nil, err
	}
	if !applied.IsEmpty() {
		r.alerts[id] = &next
		r.publish(&next)
	}

	out := r.alerts[id].Copy()
	return &out, nil
}

func (r *Memory) GetAlert(ctx context.Context, id types.AlertID) (*alert.Alert, error) {
	r.incrementCallCount("GetAlert")

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.alerts[id]
	if !ok {
		return nil, r.eb.New("alert not found",
			goerr.T(errs.TagNotFound),
			goerr.TV(errutil.AlertIDKey, id))
	}
	out := stored.Copy()
	return &out, nil
}

func (r *Memory) SubscribeByReceiver(ctx context.Context, receiver types.UserID) (interfaces.AlertStream, error) {
	r.incrementCallCount("SubscribeByReceiver")
	return r.subscribe(func(a *alert.Alert) bool { return a.ReceiverID == receiver })
}

func (r *Memory) SubscribeBySender(ctx context.Context, sender types.UserID) (interfaces.AlertStream, error) {
	r.incrementCallCount("SubscribeBySender")
	return r.subscribe(func(a *alert.Alert) bool { return a.SenderID == sender })
}

func (r *Memory) subscribe(match func(*alert.Alert) bool) (interfaces.AlertStream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := popError(&r.failSubscribe); err != nil {
		return nil, r.eb.Wrap(err, "failed to subscribe", goerr.T(errs.TagTransport))
	}

	s := newStream(r, match)

	// current matches first, oldest first
	var initial alert.Alerts
	for _, a := range r.alerts {
		if match(a) {
			initial = append(initial, a)
		}
	}
	sort.Slice(initial, func(i, j int) bool {
		return initial[i].CreatedAt.Before(initial[j].CreatedAt)
	})
	for _, a := range initial {
		s.push(a)
	}

	r.streams[s] = struct{}{}
	return s, nil
}

// publish must be called with r.mu held.
func (r *Memory) publish(a *alert.Alert) {
	for s := range r.streams {
		if s.match(a) {
			s.push(a)
		}
	}
}

func (r *Memory) unsubscribe(s *stream) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.streams, s)
}
