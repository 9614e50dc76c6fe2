package usecase

import (
	"context"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/alert"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/errs"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/lifecycle"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/clock"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/errutil"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

func (u *UseCases) ownAlert(ctx context.Context, receiver types.UserID, id types.AlertID) (*alert.Alert, error) {
	a, err := u.repository.GetAlert(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.ReceiverID != receiver {
		return nil, goerr.New("alert belongs to another receiver",
			goerr.T(errs.TagForbidden),
			goerr.TV(errutil.AlertIDKey, id),
			goerr.TV(errutil.UserIDKey, receiver))
	}
	return a, nil
}

// receiverMachine returns the local machine for a, catching it up with the
// stored record when this process never notified it.
func (u *UseCases) receiverMachine(a *alert.Alert) *lifecycle.Receiver {
	if r, ok := u.receivers.Lookup(a.ID); ok {
		return r
	}
	r := lifecycle.RestoreReceiver(a.ID, a.ReceiverState())
	u.receivers.Put(a.ID, r)
	return r
}

// OpenAlert records that the receiver opened the alert. Opening it again is
// a no-op.
func (u *UseCases) OpenAlert(ctx context.Context, receiver types.UserID, id types.AlertID) (*alert.Alert, error) {
	a, err := u.ownAlert(ctx, receiver, id)
	if err != nil {
		return nil, err
	}
	if a.ReadAt != nil || a.Response != nil {
		return a, nil
	}

	updated, err := u.repository.Update(ctx, id, alert.Read(clock.Now(ctx)))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to mark alert read", goerr.TV(errutil.AlertIDKey, id))
	}

	r := u.receiverMachine(a)
	if r.State() == types.ReceiverUnseen {
		// opened from the inbox before any surface showed it
		_ = r.Notify()
	}
	if r.State() == types.ReceiverNotified {
		if err := r.Open(); err != nil {
			logging.From(ctx).Debug("receiver state not advanced", logging.ErrAttr(err))
		}
	}
	return updated, nil
}

// RespondToAlert stores the receiver's answer. An alert is answered at most
// once; answering again fails with an invalid state error.
func (u *UseCases) RespondToAlert(ctx context.Context, receiver types.UserID, id types.AlertID, code types.ResponseCode, message string) (*alert.Alert, error) {
	if err := code.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid response", goerr.T(errs.TagValidation))
	}

	a, err := u.ownAlert(ctx, receiver, id)
	if err != nil {
		return nil, err
	}
	if a.Response != nil {
		return nil, goerr.New("alert already answered",
			goerr.T(errs.TagInvalidState),
			goerr.TV(errutil.AlertIDKey, id),
			goerr.TV(errutil.ResponseKey, *a.Response))
	}

	updated, err := u.repository.Update(ctx, id, alert.Responded(code, message, clock.Now(ctx)))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to store response", goerr.TV(errutil.AlertIDKey, id))
	}
	if updated.Response == nil || *updated.Response != code {
		// another device answered between our read and write
		return nil, goerr.New("alert already answered",
			goerr.T(errs.TagInvalidState), goerr.TV(errutil.AlertIDKey, id))
	}

	r := u.receiverMachine(a)
	if r.State() == types.ReceiverUnseen {
		_ = r.Notify()
	}
	if err := r.Respond(code); err != nil {
		logging.From(ctx).Debug("receiver state not advanced", logging.ErrAttr(err))
	}
	return updated, nil
}

// ReceiverState is the local receiver-side state of an alert.
func (u *UseCases) ReceiverState(id types.AlertID) types.ReceiverState {
	if r, ok := u.receivers.Lookup(id); ok {
		return r.State()
	}
	return types.ReceiverUnseen
}
