// Package identity persists which user this device receives alerts for.
package identity

import (
	"context"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/interfaces"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/errs"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/errutil"
	"github.com/m-mizutani/goerr/v2"
)

const recipientKey = "identity:recipient"

// Store keeps the last known recipient identity. The supervisors' liveness
// probe reads it, so a sign-in from any process reaches every surface.
type Store struct {
	kv interfaces.KVStore
}

func New(kv interfaces.KVStore) *Store {
	return &Store{kv: kv}
}

// Recipient returns the stored identity, or an empty id when none is set.
func (x *Store) Recipient(ctx context.Context) (types.UserID, error) {
	data, err := x.kv.Get(ctx, recipientKey)
	if err != nil {
		return types.EmptyUserID, goerr.Wrap(err, "failed to read recipient identity",
			goerr.T(errs.TagStorage), goerr.TV(errutil.StorageKey, recipientKey))
	}
	return types.UserID(data), nil
}

func (x *Store) SetRecipient(ctx context.Context, id types.UserID) error {
	if id == types.EmptyUserID {
		return x.Clear(ctx)
	}
	if err := x.kv.Put(ctx, recipientKey, []byte(id)); err != nil {
		return goerr.Wrap(err, "failed to save recipient identity",
			goerr.T(errs.TagStorage), goerr.TV(errutil.UserIDKey, id))
	}
	return nil
}

func (x *Store) Clear(ctx context.Context) error {
	if err := x.kv.Delete(ctx, recipientKey); err != nil {
		return goerr.Wrap(err, "failed to clear recipient identity", goerr.T(errs.TagStorage))
	}
	return nil
}
