package interfaces

import (
	"context"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/alert"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
)

// AlertStream is one open realtime subscription. Next blocks until a row is
// added or modified, the context is cancelled, or the feed breaks. The first
// rows delivered are the current matches of the query.
type AlertStream interface {
	Next(ctx context.Context) (*alert.Alert, error)
	Close()
}

// AlertStore is the remote alert store with its realtime change feed.
type AlertStore interface {
	Insert(ctx context.Context, a alert.Alert) (types.AlertID, error)
	// Update applies forward-only lifecycle fields. Fields that are already
	// set on the stored alert are left untouched.
	Update(ctx context.Context, id types.AlertID, fields alert.Fields) (*alert.Alert, error)
	GetAlert(ctx context.Context, id types.AlertID) (*alert.Alert, error)

	SubscribeByReceiver(ctx context.Context, receiver types.UserID) (AlertStream, error)
	SubscribeBySender(ctx context.Context, sender types.UserID) (AlertStream, error)
}

// IdentityResolver maps a plate hash to the identities that registered it.
type IdentityResolver interface {
	ResolveRecipient(ctx context.Context, plate types.PlateHash) ([]types.UserID, error)
}

type PlateRegistry interface {
	IdentityResolver
	RegisterPlate(ctx context.Context, plate types.PlateHash, owner types.UserID) error
}

// DeviceTokens keeps the push tokens registered by each user's devices.
type DeviceTokens interface {
	PutDeviceToken(ctx context.Context, user types.UserID, token string) error
	GetDeviceTokens(ctx context.Context, user types.UserID) ([]string, error)
	DeleteDeviceToken(ctx context.Context, user types.UserID, token string) error
}

type Repository interface {
	AlertStore
	PlateRegistry
	DeviceTokens
}

// KVStore is device-local persistence. Get returns nil without error when the
// key is absent.
//
// Update is an atomic read-modify-write across every process sharing the
// store. fn receives the current value (nil when absent); returning a nil
// value leaves the key untouched. fn must not call back into the store.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Update(ctx context.Context, key string, fn func(old []byte) ([]byte, error)) error
}
