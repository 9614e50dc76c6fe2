package errutil

import (
	"time"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

var (
	// IDs
	AlertIDKey        = goerr.NewTypedKey[types.AlertID]("alert_id")
	UserIDKey         = goerr.NewTypedKey[types.UserID]("user_id")
	SenderIDKey       = goerr.NewTypedKey[types.UserID]("sender_id")
	ReceiverIDKey     = goerr.NewTypedKey[types.UserID]("receiver_id")
	PlateHashKey      = goerr.NewTypedKey[types.PlateHash]("plate_hash")
	NotificationIDKey = goerr.NewTypedKey[types.NotificationID]("notification_id")

	// Values
	UrgencyKey  = goerr.NewTypedKey[types.Urgency]("urgency")
	ResponseKey = goerr.NewTypedKey[types.ResponseCode]("response")
	SurfaceKey  = goerr.NewTypedKey[string]("surface")
	StateKey    = goerr.NewTypedKey[string]("state")
	FromKey     = goerr.NewTypedKey[string]("from")
	ToKey       = goerr.NewTypedKey[string]("to")
	ReasonKey   = goerr.NewTypedKey[string]("reason")
	FieldKey    = goerr.NewTypedKey[string]("field")
	StorageKey  = goerr.NewTypedKey[string]("storage_key")

	// Timing
	DurationKey  = goerr.NewTypedKey[time.Duration]("duration")
	TimestampKey = goerr.NewTypedKey[time.Time]("timestamp")

	// External services
	RepositoryKey = goerr.NewTypedKey[string]("repository")
	CollectionKey = goerr.NewTypedKey[string]("collection")
	ChannelIDKey  = goerr.NewTypedKey[string]("channel_id")
)
