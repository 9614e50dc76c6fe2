package http

import (
	"context"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/ack"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/alert"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/lifecycle"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/usecase"
)

// UseCase is what the REST API needs from usecase.UseCases.
type UseCase interface {
	SendAlert(ctx context.Context, req usecase.SendRequest) (*usecase.SendResult, error)
	OpenAlert(ctx context.Context, receiver types.UserID, id types.AlertID) (*alert.Alert, error)
	RespondToAlert(ctx context.Context, receiver types.UserID, id types.AlertID, code types.ResponseCode, message string) (*alert.Alert, error)
	ResolveAlert(ctx context.Context, id types.AlertID) (*lifecycle.SenderView, error)
	SentAlert(id types.AlertID) (*lifecycle.SenderView, bool)
	SentAlerts() []lifecycle.SenderView
	Acks(ctx context.Context) ([]ack.Record, error)
	AckSummary(ctx context.Context) (ack.Summary, error)
	RemoveAck(ctx context.Context, id types.AlertID) error
	RegisterPlate(ctx context.Context, owner types.UserID, plate string) (types.PlateHash, error)
	RegisterDevice(ctx context.Context, user types.UserID, token string) error
}

var _ UseCase = &usecase.UseCases{}

// PushHandler receives platform push payloads; dispatch.Dispatcher
// implements it for the push surface.
type PushHandler interface {
	HandlePush(ctx context.Context, data map[string]string) error
}
