package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/interfaces"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/alert"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/errs"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/errutil"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (r *Firestore) Insert(ctx context.Context, a alert.Alert) (types.AlertID, error) {
	if err := a.Validate(); err != nil {
		return types.EmptyAlertID, err
	}

	doc := r.db.Collection(collectionAlerts).Doc(a.ID.String())
	if _, err := doc.Create(ctx, a); err != nil {
		return types.EmptyAlertID, r.eb.Wrap(err, "failed to insert alert",
			transportTag(err),
			goerr.TV(errutil.AlertIDKey, a.ID),
			goerr.TV(errutil.CollectionKey, collectionAlerts))
	}
	return a.ID, nil
}

// Update applies fields inside a transaction so concurrent writers from
// different surfaces never overwrite a timestamp that is already set.
func (r *Firestore) Update(ctx context.Context, id types.AlertID, fields alert.Fields) (*alert.Alert, error) {
	doc := r.db.Collection(collectionAlerts).Doc(id.String())

	var updated alert.Alert
	err := r.db.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(doc)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.New("alert not found", goerr.T(errs.TagNotFound))
			}
			return goerr.Wrap(err, "failed to get alert in transaction", transportTag(err))
		}

		var current alert.Alert
		if err := snap.DataTo(&current); err != nil {
			return goerr.Wrap(err, "failed to convert data to alert", goerr.T(errs.TagInternal))
		}

		applied, err := current.Apply(fields)
		if err != nil {
			return err
		}
		updated = current
		if applied.IsEmpty() {
			return nil
		}

		if err := tx.Update(doc, fieldUpdates(applied)); err != nil {
			return goerr.Wrap(err, "failed to update alert in transaction", transportTag(err))
		}
		return nil
	})
	if err != nil {
		return nil, r.eb.Wrap(err, "failed to update alert",
			goerr.TV(errutil.AlertIDKey, id),
			goerr.TV(errutil.CollectionKey, collectionAlerts))
	}

	return &updated, nil
}

func (r *Firestore) GetAlert(ctx context.Context, id types.AlertID) (*alert.Alert, error) {
	snap, err := r.db.Collection(collectionAlerts).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, r.eb.New("alert not found",
				goerr.T(errs.TagNotFound),
				goerr.TV(errutil.AlertIDKey, id))
		}
		return nil, r.eb.Wrap(err, "failed to get alert",
			transportTag(err),
			goerr.TV(errutil.AlertIDKey, id))
	}

	var a alert.Alert
	if err := snap.DataTo(&a); err != nil {
		return nil, r.eb.Wrap(err, "failed to convert data to alert",
			goerr.T(errs.TagInternal),
			goerr.TV(errutil.AlertIDKey, id))
	}
	return &a, nil
}

func (r *Firestore) SubscribeByReceiver(ctx context.Context, receiver types.UserID) (interfaces.AlertStream, error) {
	q := r.db.Collection(collectionAlerts).Where(fieldReceiverID, "==", receiver.String())
	return newStream(ctx, q, r.eb.With(goerr.TV(errutil.ReceiverIDKey, receiver))), nil
}

func (r *Firestore) SubscribeBySender(ctx context.Context, sender types.UserID) (interfaces.AlertStream, error) {
	q := r.db.Collection(collectionAlerts).Where(fieldSenderID, "==", sender.String())
	return newStream(ctx, q, r.eb.With(goerr.TV(errutil.SenderIDKey, sender))), nil
}

// fieldUpdates lists only the fields that were actually applied.
func fieldUpdates(f alert.Fields) []firestore.Update {
	var updates []firestore.Update
	if f.DeliveredAt != nil {
		updates = append(updates, firestore.Update{Path: "delivered_at", Value: *f.DeliveredAt})
	}
	if f.ReadAt != nil {
		updates = append(updates, firestore.Update{Path: "read_at", Value: *f.ReadAt})
	}
	if f.ResponseAt != nil {
		updates = append(updates, firestore.Update{Path: "response_at", Value: *f.ResponseAt})
	}
	if f.Response != nil {
		updates = append(updates, firestore.Update{Path: "response", Value: f.Response.String()})
	}
	if f.ResponseMessage != nil {
		updates = append(updates, firestore.Update{Path: "response_message", Value: *f.ResponseMessage})
	}
	return updates
}
