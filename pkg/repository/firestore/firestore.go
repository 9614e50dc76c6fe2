package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/interfaces"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/errs"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/errutil"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Firestore struct {
	db *firestore.Client
	eb *goerr.Builder
}

var _ interfaces.Repository = &Firestore{}

func New(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	db, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client", goerr.T(errs.TagTransport))
	}

	return &Firestore{
		db: db,
		eb: goerr.NewBuilder(
			goerr.TV(errutil.RepositoryKey, "firestore"),
			goerr.V("project_id", projectID),
			goerr.V("database_id", databaseID),
		),
	}, nil
}

func (r *Firestore) Close() error {
	return r.db.Close()
}

const (
	collectionAlerts    = "alerts"
	collectionPlates    = "plates"
	collectionUsers     = "users"
	subcollectionTokens = "device_tokens"

	fieldReceiverID = "receiver_id"
	fieldSenderID   = "sender_id"
	fieldOwners     = "owners"
	fieldToken      = "token"
	fieldUpdatedAt  = "updated_at"
)

// transportTag marks an error as a remote store failure unless the store
// answered with a definite application-level status.
func transportTag(err error) goerr.Option {
	switch status.Code(err) {
	case codes.NotFound:
		return goerr.T(errs.TagNotFound)
	case codes.AlreadyExists, codes.FailedPrecondition:
		return goerr.T(errs.TagInvalidState)
	case codes.InvalidArgument:
		return goerr.T(errs.TagValidation)
	default:
		return goerr.T(errs.TagTransport)
	}
}
