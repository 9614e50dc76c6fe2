package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/errs"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/clock"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/errutil"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type plateDoc struct {
	Owners    []string  `firestore:"owners"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

func (r *Firestore) RegisterPlate(ctx context.Context, plate types.PlateHash, owner types.UserID) error {
	doc := r.db.Collection(collectionPlates).Doc(plate.String())
	_, err := doc.Set(ctx, map[string]any{
		fieldOwners:    firestore.ArrayUnion(owner.String()),
		fieldUpdatedAt: clock.Now(ctx),
	}, firestore.MergeAll)
	if err != nil {
		return r.eb.Wrap(err, "failed to register plate",
			transportTag(err),
			goerr.TV(errutil.PlateHashKey, plate),
			goerr.TV(errutil.UserIDKey, owner))
	}
	return nil
}

// ResolveRecipient returns no identities and no error for an unknown plate.
func (r *Firestore) ResolveRecipient(ctx context.Context, plate types.PlateHash) ([]types.UserID, error) {
	snap, err := r.db.Collection(collectionPlates).Doc(plate.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, r.eb.Wrap(err, "failed to resolve recipient",
			transportTag(err),
			goerr.TV(errutil.PlateHashKey, plate))
	}

	var p plateDoc
	if err := snap.DataTo(&p); err != nil {
		return nil, r.eb.Wrap(err, "failed to convert data to plate",
			goerr.T(errs.TagInternal),
			goerr.TV(errutil.PlateHashKey, plate))
	}

	users := make([]types.UserID, 0, len(p.Owners))
	for _, o := range p.Owners {
		users = append(users, types.UserID(o))
	}
	return users, nil
}

func (r *Firestore) tokens(user types.UserID) *firestore.CollectionRef {
	return r.db.Collection(collectionUsers).Doc(user.String()).Collection(subcollectionTokens)
}

func (r *Firestore) PutDeviceToken(ctx context.Context, user types.UserID, token string) error {
	_, err := r.tokens(user).Doc(token).Set(ctx, map[string]any{
		fieldToken:     token,
		fieldUpdatedAt: clock.Now(ctx),
	})
	if err != nil {
		return r.eb.Wrap(err, "failed to put device token",
			transportTag(err),
			goerr.TV(errutil.UserIDKey, user))
	}
	return nil
}

func (r *Firestore) GetDeviceTokens(ctx context.Context, user types.UserID) ([]string, error) {
	iter := r.tokens(user).Documents(ctx)
	defer iter.Stop()

	var tokens []string
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, r.eb.Wrap(err, "failed to get device tokens",
				transportTag(err),
				goerr.TV(errutil.UserIDKey, user))
		}
		tokens = append(tokens, doc.Ref.ID)
	}
	return tokens, nil
}

func (r *Firestore) DeleteDeviceToken(ctx context.Context, user types.UserID, token string) error {
	if _, err := r.tokens(user).Doc(token).Delete(ctx); err != nil {
		return r.eb.Wrap(err, "failed to delete device token",
			transportTag(err),
			goerr.TV(errutil.UserIDKey, user))
	}
	return nil
}
