package repository_test

import (
	"testing"
	"time"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/interfaces"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/alert"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/errs"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/repository"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

func TestInsertAndGetAlert(t *testing.T) {
	testFn := func(t *testing.T, repo interfaces.AlertStore) {
		ctx := t.Context()
		a := newTestAlert(newTestUser("sender"), newTestUser("receiver"))

		id, err := repo.Insert(ctx, a)
		gt.NoError(t, err).Required()
		gt.Equal(t, id, a.ID)

		got, err := repo.GetAlert(ctx, a.ID)
		gt.NoError(t, err).Required()
		gt.Equal(t, got.ID, a.ID)
		gt.Equal(t, got.SenderID, a.SenderID)
		gt.Equal(t, got.ReceiverID, a.ReceiverID)
		gt.Equal(t, got.Urgency, a.Urgency)
		gt.Equal(t, got.Message, a.Message)
		gt.True(t, got.CreatedAt.Equal(a.CreatedAt))
		gt.Nil(t, got.DeliveredAt)

		// same id twice is rejected
		_, err = repo.Insert(ctx, a)
		gt.Error(t, err)

		_, err = repo.GetAlert(ctx, types.NewAlertID())
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, errs.TagNotFound))
	}

	t.Run("Memory", func(t *testing.T) {
		testFn(t, repository.NewMemory())
	})

	t.Run("Firestore", func(t *testing.T) {
		testFn(t, newFirestoreClient(t))
	})
}

func TestUpdateIsForwardOnly(t *testing.T) {
	testFn := func(t *testing.T, repo interfaces.AlertStore) {
		ctx := t.Context()
		a := newTestAlert(newTestUser("sender"), newTestUser("receiver"))
		gt.R1(repo.Insert(ctx, a)).NoError(t)

		delivered := a.CreatedAt.Add(time.Second)
		got, err := repo.Update(ctx, a.ID, alert.Delivered(delivered))
		gt.NoError(t, err).Required()
		gt.True(t, got.DeliveredAt.Equal(delivered))

		// a second surface reporting delivery later does not move the timestamp
		got, err = repo.Update(ctx, a.ID, alert.Delivered(delivered.Add(time.Second)))
		gt.NoError(t, err).Required()
		gt.True(t, got.DeliveredAt.Equal(delivered))

		respondedAt := delivered.Add(time.Minute)
		got, err = repo.Update(ctx, a.ID, alert.Responded(types.ResponseMovingNow, "on my way", respondedAt))
		gt.NoError(t, err).Required()
		gt.Equal(t, *got.Response, types.ResponseMovingNow)
		gt.Equal(t, got.ResponseMessage, "on my way")

		got, err = repo.Update(ctx, a.ID, alert.Responded(types.ResponseCantMove, "", respondedAt.Add(time.Minute)))
		gt.NoError(t, err).Required()
		gt.Equal(t, *got.Response, types.ResponseMovingNow)
		gt.True(t, got.ResponseAt.Equal(respondedAt))

		stored, err := repo.GetAlert(ctx, a.ID)
		gt.NoError(t, err).Required()
		gt.Equal(t, *stored.Response, types.ResponseMovingNow)
		gt.True(t, stored.DeliveredAt.Equal(delivered))
	}

	t.Run("Memory", func(t *testing.T) {
		testFn(t, repository.NewMemory())
	})

	t.Run("Firestore", func(t *testing.T) {
		testFn(t, newFirestoreClient(t))
	})
}

func TestUpdateUnknownAlert(t *testing.T) {
	testFn := func(t *testing.T, repo interfaces.AlertStore) {
		_, err := repo.Update(t.Context(), types.NewAlertID(), alert.Read(time.Now()))
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, errs.TagNotFound))
	}

	t.Run("Memory", func(t *testing.T) {
		testFn(t, repository.NewMemory())
	})

	t.Run("Firestore", func(t *testing.T) {
		testFn(t, newFirestoreClient(t))
	})
}
