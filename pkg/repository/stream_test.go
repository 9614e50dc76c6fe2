package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/interfaces"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/alert"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/repository"
	"github.com/m-mizutani/gt"
)

func nextRow(t *testing.T, s interfaces.AlertStream) *alert.Alert {
	t.Helper()
	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	row, err := s.Next(ctx)
	gt.NoError(t, err).Required()
	return row
}

func TestSubscribeByReceiver(t *testing.T) {
	testFn := func(t *testing.T, repo interfaces.AlertStore) {
		ctx := t.Context()
		sender := newTestUser("sender")
		receiver := newTestUser("receiver")

		existing := newTestAlert(sender, receiver)
		gt.R1(repo.Insert(ctx, existing)).NoError(t)

		// someone else's alert must not show up
		gt.R1(repo.Insert(ctx, newTestAlert(sender, newTestUser("other")))).NoError(t)

		s, err := repo.SubscribeByReceiver(ctx, receiver)
		gt.NoError(t, err).Required()
		defer s.Close()

		gt.Equal(t, nextRow(t, s).ID, existing.ID)

		fresh := newTestAlert(sender, receiver)
		gt.R1(repo.Insert(ctx, fresh)).NoError(t)
		gt.Equal(t, nextRow(t, s).ID, fresh.ID)

		gt.R1(repo.Update(ctx, fresh.ID, alert.Read(fresh.CreatedAt.Add(time.Second)))).NoError(t)
		row := nextRow(t, s)
		gt.Equal(t, row.ID, fresh.ID)
		gt.NotNil(t, row.ReadAt)
	}

	t.Run("Memory", func(t *testing.T) {
		testFn(t, repository.NewMemory())
	})

	t.Run("Firestore", func(t *testing.T) {
		testFn(t, newFirestoreClient(t))
	})
}

func TestSubscribeBySender(t *testing.T) {
	testFn := func(t *testing.T, repo interfaces.AlertStore) {
		ctx := t.Context()
		sender := newTestUser("sender")
		a := newTestAlert(sender, newTestUser("receiver"))
		gt.R1(repo.Insert(ctx, a)).NoError(t)

		s, err := repo.SubscribeBySender(ctx, sender)
		gt.NoError(t, err).Required()
		defer s.Close()

		gt.Nil(t, nextRow(t, s).Response)

		gt.R1(repo.Update(ctx, a.ID, alert.Responded(types.ResponseFiveMinutes, "", a.CreatedAt.Add(time.Minute)))).NoError(t)
		row := nextRow(t, s)
		gt.NotNil(t, row.Response)
		gt.Equal(t, *row.Response, types.ResponseFiveMinutes)
	}

	t.Run("Memory", func(t *testing.T) {
		testFn(t, repository.NewMemory())
	})

	t.Run("Firestore", func(t *testing.T) {
		testFn(t, newFirestoreClient(t))
	})
}

func TestStreamStopsOnCancel(t *testing.T) {
	testFn := func(t *testing.T, repo interfaces.AlertStore) {
		ctx, cancel := context.WithCancel(t.Context())
		s, err := repo.SubscribeByReceiver(ctx, newTestUser("receiver"))
		gt.NoError(t, err).Required()
		defer s.Close()

		cancel()
		_, err = s.Next(ctx)
		gt.Error(t, err)
	}

	t.Run("Memory", func(t *testing.T) {
		testFn(t, repository.NewMemory())
	})

	t.Run("Firestore", func(t *testing.T) {
		testFn(t, newFirestoreClient(t))
	})
}
