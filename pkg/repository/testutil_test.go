package repository_test

import (
	"testing"
	"time"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/alert"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/repository"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/test"
	"github.com/google/uuid"
	"github.com/m-mizutani/gt"
)

func newFirestoreClient(t *testing.T) *repository.Firestore {
	vars := test.NewEnvVars(t, "TEST_FIRESTORE_PROJECT_ID", "TEST_FIRESTORE_DATABASE_ID")
	client, err := repository.NewFirestore(t.Context(),
		vars.Get("TEST_FIRESTORE_PROJECT_ID"),
		vars.Get("TEST_FIRESTORE_DATABASE_ID"),
	)
	gt.NoError(t, err).Required()
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// newTestUser returns a user id unique to the test run so Firestore tests do
// not see each other's rows.
func newTestUser(prefix string) types.UserID {
	return types.UserID(prefix + "-" + uuid.NewString())
}

func newTestAlert(sender, receiver types.UserID) alert.Alert {
	return alert.New(sender, receiver,
		types.HashPlate("TEST "+uuid.NewString()[:8]),
		types.UrgencyHigh,
		"blocking the driveway",
		time.Now().Truncate(time.Millisecond))
}
