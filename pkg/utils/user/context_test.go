package user_test

import (
	"context"
	"testing"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/user"
	"github.com/m-mizutani/gt"
)

func TestUserID(t *testing.T) {
	ctx := context.Background()
	gt.Equal(t, user.FromContext(ctx), types.EmptyUserID)

	ctx = user.WithUserID(ctx, "alice")
	gt.Equal(t, user.FromContext(ctx), types.UserID("alice"))
}
