// Package user carries the caller's account id through a request context.
package user

import (
	"context"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
)

type contextKey struct{}

// Header is where HTTP callers put their account id.
const Header = "X-Yuh-User"

func WithUserID(ctx context.Context, id types.UserID) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns EmptyUserID for anonymous requests.
func FromContext(ctx context.Context) types.UserID {
	if id, ok := ctx.Value(contextKey{}).(types.UserID); ok {
		return id
	}
	return types.EmptyUserID
}
