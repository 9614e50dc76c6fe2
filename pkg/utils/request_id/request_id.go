package request_id

import (
	"context"

	"github.com/google/uuid"
)

type contextKey struct{}

// Header is echoed back on every HTTP response.
const Header = "X-Request-ID"

func With(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKey{}, requestID)
}

func FromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(contextKey{}).(string); ok {
		return requestID
	}
	return ""
}

// Ensure keeps a caller supplied id and generates one otherwise.
func Ensure(ctx context.Context, supplied string) (context.Context, string) {
	if supplied == "" {
		supplied = uuid.New().String()
	}
	return With(ctx, supplied), supplied
}
