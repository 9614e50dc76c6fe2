package errs

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/logging"
	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
)

// sentryTagKeys are goerr values promoted to Sentry tags so events can be
// grouped per alert and per delivery surface.
var sentryTagKeys = []string{"alert_id", "surface"}

// Handle logs err and reports it to Sentry. It is the sink for every passive
// delivery failure and must not panic.
func Handle(ctx context.Context, err error) {
	if err == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "[CRITICAL] error handler panicked: error=%s panic=%v\n", err.Error(), r)
		}
	}()

	values := goerr.Values(err)
	level := sentry.LevelError
	if goerr.HasTag(err, TagPresentation) {
		level = sentry.LevelWarning
	}

	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetLevel(level)
		for k, v := range values {
			scope.SetExtra(k, v)
		}
		for _, k := range sentryTagKeys {
			if v, ok := values[k]; ok {
				scope.SetTag(k, fmt.Sprint(v))
			}
		}
	})

	attrs := []any{logging.ErrAttr(err)}
	if evID := hub.CaptureException(err); evID != nil {
		attrs = append(attrs, slog.Any("sentry.id", evID))
	}

	logger := logging.From(ctx)
	if level == sentry.LevelWarning {
		logger.Warn("delivery failed: "+err.Error(), attrs...)
		return
	}
	logger.Error("error: "+err.Error(), attrs...)
}
