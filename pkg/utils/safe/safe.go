package safe

import (
	"context"
	"io"
	"log/slog"
	"runtime/debug"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

func Close(ctx context.Context, closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Error("Failed to close", slog.Any("error", err))
	}
}

func Write(ctx context.Context, w io.Writer, data []byte) {
	if w == nil {
		return
	}
	if _, err := w.Write(data); err != nil {
		logging.From(ctx).Error("Failed to write", slog.Any("error", err))
	}
}

// Run calls fn and converts a panic into an error carrying the stack.
func Run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = goerr.New("panic recovered",
				goerr.V("recover", r),
				goerr.V("stack", string(debug.Stack())))
		}
	}()
	return fn()
}
