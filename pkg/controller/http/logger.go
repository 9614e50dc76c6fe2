package http

import (
	"bufio"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/clock"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/logging"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/request_id"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/user"
	"github.com/m-mizutani/goerr/v2"
)

type statusResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working behind the logger.
func (w *statusResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack is required by the websocket upgrade on /ws/events.
func (w *statusResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, goerr.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (w *statusResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, reqID := request_id.Ensure(r.Context(), r.Header.Get(request_id.Header))
		logger := logging.From(ctx).With("request_id", reqID)
		w.Header().Set(request_id.Header, reqID)

		started := clock.Now(ctx)
		sw := &statusResponseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r.WithContext(logging.With(ctx, logger)))

		logger.Info("Access Log",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("query", r.URL.Query()),
			slog.String("user", user.FromContext(r.Context()).String()),
			slog.Int("status", sw.status),
			slog.Duration("elapsed", time.Since(started)),
		)
	})
}
