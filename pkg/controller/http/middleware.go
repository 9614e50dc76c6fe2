package http

import (
	"fmt"
	"net/http"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/model/errs"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/domain/types"
	"github.com/Deze-Tingz/yuh-blockin-sub001/pkg/utils/user"
	"github.com/m-mizutani/goerr/v2"
)

// withUser copies the caller's account id from the request header into the
// context. Authentication happens in front of this service.
func withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(user.Header))
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(user.WithUserID(r.Context(), types.UserID(id))))
	})
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user.FromContext(r.Context()) == types.EmptyUserID {
			writeError(w, http.StatusUnauthorized, "unauthorized",
				goerr.New("missing "+user.Header+" header"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// detailedStackTrace returns the stack with function names and line numbers.
func detailedStackTrace() string {
	var buf strings.Builder
	buf.WriteString("Detailed Stack Trace:\n")

	callers := make([]uintptr, 64)
	n := runtime.Callers(3, callers)
	frames := runtime.CallersFrames(callers[:n])
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&buf, "  %s\n    %s:%d\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return buf.String()
}

func panicRecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				panicErr := goerr.New("panic recovered",
					goerr.T(errs.TagInternal),
					goerr.V("panic", fmt.Sprintf("%v", rec)),
					goerr.V("debug_stack", string(debug.Stack())),
					goerr.V("detailed_stack", detailedStackTrace()),
					goerr.V("method", r.Method),
					goerr.V("path", r.URL.Path),
				)
				handleError(w, r, panicErr)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
