package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"platformo/internal/httputil"
)

// Recovery turns a handler panic into a 500 problem response.
//
// http.ErrAbortHandler is re-raised so net/http aborts the response quietly.
// Upgrade requests (the workspace websocket) get no body: once hijacked the
// ResponseWriter can no longer be written to.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				logger.Error("panic recovered",
					"error", rec,
					"path", r.URL.Path,
					"method", r.Method,
					"upgrade", r.Header.Get("Upgrade"),
					"stack", string(debug.Stack()),
				)

				if r.Header.Get("Upgrade") != "" {
					return
				}
				httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
