package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/sydlexius/tastegraph/internal/logging"
)

// Recover returns middleware that turns a handler panic into a 500 JSON
// response. The panic value is echoed to the client only when expose is
// true (development mode).
func Recover(logger *slog.Logger, expose bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logging.FromContext(r.Context(), logger).Error("handler panicked",
					slog.Any("panic", rec),
					slog.String("path", r.URL.Path),
					slog.String("stack", string(debug.Stack())))

				message := "Internal server error"
				if expose {
					message = fmt.Sprint(rec)
				}
				writeError(w, http.StatusInternalServerError, "internal_error", message)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
