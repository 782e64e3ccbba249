package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"rotavault/internal/httputil"
)

// Recovery converts handler panics into 500 responses. If the panic hit
// mid-stream (a zip export already writing its body) the error write is a
// no-op and the client sees a truncated response; the stack still gets
// logged either way.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						"error", rec,
						"path", r.URL.Path,
						"method", r.Method,
						"stack", string(debug.Stack()),
					)

					httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
