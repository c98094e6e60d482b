package middleware

import (
	"log/slog"
	"net/http"

	"github.com/Volatile-Viv/Try-Karo/pkg/logger"
)

// RequestLogger stores a request-scoped logger in the context, enriched with
// request_id and the active trace/span ids. Handlers retrieve it with
// logger.FromContext. Mount it after RequestID and Tracing; Auth adds the
// user fields once the caller is known.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
