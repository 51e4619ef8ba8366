package middleware

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/account-hub/pkg/logger"
	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"
)

// RequestID propagates X-Trace-ID (generating one when absent) and attaches
// a request-scoped logger, derived from base, carrying it.
func RequestID(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get("X-Trace-ID")
			if traceID == "" {
				traceID = middleware.GetReqID(r.Context())
			}
			if traceID == "" {
				traceID = uuid.NewString()
			}

			ctx := logger.Attach(r.Context(), base.With("trace_id", traceID))
			w.Header().Set("X-Trace-ID", traceID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
