package middleware

import (
	"net/http"

	"github.com/elias-vance/lexishard/pkg/logger"
	"github.com/google/uuid"
)

// RequestID assigns a request id (from the X-Request-ID header if present,
// otherwise a generated uuid) to the request context so downstream
// handlers and logger.FromContext can attach it to log lines.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := logger.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
