package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/hrplus/talent-hub/internal/observability"
)

const requestIDHeader = "X-Request-ID"

// RequestID runs first in the chain so every log line and error response can
// be correlated back to one request. A client-supplied X-Request-ID is kept
// only if it parses as a UUID; anything else is replaced with a fresh one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.Must(uuid.NewV7()).String()
		}

		ctx := context.WithValue(r.Context(), observability.RequestIDKey, id)
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
