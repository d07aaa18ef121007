package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrplus/talent-hub/internal/observability"
)

func TestRequestID(t *testing.T) {
	var seen string

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(observability.RequestIDKey).(string)
		w.WriteHeader(http.StatusOK)
	})

	t.Run("propagates a valid client ID", func(t *testing.T) {
		id := uuid.Must(uuid.NewV7()).String()
		req := httptest.NewRequest(http.MethodPost, "http://test/v1/functions/bias-detector", http.NoBody)
		req.Header.Set("X-Request-ID", id)
		rec := httptest.NewRecorder()

		RequestID(next).ServeHTTP(rec, req)

		assert.Equal(t, id, rec.Header().Get("X-Request-ID"))
		assert.Equal(t, id, seen)
	})

	t.Run("replaces a malformed client ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "http://test/v1/functions/bias-detector", http.NoBody)
		req.Header.Set("X-Request-ID", "not-a-uuid")
		rec := httptest.NewRecorder()

		RequestID(next).ServeHTTP(rec, req)

		got := rec.Header().Get("X-Request-ID")
		require.NotEqual(t, "not-a-uuid", got)
		_, err := uuid.Parse(got)
		assert.NoError(t, err)
		assert.Equal(t, got, seen)
	})

	t.Run("generates when absent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "http://test/v1/functions/bias-detector", http.NoBody)
		rec := httptest.NewRecorder()

		RequestID(next).ServeHTTP(rec, req)

		_, err := uuid.Parse(rec.Header().Get("X-Request-ID"))
		assert.NoError(t, err)
	})
}
