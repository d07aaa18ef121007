package middleware

import (
	"net/http"

	"golang.org/x/time/rate"

	"github.com/hrplus/talent-hub/internal/api/response"
)

// RateLimit applies a process-wide token bucket to the function endpoints.
// Detection runs are CPU- and database-bound, so the service sheds load early
// rather than queueing requests.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				response.RespondTooManyRequests(w, "rate limit exceeded, retry later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
