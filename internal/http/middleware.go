package http

import (
	"net/http"

	"github.com/twitsprout/tools"
	httputils "github.com/twitsprout/tools/http"
	"github.com/twitsprout/tools/requestid"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware makes requests wait for a token from a limiter refilled
// at perSecond. Requests whose context ends while waiting get a 429.
func RateLimitMiddleware(perSecond float64, logger tools.Logger) func(http.Handler) http.Handler {
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := limiter.Wait(r.Context()); err != nil {
				logger.Warn("rate limit exceeded",
					"request_id", requestid.Get(r.Context()),
					"details", err.Error(),
				)
				_ = httputils.WriteJSONError(w, r.URL.Query(), "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
