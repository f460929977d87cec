package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/yusufsyaifudin/ngendika/internal/logic/apierr"
	"github.com/yusufsyaifudin/ngendika/internal/logic/ratelimit"
	"github.com/yusufsyaifudin/ngendika/pkg/httpresp"
)

type RateLimitConfig struct {
	Limiter *ratelimit.Limiter
	// KeyFunc defaults to the client IP when nil.
	KeyFunc func(r *http.Request) string
	// Skip exempts paths such as /health from rate limiting.
	Skip func(r *http.Request) bool
}

// RateLimit implements §4.F.4: a fixed-window counter per key, with
// X-RateLimit-* headers on success and 429 + Retry-After on overflow.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = func(r *http.Request) string { return clientIP(r, false) }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			result := cfg.Limiter.Allow(keyFunc(r), time.Now())

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

			if !result.Allowed {
				retryAfter := int(time.Until(result.ResetAt).Seconds())
				if retryAfter < 0 {
					retryAfter = 0
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				httpresp.WriteError(w, apierr.TooManyRequests(fmt.Sprintf("rate limit exceeded, retry after %ds", retryAfter)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
