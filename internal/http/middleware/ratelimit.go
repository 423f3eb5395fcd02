package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/ArnabMallick12/Video-Editor/internal/apperr"
	"github.com/ArnabMallick12/Video-Editor/internal/ratelimit"
	"github.com/ArnabMallick12/Video-Editor/internal/utils/response"
)

type RateLimitConfig struct {
	limiter    *ratelimit.TokenBucket
	trustProxy bool
	logger     *slog.Logger
}

// NewRateLimitConfig limits requests per client IP. With trustProxy the
// first X-Forwarded-For entry is used as the client address.
func NewRateLimitConfig(limiter *ratelimit.TokenBucket, trustProxy bool, logger *slog.Logger) *RateLimitConfig {
	if logger == nil {
		logger = slog.Default()
	}
	return &RateLimitConfig{limiter: limiter, trustProxy: trustProxy, logger: logger}
}

func (rlc *RateLimitConfig) RateLimitMiddleware(next http.Handler) http.Handler {
	limit := strconv.FormatInt(rlc.limiter.Capacity(), 10)
	reset := strconv.FormatInt(int64(rlc.limiter.Window().Seconds()), 10)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := ClientIP(r, rlc.trustProxy)

		decision, err := rlc.limiter.Take(r.Context(), client)
		if err != nil {
			rlc.logger.Error("rate limit check failed", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(
				apperr.KindInternal, "Rate limit check failed"))
			return
		}

		w.Header().Set("X-RateLimit-Limit", limit)
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
		w.Header().Set("X-RateLimit-Reset", reset)

		if !decision.Allowed {
			w.Header().Set("Retry-After", reset)
			response.WriteJSON(w, http.StatusTooManyRequests, response.GeneralError(
				response.KindRateLimited, "Rate limit exceeded"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ClientIP returns the address a request is attributed to.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
