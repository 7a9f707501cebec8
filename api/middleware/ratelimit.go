package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MonkyMars/gecho"
)

// getRateLimitForEndpoint determines which rate limit to apply based on config
func (mw *Middleware) getRateLimitForEndpoint(path, method string) (int, time.Duration) {
	// Auth endpoints - strictest limits
	if strings.HasPrefix(path, "/auth/callback") || strings.HasPrefix(path, "/auth/csrf") {
		return mw.cfg.RateLimit.AuthLimit, mw.cfg.RateLimit.AuthWindow
	}

	if strings.HasPrefix(path, "/admin") {
		return mw.cfg.RateLimit.AdminLimit, mw.cfg.RateLimit.AdminWindow
	}

	// Catalog reads with filters hit several tables
	if method == http.MethodGet && strings.HasPrefix(path, "/api/products") {
		return mw.cfg.RateLimit.ExpensiveLimit, mw.cfg.RateLimit.ExpensiveWindow
	}

	return mw.cfg.RateLimit.GeneralLimit, mw.cfg.RateLimit.GeneralWindow
}

// getClientIP extracts the real client IP from request headers
func (mw *Middleware) getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// X-Forwarded-For can contain multiple IPs, take the first one
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}

	return ip
}

// generateRateLimitKey groups dynamic routes so ids do not explode the key space.
func (mw *Middleware) generateRateLimitKey(ip, endpoint string) string {
	normalized := strings.TrimSuffix(endpoint, "/")

	for _, prefix := range []string{"/api/products/", "/api/cart/items/", "/api/orders/", "/admin/products/", "/admin/suppliers/", "/admin/categories/", "/admin/orders/", "/admin/users/"} {
		if strings.HasPrefix(normalized, prefix) && len(normalized) > len(prefix) && !strings.Contains(normalized[len(prefix):], "/") {
			normalized = prefix + ":id"
			break
		}
	}

	return fmt.Sprintf("ratelimit:%s:%s", ip, normalized)
}

func writeRateLimited(w http.ResponseWriter, limit int, window time.Duration) {
	w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(window).Unix()))
	w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))

	gecho.TooManyRequests(w,
		gecho.WithMessage("Rate limit exceeded. Please try again later."),
		gecho.WithData(map[string]any{
			"limit":       limit,
			"window":      window.String(),
			"retry_after": int(window.Seconds()),
		}),
		gecho.Send(),
	)
}

// RateLimitMiddleware implements fixed window rate limiting. Cache errors fail open.
func (mw *Middleware) RateLimitMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !mw.cfg.RateLimit.Enabled || mw.limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			// Skip rate limiting for health checks and metrics
			if r.URL.Path == "/" || strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			clientIP := mw.getClientIP(r)
			limit, window := mw.getRateLimitForEndpoint(r.URL.Path, r.Method)
			key := mw.generateRateLimitKey(clientIP, r.URL.Path)

			count, err := mw.limiter.Increment(r.Context(), key, window)
			if err != nil {
				mw.logger.Warn("Rate limit cache error, allowing request",
					gecho.Field("error", err),
					gecho.Field("ip", clientIP),
					gecho.Field("endpoint", r.URL.Path),
				)
				next.ServeHTTP(w, r)
				return
			}

			if count > limit {
				mw.logger.Warn("Rate limit exceeded",
					gecho.Field("ip", clientIP),
					gecho.Field("endpoint", r.URL.Path),
					gecho.Field("count", count),
					gecho.Field("limit", limit),
				)
				writeRateLimited(w, limit, window)
				return
			}

			remaining := max(0, limit-count)
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(window).Unix()))

			next.ServeHTTP(w, r)
		})
	}
}

// StrictRateLimitMiddleware fails closed on cache errors.
// Use this for critical endpoints where you prefer to block on cache failure
func (mw *Middleware) StrictRateLimitMiddleware(limit int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !mw.cfg.RateLimit.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			clientIP := mw.getClientIP(r)
			key := mw.generateRateLimitKey(clientIP, "strict:"+r.URL.Path)

			if mw.limiter == nil {
				gecho.ServiceUnavailable(w, gecho.WithMessage("Service temporarily unavailable"), gecho.Send())
				return
			}

			count, err := mw.limiter.Increment(r.Context(), key, window)
			if err != nil {
				mw.logger.Error("Rate limit cache error, blocking request",
					gecho.Field("error", err),
					gecho.Field("ip", clientIP),
					gecho.Field("endpoint", r.URL.Path),
				)

				gecho.ServiceUnavailable(w,
					gecho.WithMessage("Service temporarily unavailable"),
					gecho.Send(),
				)
				return
			}

			if count > limit {
				mw.logger.Warn("Strict rate limit exceeded",
					gecho.Field("ip", clientIP),
					gecho.Field("endpoint", r.URL.Path),
					gecho.Field("count", count),
					gecho.Field("limit", limit),
				)
				writeRateLimited(w, limit, window)
				return
			}

			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", limit-count))

			next.ServeHTTP(w, r)
		})
	}
}

// CheckoutRateLimit is the strict limiter configured for order placement.
func (mw *Middleware) CheckoutRateLimit() func(http.Handler) http.Handler {
	return mw.StrictRateLimitMiddleware(mw.cfg.RateLimit.CheckoutLimit, mw.cfg.RateLimit.CheckoutWindow)
}
