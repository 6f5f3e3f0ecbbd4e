package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"curator/config"
	"curator/internal/logging"
)

// idleEviction is how long an IP may go unseen before its limiter is dropped.
const idleEviction = 10 * time.Minute

// ipLimiterEntry holds a rate limiter and last-seen timestamp for cleanup.
type ipLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter manages per-IP rate limiters.
type IPRateLimiter struct {
	mu         sync.Mutex
	limiters   map[string]*ipLimiterEntry
	rate       rate.Limit
	burst      int
	retryAfter string
	log        zerolog.Logger
}

// NewIPRateLimiter creates a rate limiter that allows r events per second with
// the given burst size. The cleanup loop stops when ctx is done.
func NewIPRateLimiter(ctx context.Context, r rate.Limit, burst int) *IPRateLimiter {
	rl := &IPRateLimiter{
		limiters:   make(map[string]*ipLimiterEntry),
		rate:       r,
		burst:      burst,
		retryAfter: retryAfterSeconds(r),
		log:        logging.WithComponent("ratelimit"),
	}
	go rl.cleanup(ctx)
	return rl
}

// NewIPRateLimiterFromConfig allows cfg.Requests per cfg.Window per client IP,
// refilling evenly across the window. It returns nil when limiting is disabled.
func NewIPRateLimiterFromConfig(ctx context.Context, cfg config.RateLimitConfig) *IPRateLimiter {
	if cfg.Disabled || cfg.Requests <= 0 || cfg.Window <= 0 {
		return nil
	}
	return NewIPRateLimiter(ctx, rate.Every(cfg.Window/time.Duration(cfg.Requests)), cfg.Requests)
}

// retryAfterSeconds is the wait for one token to refill, at least one second.
func retryAfterSeconds(r rate.Limit) string {
	if r <= 0 || r == rate.Inf {
		return "60"
	}
	// truncating to whole nanoseconds absorbs float error before rounding up
	interval := time.Duration(float64(time.Second) / float64(r))
	secs := int((interval + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// getLimiter returns the rate limiter for the given IP, creating one if needed.
func (rl *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.limiters[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[ip] = &ipLimiterEntry{limiter: limiter, lastSeen: time.Now()}
		return limiter
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// cleanup evicts entries not seen in the last idleEviction.
func (rl *IPRateLimiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.evictIdle(time.Now())
		}
	}
}

func (rl *IPRateLimiter) evictIdle(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) > idleEviction {
			delete(rl.limiters, ip)
		}
	}
}

func (rl *IPRateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// getClientIP extracts the client IP, trusting X-Forwarded-For then X-Real-IP.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}

// Middleware applies per-IP limiting. Preflight requests are never limited.
// A nil limiter passes every request through.
func (rl *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	if rl == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		ip := getClientIP(r)
		if !rl.getLimiter(ip).Allow() {
			logging.Ctx(r.Context(), rl.log).Warn().Str("ip", ip).Str("path", r.URL.Path).Msg("rate limit exceeded")
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", rl.retryAfter)
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "too many requests"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
