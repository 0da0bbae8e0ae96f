package server

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/conneroisu/sitepanel/internal/config"
	"github.com/conneroisu/sitepanel/internal/errors"
	"github.com/conneroisu/sitepanel/internal/logging"
	"golang.org/x/time/rate"
)

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterExpiry          = 10 * time.Minute
)

// RateLimiter keeps one token bucket per client for mutating requests.
type RateLimiter struct {
	buckets  map[string]*clientBucket
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	logger   logging.Logger
	stop     chan struct{}
	stopOnce sync.Once
}

type clientBucket struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewRateLimiter creates a limiter from the server's rate limit settings and
// starts the goroutine that forgets idle clients.
func NewRateLimiter(cfg config.RateLimitConfig, logger logging.Logger) *RateLimiter {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	rl := &RateLimiter{
		buckets: make(map[string]*clientBucket),
		limit:   rate.Limit(cfg.RequestsPerSecond),
		burst:   cfg.Burst,
		logger:  logger,
		stop:    make(chan struct{}),
	}
	go rl.cleanupLoop()

	return rl
}

// Allow reports whether a request from key may proceed now.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	b, ok := rl.buckets[key]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastAccess = time.Now()
	rl.mu.Unlock()

	return b.limiter.Allow()
}

// Clients returns the number of tracked clients.
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// Stop ends the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			rl.cleanup(now)
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, b := range rl.buckets {
		if now.Sub(b.lastAccess) > limiterExpiry {
			delete(rl.buckets, key)
		}
	}
}

// Middleware rejects mutating requests from clients over their limit.
// Safe methods are never limited so the UI stays browsable.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isSafeMethod(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r)
		if !rl.Allow(ip) {
			rl.logger.Warn(r.Context(),
				errors.NewSecurityError(errors.ErrCodeRateLimited, "rate limit exceeded"),
				"Rate limit exceeded",
				"client_ip", ip,
				"path", r.URL.Path,
				"method", r.Method)

			retry := 1
			if rl.limit > 0 {
				retry = max(1, int(1/float64(rl.limit)+0.5))
			}
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retry))
			http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}
