package auth

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterIdleTimeout     = 30 * time.Minute
)

// RateLimiter allows each client a fixed number of requests per window. The
// budget refills continuously, one request every window/requests.
type RateLimiter struct {
	name     string
	requests int
	window   time.Duration
	logger   *zap.Logger
	now      func() time.Time

	limiters sync.Map // client id -> *limiterEntry

	// OnLimit, when set, is called for every rejected request.
	OnLimit func(name string)
}

type limiterEntry struct {
	limiter    *rate.Limiter
	mu         sync.Mutex
	lastAccess time.Time
}

// NewRateLimiter returns a limiter named for logging. Idle clients are
// forgotten periodically until ctx is done. A non-positive requests or window
// disables limiting.
func NewRateLimiter(ctx context.Context, name string, requests int, window time.Duration, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	rl := &RateLimiter{
		name:     name,
		requests: requests,
		window:   window,
		logger:   logger,
		now:      time.Now,
	}
	if rl.enabled() {
		go rl.cleanup(ctx)
	}
	return rl
}

func (rl *RateLimiter) enabled() bool {
	return rl.requests > 0 && rl.window > 0
}

func (rl *RateLimiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.evictIdle(rl.now())
		}
	}
}

func (rl *RateLimiter) evictIdle(now time.Time) {
	rl.limiters.Range(func(key, value interface{}) bool {
		entry := value.(*limiterEntry)
		entry.mu.Lock()
		idle := now.Sub(entry.lastAccess) > limiterIdleTimeout
		entry.mu.Unlock()
		if idle {
			rl.limiters.Delete(key)
		}
		return true
	})
}

func (rl *RateLimiter) entry(client string) *limiterEntry {
	if val, ok := rl.limiters.Load(client); ok {
		return val.(*limiterEntry)
	}
	every := rl.window / time.Duration(rl.requests)
	entry := &limiterEntry{limiter: rate.NewLimiter(rate.Every(every), rl.requests)}
	actual, _ := rl.limiters.LoadOrStore(client, entry)
	return actual.(*limiterEntry)
}

// Allow consumes one request for client. When the budget is exhausted it
// returns false and how long until the next request would be admitted.
func (rl *RateLimiter) Allow(client string) (bool, time.Duration) {
	if !rl.enabled() {
		return true, 0
	}
	now := rl.now()
	entry := rl.entry(client)
	entry.mu.Lock()
	entry.lastAccess = now
	entry.mu.Unlock()

	reservation := entry.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, rl.window
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Middleware rejects requests over the limit with 429 and a Retry-After
// header in whole seconds.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := ClientID(r)
		ok, wait := rl.Allow(client)
		if !ok {
			retryAfter := int(math.Ceil(wait.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			rl.logger.Warn("rate limit exceeded",
				zap.String("op", "auth.RateLimiter"),
				zap.String("limiter", rl.name),
				zap.String("client_id", client),
				zap.String("path", r.URL.Path),
				zap.Int("retry_after", retryAfter),
			)
			if rl.OnLimit != nil {
				rl.OnLimit(rl.name)
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeError(w, http.StatusTooManyRequests, "too many requests, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientID identifies the caller by the first X-Forwarded-For address, falling
// back to the connection's remote host.
func ClientID(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return "ip:" + first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		host = "unknown"
	}
	return "ip:" + host
}
