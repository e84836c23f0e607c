package server

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// StartRateLimiter is a token bucket per client IP for the start route. A
// limiter built with perMinute <= 0 lets everything through.
type StartRateLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu      sync.Mutex
	clients map[string]*clientLimiter
}

func NewStartRateLimiter(perMinute int) *StartRateLimiter {
	return &StartRateLimiter{
		limit:   rate.Limit(float64(perMinute) / 60.0),
		burst:   perMinute,
		now:     time.Now,
		clients: make(map[string]*clientLimiter),
	}
}

func (l *StartRateLimiter) enabled() bool {
	return l.burst > 0
}

// Allow reports whether ip may start another login now.
func (l *StartRateLimiter) Allow(ip string) bool {
	if !l.enabled() {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cl, ok := l.clients[ip]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = cl
	}
	cl.lastAccess = now
	return cl.limiter.AllowN(now, 1)
}

func (l *StartRateLimiter) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !l.Allow(ip) {
			log.Warn().Str("client_ip", ip).Msg("login start rate limit exceeded")
			w.Header().Set("Retry-After", strconv.Itoa(l.retryAfterSeconds()))
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Success: false, Error: "rate_limited"})
			return
		}
		next(w, r)
	}
}

func (l *StartRateLimiter) retryAfterSeconds() int {
	secs := 60 / l.burst
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Run drops idle client entries until ctx is cancelled.
func (l *StartRateLimiter) Run(ctx context.Context) error {
	ticker := time.NewTicker(limiterIdleTTL)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			l.cleanup()
		}
	}
}

func (l *StartRateLimiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for ip, cl := range l.clients {
		if now.Sub(cl.lastAccess) > limiterIdleTTL {
			delete(l.clients, ip)
		}
	}
}

// Len returns the number of tracked clients.
func (l *StartRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
