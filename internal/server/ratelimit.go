package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ipLimiter caps analyze calls per client IP. The free tier is expressed as a
// daily allowance: a full burst up front, refilling at the daily rate spread
// evenly over 24h.
type ipLimiter struct {
	perDay int

	mu       sync.Mutex
	limiters map[string]*limiterEntry

	done chan struct{}
	once sync.Once
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(perDay int) *ipLimiter {
	l := &ipLimiter{
		perDay:   perDay,
		limiters: make(map[string]*limiterEntry),
		done:     make(chan struct{}),
	}
	go l.cleanup()
	return l
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.limiters[ip]
	if !ok {
		e = &limiterEntry{
			lim: rate.NewLimiter(rate.Every(24*time.Hour/time.Duration(l.perDay)), l.perDay),
		}
		l.limiters[ip] = e
	}
	e.lastSeen = time.Now()
	return e.lim.Allow()
}

// cleanup drops entries idle for more than two days; their tokens would be
// fully replenished anyway.
func (l *ipLimiter) cleanup() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-48 * time.Hour)
			l.mu.Lock()
			for ip, e := range l.limiters {
				if e.lastSeen.Before(cutoff) {
					delete(l.limiters, ip)
				}
			}
			l.mu.Unlock()
		}
	}
}

func (l *ipLimiter) stop() {
	l.once.Do(func() { close(l.done) })
}

// analyzeRateLimit rejects clients over their daily analyze allowance.
func (s *Server) analyzeRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !s.limiter.allow(ip) {
			writeError(w, http.StatusTooManyRequests, "daily analysis limit reached")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP trusts middleware.RealIP to have rewritten RemoteAddr from the
// proxy headers; this just strips the port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
