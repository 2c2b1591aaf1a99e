package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/snappy-gold/appraisal-api/internal/appraise"
)

// sessionRegistry tracks live appraisal sessions by ID and evicts idle ones.
// A session whose TTL elapses mid-conversation just means the visitor starts
// over with a fresh photo; nothing durable lives here.
type sessionRegistry struct {
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]*sessionEntry

	done chan struct{}
	once sync.Once
}

type sessionEntry struct {
	sess     *appraise.Session
	lastSeen time.Time
}

func newSessionRegistry(ttl time.Duration) *sessionRegistry {
	r := &sessionRegistry{
		ttl:     ttl,
		entries: make(map[string]*sessionEntry),
		done:    make(chan struct{}),
	}
	go r.janitor()
	return r
}

// put registers a session and returns its new ID.
func (r *sessionRegistry) put(sess *appraise.Session) string {
	id := uuid.New().String()
	r.mu.Lock()
	r.entries[id] = &sessionEntry{sess: sess, lastSeen: time.Now()}
	r.mu.Unlock()
	return id
}

// get returns the session for id, refreshing its idle timer, or nil.
func (r *sessionRegistry) get(id string) *appraise.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil
	}
	e.lastSeen = time.Now()
	return e.sess
}

func (r *sessionRegistry) janitor() {
	ticker := time.NewTicker(r.ttl / 4)
	defer ticker.Stop()
	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-r.ttl)
			r.mu.Lock()
			evicted := 0
			for id, e := range r.entries {
				if e.lastSeen.Before(cutoff) {
					delete(r.entries, id)
					evicted++
				}
			}
			n := len(r.entries)
			r.mu.Unlock()
			if evicted > 0 {
				zap.L().Debug("evicted idle sessions",
					zap.Int("evicted", evicted),
					zap.Int("remaining", n),
				)
			}
		}
	}
}

func (r *sessionRegistry) stop() {
	r.once.Do(func() { close(r.done) })
}
