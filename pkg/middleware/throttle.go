package middleware

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/ratelimit"
)

const (
	// DefaultThrottleIdleTimeout is how long an unused client limiter is kept.
	DefaultThrottleIdleTimeout = time.Minute

	// DefaultThrottleMaxClients caps the number of client limiters held at once.
	DefaultThrottleMaxClients = 10000
)

// ThrottleConfig defines per-client request pacing
type ThrottleConfig struct {
	// RPS is the number of requests per second each client may make.
	// Zero or less disables throttling.
	RPS int

	// Slack is the number of requests a client may burst after being idle.
	Slack int

	// MaxWait bounds how long a request waits for its slot before it is
	// rejected with 429. A client already holding RPS*MaxWait waiting requests
	// is rejected at once. Zero waits until the request's context is done.
	MaxWait time.Duration

	// IdleTimeout drops a client's limiter once it has been unused this long.
	// Defaults to DefaultThrottleIdleTimeout.
	IdleTimeout time.Duration

	// MaxClients caps the number of limiters held. When full, the least
	// recently used limiter is dropped. Defaults to DefaultThrottleMaxClients.
	MaxClients int

	// IPConfig controls how the client key is derived.
	IPConfig *IPConfig

	// KeyExtractor overrides the client key. Defaults to the client IP.
	KeyExtractor func(*http.Request) string

	// ExceededHandler writes the response for a rejected request.
	// If nil, a plain 429 Too Many Requests response is sent.
	ExceededHandler http.Handler
}

// Throttle paces requests per client using a leaky bucket.
// Requests over the rate wait for their slot. A request whose context ends
// while waiting is dropped without reaching next, and one that would wait
// longer than MaxWait is rejected.
func Throttle(config ThrottleConfig) Middleware {
	if config.RPS <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	key := config.KeyExtractor
	if key == nil {
		key = func(r *http.Request) string { return ClientIP(r, config.IPConfig) }
	}

	exceeded := config.ExceededHandler
	if exceeded == nil {
		exceeded = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		})
	}

	limiters := newLimiterSet(config)

	var maxQueue int64
	if config.MaxWait > 0 {
		maxQueue = int64(float64(config.RPS) * config.MaxWait.Seconds())
		if maxQueue < 1 {
			maxQueue = 1
		}
	}

	reject := func(w http.ResponseWriter, r *http.Request) {
		// Slots free up at least once a second for any positive rate
		w.Header().Set("Retry-After", "1")
		exceeded.ServeHTTP(w, r)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if ctx.Err() != nil {
				return
			}

			entry := limiters.get(key(r))
			if maxQueue > 0 && entry.waiting.Load() >= maxQueue {
				reject(w, r)
				return
			}

			// Take cannot be interrupted, so it runs apart from the request
			entry.waiting.Add(1)
			slot := make(chan struct{})
			go func() {
				entry.limiter.Take()
				entry.waiting.Add(-1)
				close(slot)
			}()

			var timeout <-chan time.Time
			if config.MaxWait > 0 {
				timer := time.NewTimer(config.MaxWait)
				defer timer.Stop()
				timeout = timer.C
			}

			select {
			case <-slot:
			case <-ctx.Done():
				// The client is gone; nobody is left to answer.
				return
			case <-timeout:
				reject(w, r)
				return
			}

			if ctx.Err() != nil {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// limiterSet lazily creates one limiter per client key and drops limiters
// that have gone idle.
type limiterSet struct {
	rps        int
	slack      int
	idle       time.Duration
	maxClients int
	now        func() time.Time

	mu        sync.Mutex
	entries   map[string]*limiterEntry
	lastSweep time.Time
}

type limiterEntry struct {
	limiter  ratelimit.Limiter
	lastSeen time.Time
	waiting  atomic.Int64
}

func newLimiterSet(config ThrottleConfig) *limiterSet {
	idle := config.IdleTimeout
	if idle <= 0 {
		idle = DefaultThrottleIdleTimeout
	}
	maxClients := config.MaxClients
	if maxClients <= 0 {
		maxClients = DefaultThrottleMaxClients
	}
	return &limiterSet{
		rps:        config.RPS,
		slack:      config.Slack,
		idle:       idle,
		maxClients: maxClients,
		now:        time.Now,
		entries:    make(map[string]*limiterEntry),
	}
}

func (s *limiterSet) get(key string) *limiterEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= s.idle {
		s.sweep(now)
	}

	if e, ok := s.entries[key]; ok {
		e.lastSeen = now
		return e
	}

	if len(s.entries) >= s.maxClients {
		s.sweep(now)
		if len(s.entries) >= s.maxClients {
			s.evictOldest()
		}
	}

	opts := []ratelimit.Option{ratelimit.WithoutSlack}
	if s.slack > 0 {
		opts = []ratelimit.Option{ratelimit.WithSlack(s.slack)}
	}
	e := &limiterEntry{limiter: ratelimit.New(s.rps, opts...), lastSeen: now}
	s.entries[key] = e
	return e
}

// sweep drops entries unused for the idle timeout. Callers hold s.mu.
func (s *limiterSet) sweep(now time.Time) {
	for k, e := range s.entries {
		if now.Sub(e.lastSeen) >= s.idle {
			delete(s.entries, k)
		}
	}
	s.lastSweep = now
}

// evictOldest drops the least recently used entry. Callers hold s.mu.
func (s *limiterSet) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for k, e := range s.entries {
		if !found || e.lastSeen.Before(oldest) {
			oldestKey, oldest, found = k, e.lastSeen, true
		}
	}
	if found {
		delete(s.entries, oldestKey)
	}
}
