package middleware

import (
	"math"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"clinical-lookup/internal/metrics"
	"clinical-lookup/internal/utils"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	// IdleTTL drops limiters for clients that have been quiet this long.
	IdleTTL time.Duration
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiterStore struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	cfg     RateLimitConfig
	lastGC  time.Time
}

func (s *limiterStore) get(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.IdleTTL > 0 && now.Sub(s.lastGC) > s.cfg.IdleTTL {
		for k, cl := range s.clients {
			if now.Sub(cl.lastSeen) > s.cfg.IdleTTL {
				delete(s.clients, k)
			}
		}
		s.lastGC = now
	}

	cl, ok := s.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(s.cfg.RequestsPerSecond), s.cfg.Burst)}
		s.clients[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

// RateLimit rejects clients exceeding the configured rate with 429.
func RateLimit(cfg RateLimitConfig, m *metrics.Collector) gin.HandlerFunc {
	if cfg.IdleTTL == 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	store := &limiterStore{clients: make(map[string]*clientLimiter), cfg: cfg, lastGC: time.Now()}

	return func(c *gin.Context) {
		now := time.Now()
		lim := store.get(c.ClientIP(), now)
		r := lim.ReserveN(now, 1)
		if !r.OK() {
			rejectRateLimited(c, m, 1)
			return
		}
		if delay := r.DelayFrom(now); delay > 0 {
			r.CancelAt(now)
			rejectRateLimited(c, m, int(math.Ceil(delay.Seconds())))
			return
		}
		c.Next()
	}
}

func rejectRateLimited(c *gin.Context, m *metrics.Collector, retryAfter int) {
	if m != nil {
		m.RateLimited.Inc()
	}
	if retryAfter < 1 {
		retryAfter = 1
	}
	utils.TooManyRequests(c, retryAfter)
}
