package observability

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"github.com/civicdesk/municipal-booking/internal/config"
	apperrors "github.com/civicdesk/municipal-booking/pkg/util/errorutil"
)

const defaultLimiterIdle = 10 * time.Minute

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// ClientLimiter hands out one token bucket per client key. Buckets unused for
// longer than the idle window are dropped.
type ClientLimiter struct {
	buckets   sync.Map
	limit     rate.Limit
	burst     int
	idle      time.Duration
	now       func() time.Time
	lastSweep atomic.Int64
}

// NewClientLimiter returns nil when cfg disables throttling.
func NewClientLimiter(cfg config.RateLimitConfig) *ClientLimiter {
	if cfg.RPS <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}
	idle := cfg.IdleTTL()
	if idle <= 0 {
		idle = defaultLimiterIdle
	}
	l := &ClientLimiter{limit: rate.Limit(cfg.RPS), burst: burst, idle: idle, now: time.Now}
	l.lastSweep.Store(l.now().UnixNano())
	return l
}

// Allow consumes one token for key.
func (l *ClientLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	now := l.now()
	l.sweep(now)
	bucket := l.get(key)
	bucket.lastSeen.Store(now.UnixNano())
	return bucket.limiter.AllowN(now, 1)
}

// Len reports how many client buckets are held.
func (l *ClientLimiter) Len() int {
	n := 0
	l.buckets.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (l *ClientLimiter) get(key string) *clientBucket {
	if v, ok := l.buckets.Load(key); ok {
		return v.(*clientBucket)
	}
	actual, _ := l.buckets.LoadOrStore(key, &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)})
	return actual.(*clientBucket)
}

// sweep runs at most once per idle window; one caller wins the slot.
func (l *ClientLimiter) sweep(now time.Time) {
	last := l.lastSweep.Load()
	if now.UnixNano()-last < int64(l.idle) {
		return
	}
	if !l.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}
	cutoff := now.Add(-l.idle).UnixNano()
	l.buckets.Range(func(key, value any) bool {
		if value.(*clientBucket).lastSeen.Load() < cutoff {
			l.buckets.Delete(key)
		}
		return true
	})
}

// RateLimit rejects clients that exceed their bucket with 429 RATE_LIMITED.
func RateLimit(limiter *ClientLimiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !limiter.Allow(c.IP()) {
			return apperrors.NewDomainError(apperrors.CodeRateLimited, "too many requests", fiber.StatusTooManyRequests, nil)
		}
		return c.Next()
	}
}
