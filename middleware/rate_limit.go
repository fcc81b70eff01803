package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/Anaqqa/supfile/logger"
	"github.com/Anaqqa/supfile/repositories"
	"github.com/Anaqqa/supfile/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	rateWindow      = time.Minute
	localLimiterTTL = 10 * time.Minute
)

// ShareRateLimit limits public share requests per client IP. With a counter
// (redis) the limit is shared across instances as a fixed one-minute window;
// without one each process keeps a token bucket per client. perMinute <= 0
// disables limiting.
func ShareRateLimit(counter repositories.AccessCounter, perMinute int, burst int) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst <= 0 {
		burst = perMinute
	}

	local := newLocalLimiter(perMinute, burst)
	return func(c *gin.Context) {
		key := "share:" + c.ClientIP()

		var allowed bool
		if counter != nil {
			n, err := counter.Hit(c.Request.Context(), key, rateWindow)
			if err != nil {
				logger.WithError(err).Warn("shared rate limiter unavailable, using local limiter")
				allowed = local.allow(key)
			} else {
				allowed = n <= int64(perMinute)
			}
		} else {
			allowed = local.allow(key)
		}

		if !allowed {
			c.Header("Retry-After", "60")
			utils.Error(c, http.StatusTooManyRequests, "too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}

type localLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	clients   map[string]*clientLimiter
	lastSweep time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLocalLimiter(perMinute int, burst int) *localLimiter {
	return &localLimiter{
		limit:     rate.Limit(float64(perMinute) / rateWindow.Seconds()),
		burst:     burst,
		clients:   make(map[string]*clientLimiter),
		lastSweep: time.Now(),
	}
}

func (l *localLimiter) allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > localLimiterTTL {
		for k, cl := range l.clients {
			if now.Sub(cl.lastSeen) > localLimiterTTL {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	cl, ok := l.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}
