package middleware

import (
	"net/http"
	"sync"
	"time"

	"import-service/internal/api/responses"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterIdle é quanto um cliente pode ficar parado antes de perder o limiter.
const limiterIdle = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limita requisições por IP do cliente.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	every   rate.Limit
	burst   int
	now     func() time.Time
}

// NewRateLimiter aceita perSecond requisições por segundo com rajadas de burst.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		clients: make(map[string]*clientLimiter),
		every:   rate.Limit(perSecond),
		burst:   burst,
		now:     time.Now,
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for k, cl := range rl.clients {
		if now.Sub(cl.lastSeen) > limiterIdle {
			delete(rl.clients, k)
		}
	}
	cl, ok := rl.clients[ip]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.every, rl.burst)}
		rl.clients[ip] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// Middleware responde 429 quando o cliente passa do limite.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			responses.Abort(c, http.StatusTooManyRequests, "Muitas requisições, tente novamente em instantes")
			return
		}
		c.Next()
	}
}
