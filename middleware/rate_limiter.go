package middleware

import (
	"net/http"
	"sync"
	"time"

	"tourbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiterStore holds a map of IP addresses to their rate limiters.
type rateLimiterStore struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	every     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

func newRateLimiterStore(perHour int) *rateLimiterStore {
	if perHour < 1 {
		perHour = 1
	}
	return &rateLimiterStore{
		visitors: make(map[string]*visitor),
		every:    rate.Every(time.Hour / time.Duration(perHour)),
		burst:    perHour,
		now:      time.Now,
	}
}

// getLimiter returns the rate limiter for a given IP, creating one if it doesn't exist.
func (s *rateLimiterStore) getLimiter(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) > 10*time.Minute {
		for key, v := range s.visitors {
			if now.Sub(v.lastSeen) > time.Hour {
				delete(s.visitors, key)
			}
		}
		s.lastSweep = now
	}

	v, exists := s.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(s.every, s.burst)}
		s.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// RateLimitMiddleware allows perHour requests per client IP within an hour.
func RateLimitMiddleware(perHour int) gin.HandlerFunc {
	store := newRateLimiterStore(perHour)
	return func(c *gin.Context) {
		ip := getClientIP(c)
		if !store.getLimiter(ip).Allow() {
			utils.RequestLogger(c).Warn("Rate limit exceeded", zap.String("ip", ip))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, utils.ErrorResponse{
				Status:  "fail",
				Message: "Too many requests from this IP, please try again in an hour!",
			})
			return
		}
		c.Next()
	}
}
