package main

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"eventdesk/data/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"
	authUserKey     = "authUser"
)

// requestLogger tags each request with an id and logs it once it completes.
func (app *application) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := app.Log.Info()
		switch {
		case status >= http.StatusInternalServerError:
			event = app.Log.Error()
		case status >= http.StatusBadRequest:
			event = app.Log.Warn()
		}
		event.
			Str("requestID", id).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("clientIP", c.ClientIP()).
			Msg("request")
	}
}

// requireAuth rejects requests without a valid bearer token and stores the
// token's user in the context.
func (app *application) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			app.abortWithError(c, http.StatusUnauthorized, errUnauthorized)
			return
		}

		user, err := app.Tokens.Verify(strings.TrimSpace(raw))
		if err != nil {
			app.Log.Debug().Err(err).Msg("token rejected")
			app.abortWithError(c, http.StatusUnauthorized, errUnauthorized)
			return
		}

		c.Set(authUserKey, user)
		c.Next()
	}
}

// requireRole must run after requireAuth.
func (app *application) requireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUser(c).UserType != role {
			app.abortWithError(c, http.StatusForbidden, errForbidden)
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) models.AuthResult {
	if v, ok := c.Get(authUserKey); ok {
		if user, ok := v.(models.AuthResult); ok {
			return user
		}
	}
	return models.AuthResult{}
}

type keyLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter keeps one token bucket per key in memory. Buckets idle for
// longer than idleTTL are dropped on the next sweep.
type rateLimiter struct {
	rps     rate.Limit
	burst   int
	idleTTL time.Duration

	mu        sync.Mutex
	buckets   map[string]*keyLimiter
	lastSweep time.Time
}

func newRateLimiter(rps float64, burst int, idleTTL time.Duration) *rateLimiter {
	return &rateLimiter{
		rps:       rate.Limit(rps),
		burst:     burst,
		idleTTL:   idleTTL,
		buckets:   make(map[string]*keyLimiter),
		lastSweep: time.Now(),
	}
}

func (rl *rateLimiter) allow(key string) bool {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) > rl.idleTTL {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) > rl.idleTTL {
				delete(rl.buckets, k)
			}
		}
		rl.lastSweep = now
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &keyLimiter{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

// limitByIP answers 429 once a client IP runs out of tokens.
func (app *application) limitByIP(rl *rateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			app.abortWithError(c, http.StatusTooManyRequests, errTooManyRequests)
			return
		}
		c.Next()
	}
}
