package middleware

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"fooddash/internal/utils"
	"fooddash/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/time/rate"
)

const ContextRequestID = "request_id"

// CORSMiddleware allows the configured origins. A "*" entry allows any origin
// but then credentials are not advertised.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case origin != "" && allowed[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Vary", "Origin")
		case allowAll:
			c.Header("Access-Control-Allow-Origin", "*")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RequestIDMiddleware adds a request ID to each request
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" || len(requestID) > 64 {
			requestID = uuid.NewString()
		}
		c.Set(ContextRequestID, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// LoggingMiddleware logs one line per request once the handler chain has run.
// Errors attached with c.Error are logged alongside.
func LoggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}
		var userID *primitive.ObjectID
		if actor, ok := ActorFrom(c); ok {
			userID = &actor.ID
		}
		requestID := c.GetString(ContextRequestID)

		log.LogAPIRequest(c.Request.Method, endpoint, c.Writer.Status(), time.Since(start), requestID, userID)
		for _, ginErr := range c.Errors {
			log.WithRequestID(requestID).WithError(ginErr.Err).WithField("endpoint", endpoint).Error("Request failed")
		}
	}
}

// RecoveryMiddleware turns a panic into a 500 envelope and logs the stack.
func RecoveryMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				log.WithRequestID(c.GetString(ContextRequestID)).WithFields(map[string]interface{}{
					"panic": fmt.Sprint(recovered),
					"stack": string(debug.Stack()),
				}).Error("Recovered from panic")
				utils.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", utils.ErrInternalServer)
				c.Abort()
			}
		}()
		c.Next()
	}
}

// TimeoutMiddleware bounds the request context. Handlers pass the context to
// the services, so blocked database calls are cancelled when it expires.
func TimeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client key.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
}

func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		idleTTL: 10 * time.Minute,
	}
}

func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if now.Sub(r.lastSweep) > r.idleTTL {
		for k, cl := range r.clients {
			if now.Sub(cl.lastSeen) > r.idleTTL {
				delete(r.clients, k)
			}
		}
		r.lastSweep = now
	}

	cl, ok := r.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.clients[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.Allow()
}

// RateLimitMiddleware limits by authenticated user when known, otherwise by
// client IP.
func RateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if actor, ok := ActorFrom(c); ok {
			key = actor.ID.Hex()
		}
		if !limiter.Allow(key) {
			c.Header("Retry-After", strconv.Itoa(60))
			utils.ErrorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, slow down")
			c.Abort()
			return
		}
		c.Next()
	}
}
