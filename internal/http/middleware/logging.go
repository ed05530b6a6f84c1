// Package middleware contains the Gin middleware shared by the HTTP layer:
// correlation IDs, redacting access logs, panic recovery, bearer auth, the
// edge rate limiter, Prometheus metrics, and security headers.
package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// requestIDKey is the Gin context key under which the request ID is stored.
	requestIDKey = "requestID"
	// loggerKey is the Gin context key holding the request-scoped logger.
	loggerKey = "logger"
	// requestIDHeader propagates the correlation ID to callers and upstreams.
	requestIDHeader = "X-Request-ID"
)

// RequestID attaches a correlation identifier to every request. An incoming
// X-Request-ID is reused so IDs survive proxies and client retries; otherwise
// a UUIDv4 is generated. The ID is echoed on the response header, stored in
// the Gin context, and baked into a request-scoped logger retrievable via
// LoggerFrom. Place this first so everything downstream sees the ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)

		lg := log.With().Str("request_id", rid).Logger()
		c.Set(loggerKey, &lg)

		c.Next()
	}
}

// Recovery intercepts panics, logs the stack with the correlation ID, and
// answers with the standard JSON error envelope when nothing has been written
// yet. A webhook delivery or tracking lookup that panics must still produce a
// well-formed 500 so provider retries and clients see a parseable body.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				rid, _ := c.Get(requestIDKey)
				log.Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Str("request_id", asString(rid)).
					Msg("panic recovered")

				if !c.Writer.Written() {
					c.Header("Content-Type", "application/json")
					c.Header(requestIDHeader, asString(rid))
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
						"request_id": asString(rid),
						"code":       "internal_error",
						"message":    "internal server error",
					})
					return
				}
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped zerolog.Logger attached by RequestID.
// Without the middleware a fallback logger is returned, so callers never need
// a nil check.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

// asString narrows a context value to string, empty when it is anything else.
func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
