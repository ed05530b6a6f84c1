// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements bearer-token authentication for the payment
// initiation endpoint. Tokens are HMAC-signed JWTs whose "sub" claim carries
// the user id; the resolved identity is stored in the Gin context under
// "userID" for handlers and the rate limiter key function.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ctxKeyUserID is the Gin context key under which the authenticated user id
// is stored.
const ctxKeyUserID = "userID"

// UserID returns the authenticated user id set by AuthRequired, or "" when
// the request is unauthenticated.
func UserID(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUserID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// AuthRequired returns a middleware that rejects requests without a valid
// bearer token. Validation:
//   - Authorization header present with a "Bearer " prefix
//   - token parses and verifies against secret with an HMAC signing method
//   - "sub" claim present and non-empty
//
// Failures answer 401 with the standard error envelope; the ownership check
// against the targeted resource stays in the service layer.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			unauthorized(c, "authentication required")
			return
		}
		tokenStr := strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
		if tokenStr == "" || tokenStr == header {
			unauthorized(c, "malformed authorization header")
			return
		}

		sub, err := resolveSubject(tokenStr, secret)
		if err != nil {
			unauthorized(c, "invalid token")
			return
		}

		c.Set(ctxKeyUserID, sub)
		c.Next()
	}
}

// resolveSubject parses and verifies tokenStr, returning its subject claim.
func resolveSubject(tokenStr, secret string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		if err == nil {
			err = errors.New("invalid token")
		}
		return "", err
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("missing subject claim")
	}
	return sub, nil
}

// unauthorized aborts with the standard 401 envelope.
func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"code":       "unauthorized",
		"message":    msg,
	})
}
