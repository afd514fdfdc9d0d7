// Package auth validates bearer tokens issued by the external identity
// provider and exposes the authenticated identity to handlers. The service
// never issues tokens itself.
package auth

import (
	"fmt"
	"net/http"
	"strings"

	"exam-service/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const identityKey = "identity"

type claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Middleware parses the Authorization bearer token and stores the identity
// in the request context. Requests without a valid token are rejected.
func Middleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		if h := c.GetHeader("Authorization"); h != "" {
			tokenString = strings.TrimPrefix(h, "Bearer ")
		}
		if tokenString == "" {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required", "code": "MISSING_TOKEN"})
			c.Abort()
			return
		}

		var cl claims
		token, err := jwt.ParseWithClaims(tokenString, &cl, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid || cl.Subject == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token", "code": "INVALID_TOKEN"})
			c.Abort()
			return
		}

		c.Set(identityKey, session.Identity{
			UserID: cl.Subject,
			Name:   cl.Name,
			Email:  cl.Email,
		})
		c.Next()
	}
}

// FromContext returns the identity the middleware stored.
func FromContext(c *gin.Context) (session.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return session.Identity{}, false
	}
	id, ok := v.(session.Identity)
	return id, ok
}
