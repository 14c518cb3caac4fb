package mw

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"smartbreath-backend/internal/auth"
)

// principalKey is the gin context key the verified principal is stored under.
const principalKey = "principal"

// RequireToken verifies the Authorization bearer token and stores the
// resulting principal in the request context. A missing header is forbidden;
// a present but invalid token is unauthorized.
func RequireToken(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "no token provided"})
			return
		}

		principal, err := auth.VerifyToken(strings.TrimPrefix(header, "Bearer "), secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// PrincipalFrom returns the verified principal attached by RequireToken.
func PrincipalFrom(c *gin.Context) (auth.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return auth.Principal{}, false
	}
	p, ok := v.(auth.Principal)
	return p, ok
}
