package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"listinghub/internal/security"
)

const (
	identityKey     = "identity"
	accessClaimsKey = "access_claims"
)

// Auth admits requests carrying a valid bearer token and stores the decoded
// identity on the context. It does not consult the user store.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		claims, err := security.ParseAccessToken(tokenStr, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(accessClaimsKey, *claims)
		c.Set(identityKey, claims.Identity())

		c.Next()
	}
}

// CurrentIdentity returns the actor stored by Auth.
func CurrentIdentity(c *gin.Context) (security.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return security.Identity{}, false
	}
	id, ok := v.(security.Identity)
	return id, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
