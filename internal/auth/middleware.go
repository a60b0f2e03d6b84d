package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const claimsKey = "claims"

// Authenticate enforces HS256 bearer tokens from the Authorization or
// x-auth-token header.
func Authenticate(signingKey, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "No token, authorization denied."})
			return
		}
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token is not valid."})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireRole aborts with 403 unless the authenticated principal has role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Principal(c)
		if !ok || claims.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Access denied."})
			return
		}
		c.Next()
	}
}

// Principal returns the claims set by Authenticate.
func Principal(c *gin.Context) (Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return Claims{}, false
	}
	claims, ok := v.(Claims)
	return claims, ok
}

func bearerToken(c *gin.Context) string {
	if authz := c.GetHeader("Authorization"); len(authz) > len("bearer ") && strings.EqualFold(authz[:len("bearer ")], "bearer ") {
		return strings.TrimSpace(authz[len("bearer "):])
	}
	return strings.TrimSpace(c.GetHeader("x-auth-token"))
}
