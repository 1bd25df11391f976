// README: Firebase ID-token auth; puts the caller's UID and role on the gin context.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"charter/internal/infra"
)

const (
	ctxCallerUID  = "caller_uid"
	ctxCallerRole = "caller_role"

	RoleAdmin = "admin"
)

// Auth rejects requests without a valid bearer token.
func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "missing bearer token")
			return
		}
		token, err := verifier.VerifyIDToken(c.Request.Context(), raw)
		if err != nil {
			abort(c, http.StatusUnauthorized, "invalid token")
			return
		}
		setCaller(c, token)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a token is present. A missing
// header passes through anonymously; a bad token is still rejected.
func OptionalAuth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		Auth(verifier)(c)
	}
}

// RequireRole must run after Auth.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CallerRole(c) != role {
			abort(c, http.StatusForbidden, "insufficient role")
			return
		}
		c.Next()
	}
}

func CallerUID(c *gin.Context) string  { return c.GetString(ctxCallerUID) }
func CallerRole(c *gin.Context) string { return c.GetString(ctxCallerRole) }

func bearerToken(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}

func setCaller(c *gin.Context, token *infra.FirebaseToken) {
	c.Set(ctxCallerUID, token.UID)
	if role, ok := token.Claims["role"].(string); ok {
		c.Set(ctxCallerRole, role)
	}
}

// abort writes the failure envelope used by the handlers.
func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"result": false, "message": msg})
}
