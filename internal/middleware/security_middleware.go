package middleware

import (
	"net/http"
	"strings"

	"clinic-pos/internal/auth"
	"clinic-pos/internal/models"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// TokenValidator is the part of auth.Tokens the middleware needs.
type TokenValidator interface {
	Validate(token string) (auth.Principal, error)
}

// AuthMiddleware checks if the user has a valid JWT token
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get the token from the "Authorization" header
		// Format: "Bearer <token>"
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		// 2. Remove the "Bearer " prefix
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || tokenString == "" {
			abort(c, http.StatusUnauthorized, "Authorization header must start with Bearer")
			return
		}

		// 3. Validate the token
		principal, err := tokens.Validate(tokenString)
		if err != nil {
			abort(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		// 4. Store the caller for the handlers
		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireRole is a secondary guard that checks for specific permissions
func RequireRole(allowed models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := CurrentUser(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "Authentication required")
			return
		}
		if p.Role != allowed {
			abort(c, http.StatusForbidden, "You do not have permission to access this resource")
			return
		}
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}

// CurrentUser returns the caller set by AuthMiddleware.
func CurrentUser(c *gin.Context) (auth.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return auth.Principal{}, false
	}
	p, ok := v.(auth.Principal)
	return p, ok
}

// SetCurrentUser is used by tests and internal callers that authenticate
// some other way.
func SetCurrentUser(c *gin.Context, p auth.Principal) {
	c.Set(principalKey, p)
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success":    false,
		"error":      msg,
		"request_id": RequestIDFrom(c),
	})
}
