package middleware

import (
	"net/http"

	"clinic-pos/internal/visibility"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const rulesKey = "visibility_rules"

// ResolveVisibility loads the visibility ruleset once per request. Admins
// are never filtered, so the lookup is skipped for them.
func ResolveVisibility(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := CurrentUser(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "Authentication required")
			return
		}
		if p.IsAdmin() {
			c.Set(rulesKey, visibility.Rules{})
			c.Next()
			return
		}

		rules, err := visibility.Load(c.Request.Context(), db)
		if err != nil {
			log.Error("resolve visibility", zap.Error(err), zap.String("request_id", RequestIDFrom(c)))
			abort(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		c.Set(rulesKey, rules)
		c.Next()
	}
}

// Rules returns the ruleset set by ResolveVisibility. Without one nothing is hidden.
func Rules(c *gin.Context) visibility.Rules {
	if v, ok := c.Get(rulesKey); ok {
		if r, ok := v.(visibility.Rules); ok {
			return r
		}
	}
	return visibility.Rules{}
}
