package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	jwtsvc "tripdesk/internal/pkg/jwt"
	"tripdesk/internal/pkg/response"
)

// DraftToken checks the wizard token issued when the draft was created and
// pins it to the draft in the URL, so one browser session cannot read or
// mutate another session's draft.
func DraftToken(j *jwtsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing Authorization header")
			c.Abort()
			return
		}

		if !strings.HasPrefix(h, "Bearer ") {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid Authorization header")
			c.Abort()
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		if tokenStr == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Empty token")
			c.Abort()
			return
		}

		claims, err := j.ValidateToken(tokenStr)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
			c.Abort()
			return
		}

		if id := c.Param("id"); id != "" && id != claims.DraftID {
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Token does not match draft")
			c.Abort()
			return
		}

		c.Set("draft_id", claims.DraftID)
		c.Next()
	}
}
