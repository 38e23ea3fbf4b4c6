package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/opsboard/operator-auth/internal/application"
	"github.com/opsboard/operator-auth/pkg/helpers"
	"github.com/opsboard/operator-auth/pkg/response"
)

const (
	CtxOperatorIDKey = "operatorID"
	CtxSessionIDKey  = "sessionID"
	CtxPrincipalKey  = "principal"
)

// SessionAuth loads the session referenced by the sid cookie and
// injects the principal into the Gin context. Unauthenticated access
// is answered with 403 and the uniform envelope.
func SessionAuth(sessions *application.SessionAuthority) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(helpers.SessionCookie)
		if err != nil || sid == "" {
			response.AbortError(c, http.StatusForbidden, "authentication required")
			return
		}
		p, err := sessions.Load(c.Request.Context(), sid)
		if err != nil {
			response.AbortError(c, http.StatusForbidden, "authentication required")
			return
		}
		c.Set(CtxSessionIDKey, sid)
		c.Set(CtxOperatorIDKey, p.ID)
		c.Set(CtxPrincipalKey, p)
		c.Next()
	}
}
