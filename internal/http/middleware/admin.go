package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/promptlift-backend/internal/http/response"
	"github.com/yungbote/promptlift-backend/internal/platform/apierr"
	"github.com/yungbote/promptlift-backend/internal/platform/ctxutil"
	"github.com/yungbote/promptlift-backend/internal/platform/logger"
)

// HeaderAdminToken carries the shared guide admin token.
const HeaderAdminToken = "X-Admin-Token"

type AdminConfig struct {
	Token string
	Role  string
}

// RequireAdmin guards guide writes. A request passes when it presents Token in
// X-Admin-Token or when its verified bearer token carries Role. With neither
// configured every request is refused.
func RequireAdmin(log *logger.Logger, cfg AdminConfig) gin.HandlerFunc {
	token := []byte(strings.TrimSpace(cfg.Token))
	role := strings.TrimSpace(cfg.Role)
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("Middleware", "RequireAdmin")
	return func(c *gin.Context) {
		if len(token) > 0 {
			presented := []byte(strings.TrimSpace(c.GetHeader(HeaderAdminToken)))
			if subtle.ConstantTimeCompare(presented, token) == 1 {
				c.Next()
				return
			}
		}
		if ctxutil.GetAuthData(c.Request.Context()).HasRole(role) {
			c.Next()
			return
		}
		log.Warn("guide write refused", "path", c.FullPath())
		c.Abort()
		response.RespondError(c, http.StatusForbidden, apierr.CodeForbidden, errors.New("guide writes require admin access"))
	}
}
