package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/promptlift-backend/internal/http/response"
	"github.com/yungbote/promptlift-backend/internal/platform/apierr"
	"github.com/yungbote/promptlift-backend/internal/platform/ctxutil"
)

// requireSubject rejects the request when bearer auth is on and the token's
// subject is not userID (surrounding whitespace ignored). Without auth data (auth disabled) every caller passes.
func requireSubject(c *gin.Context, userID string) bool {
	ad := ctxutil.GetAuthData(c.Request.Context())
	userID = strings.TrimSpace(userID)
	if ad == nil || userID == "" || ad.Subject == userID {
		return true
	}
	response.RespondError(c, http.StatusForbidden, apierr.CodeForbidden, errors.New("token subject does not match userId"))
	return false
}
