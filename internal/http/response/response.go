package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/promptlift-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAPIError renders err through the apierr taxonomy. Server-side
// failures get a generic message; the detail is attached to the gin context
// for the request logger.
func RespondAPIError(c *gin.Context, err error) {
	ae := apierr.From(err)
	if ae == nil {
		ae = apierr.Internal(nil)
	}
	status := ae.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		if err != nil {
			_ = c.Error(err)
		}
		c.JSON(status, ErrorEnvelope{Error: APIError{Message: genericMessage(ae.Code), Code: ae.Code}})
		return
	}
	RespondError(c, status, ae.Code, ae)
}

func genericMessage(code string) string {
	if code == apierr.CodeUpstream {
		return "the enhancement service is temporarily unavailable"
	}
	return "internal server error"
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
