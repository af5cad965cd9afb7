package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/promptlift-backend/internal/http/response"
	"github.com/yungbote/promptlift-backend/internal/services"
)

type CreditsHandler struct {
	creditService services.CreditService
}

func NewCreditsHandler(creditService services.CreditService) *CreditsHandler {
	return &CreditsHandler{creditService: creditService}
}

// GET /api/credits/:userId
func (h *CreditsHandler) GetCredits(c *gin.Context) {
	userID := c.Param("userId")
	if !requireSubject(c, userID) {
		return
	}
	u, err := h.creditService.Status(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	var remaining any = u.CreditsRemaining
	if u.HasUnlimitedAccess {
		remaining = unlimitedCredits
	}
	c.JSON(http.StatusOK, gin.H{
		"credits_remaining":    remaining,
		"has_unlimited_access": u.HasUnlimitedAccess,
		"last_credit_reset":    u.LastCreditReset,
	})
}
