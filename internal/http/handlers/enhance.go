package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/promptlift-backend/internal/http/response"
	"github.com/yungbote/promptlift-backend/internal/platform/apierr"
	"github.com/yungbote/promptlift-backend/internal/services"
)

const unlimitedCredits = "unlimited"

type EnhanceHandler struct {
	enhanceService services.EnhanceService
}

func NewEnhanceHandler(enhanceService services.EnhanceService) *EnhanceHandler {
	return &EnhanceHandler{enhanceService: enhanceService}
}

type enhanceRequest struct {
	Platform string `json:"platform"`
	Prompt   string `json:"prompt"`
	UserID   string `json:"userId"`
}

type enhanceResponse struct {
	EnhancedPrompt     string `json:"enhanced_prompt"`
	CreditsRemaining   any    `json:"credits_remaining"`
	HasUnlimitedAccess bool   `json:"has_unlimited_access"`
}

// POST /api/enhance
// body: { "platform": "...", "prompt": "...", "userId": "..." }
func (h *EnhanceHandler) Enhance(c *gin.Context) {
	var req enhanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, apierr.BadRequest(fmt.Errorf("invalid JSON body: %w", err)))
		return
	}
	if !requireSubject(c, req.UserID) {
		return
	}
	res, err := h.enhanceService.Enhance(c.Request.Context(), services.EnhanceRequest{
		Platform: req.Platform,
		Prompt:   req.Prompt,
		UserID:   req.UserID,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	out := enhanceResponse{
		EnhancedPrompt:     res.EnhancedPrompt,
		CreditsRemaining:   res.CreditsRemaining,
		HasUnlimitedAccess: res.HasUnlimitedAccess,
	}
	if res.HasUnlimitedAccess {
		out.CreditsRemaining = unlimitedCredits
	}
	c.JSON(http.StatusOK, out)
}

// POST /api/classify
// body: { "prompt": "..." }
func (h *EnhanceHandler) Classify(c *gin.Context) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, apierr.BadRequest(fmt.Errorf("invalid JSON body: %w", err)))
		return
	}
	res, err := h.enhanceService.Classify(c.Request.Context(), req.Prompt)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"complexity": res.Complexity,
		"rule":       res.Rule,
		"task_type":  res.TaskType,
	})
}
