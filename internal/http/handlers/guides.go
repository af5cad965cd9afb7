package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/promptlift-backend/internal/domain/guide"
	"github.com/yungbote/promptlift-backend/internal/http/response"
	"github.com/yungbote/promptlift-backend/internal/platform/apierr"
	"github.com/yungbote/promptlift-backend/internal/services"
)

type GuideHandler struct {
	guideService services.GuideService
}

func NewGuideHandler(guideService services.GuideService) *GuideHandler {
	return &GuideHandler{guideService: guideService}
}

type guideSummary struct {
	Platform  string `json:"platform"`
	Version   int    `json:"version"`
	UpdatedAt string `json:"updated_at"`
}

// GET /api/guides
func (h *GuideHandler) ListGuides(c *gin.Context) {
	rows, err := h.guideService.List(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	out := make([]guideSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, guideSummary{Platform: r.Platform, Version: r.Version, UpdatedAt: r.UpdatedAt.UTC().Format(time.RFC3339)})
	}
	c.JSON(http.StatusOK, gin.H{"guides": out})
}

// GET /api/guides/:platform
func (h *GuideHandler) GetGuide(c *gin.Context) {
	platform, doc, err := h.guideService.Get(c.Request.Context(), c.Param("platform"))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"platform": platform, "guide": doc})
}

// PUT /api/guides/:platform
// body: a guide document
func (h *GuideHandler) PutGuide(c *gin.Context) {
	var doc guide.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		response.RespondAPIError(c, apierr.BadRequest(fmt.Errorf("invalid guide document: %w", err)))
		return
	}
	row, err := h.guideService.Put(c.Request.Context(), c.Param("platform"), &doc)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"platform": row.Platform, "version": row.Version})
}

// DELETE /api/guides/:platform
func (h *GuideHandler) DeleteGuide(c *gin.Context) {
	if err := h.guideService.Delete(c.Request.Context(), c.Param("platform")); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
