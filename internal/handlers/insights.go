// internal/handlers/insights.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/licensehub/licensehub-backend/internal/services"
	"github.com/licensehub/licensehub-backend/internal/utils"
)

type InsightsHandler struct {
	insights  *services.InsightsService
	directory *services.DirectoryService
}

func NewInsightsHandler(insights *services.InsightsService, directory *services.DirectoryService) *InsightsHandler {
	return &InsightsHandler{
		insights:  insights,
		directory: directory,
	}
}

// POST /v1/insights/run
func (h *InsightsHandler) Run(c *gin.Context) {
	actor, ok := resolveActor(c, h.directory)
	if !ok {
		return
	}

	recommendation, err := h.insights.Run(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, recommendation)
}

// GET /v1/insights
func (h *InsightsHandler) List(c *gin.Context) {
	actor, ok := resolveActor(c, h.directory)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	recommendations, err := h.insights.Latest(actor, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, recommendations)
}
