// internal/handlers/stats.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/licensehub/licensehub-backend/internal/services"
	"github.com/licensehub/licensehub-backend/internal/utils"
)

type StatsHandler struct {
	stats     *services.StatsService
	inventory *services.InventoryService
	directory *services.DirectoryService
}

func NewStatsHandler(stats *services.StatsService, inventory *services.InventoryService, directory *services.DirectoryService) *StatsHandler {
	return &StatsHandler{
		stats:     stats,
		inventory: inventory,
		directory: directory,
	}
}

// GET /v1/stats/dashboard
func (h *StatsHandler) Dashboard(c *gin.Context) {
	actor, ok := resolveActor(c, h.directory)
	if !ok {
		return
	}

	stats, err := h.stats.Dashboard(actor)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, stats)
}

// GET /v1/stats/inventory
func (h *StatsHandler) Inventory(c *gin.Context) {
	actor, ok := resolveActor(c, h.directory)
	if !ok {
		return
	}

	stats, err := h.inventory.Stats(actor)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, stats)
}
