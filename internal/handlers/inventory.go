// internal/handlers/inventory.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/licensehub/licensehub-backend/internal/services"
	"github.com/licensehub/licensehub-backend/internal/utils"
)

type InventoryHandler struct {
	inventory *services.InventoryService
	directory *services.DirectoryService
}

func NewInventoryHandler(inventory *services.InventoryService, directory *services.DirectoryService) *InventoryHandler {
	return &InventoryHandler{
		inventory: inventory,
		directory: directory,
	}
}

// GET /v1/software
func (h *InventoryHandler) ListSoftware(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	software, total, err := h.inventory.ListSoftware(params)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(software, total, params))
}

// POST /v1/software
func (h *InventoryHandler) CreateSoftware(c *gin.Context) {
	actor, ok := resolveActor(c, h.directory)
	if !ok {
		return
	}

	var req services.SoftwareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	software, err := h.inventory.CreateSoftware(actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, software)
}

// PUT /v1/software/:id
func (h *InventoryHandler) UpdateSoftware(c *gin.Context) {
	actor, ok := resolveActor(c, h.directory)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.SoftwareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	software, err := h.inventory.UpdateSoftware(actor, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, software)
}

// DELETE /v1/software/:id
func (h *InventoryHandler) DeleteSoftware(c *gin.Context) {
	actor, ok := resolveActor(c, h.directory)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.inventory.DeleteSoftware(actor, id); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"message": "Software deleted"})
}
