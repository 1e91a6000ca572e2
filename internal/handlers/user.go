// internal/handlers/user.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/licensehub/licensehub-backend/internal/services"
	"github.com/licensehub/licensehub-backend/internal/utils"
)

type UserHandler struct {
	directory *services.DirectoryService
}

func NewUserHandler(directory *services.DirectoryService) *UserHandler {
	return &UserHandler{
		directory: directory,
	}
}

// GET /v1/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	actor, ok := resolveActor(c, h.directory)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	users, total, err := h.directory.ListUsers(actor, params)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(users, total, params))
}

// PUT /v1/users/:id/profile
func (h *UserHandler) UpdateUserProfile(c *gin.Context) {
	actor, ok := resolveActor(c, h.directory)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	profile, err := h.directory.UpdateUserProfile(actor, userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, profile)
}

// GET /v1/department-team
func (h *UserHandler) DepartmentTeam(c *gin.Context) {
	actor, ok := resolveActor(c, h.directory)
	if !ok {
		return
	}

	users, err := h.directory.DepartmentTeam(actor)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, users)
}

// PUT /v1/profile/department
func (h *UserHandler) UpdateOwnDepartment(c *gin.Context) {
	actor, ok := resolveActor(c, h.directory)
	if !ok {
		return
	}

	var req struct {
		Department string `json:"department" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	profile, err := h.directory.UpdateOwnDepartment(actor, req.Department)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, profile)
}
