// internal/handlers/issue.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/licensehub/licensehub-backend/internal/services"
	"github.com/licensehub/licensehub-backend/internal/utils"
)

type IssueHandler struct {
	issues    *services.IssueService
	directory *services.DirectoryService
}

func NewIssueHandler(issues *services.IssueService, directory *services.DirectoryService) *IssueHandler {
	return &IssueHandler{
		issues:    issues,
		directory: directory,
	}
}

// POST /v1/issues
func (h *IssueHandler) Create(c *gin.Context) {
	actor, ok := resolveActor(c, h.directory)
	if !ok {
		return
	}

	var req services.IssueInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	issue, err := h.issues.Create(actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, issue)
}

// GET /v1/issues/mine
func (h *IssueHandler) ListMine(c *gin.Context) {
	actor, ok := resolveActor(c, h.directory)
	if !ok {
		return
	}

	issues, err := h.issues.ListMine(actor)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, issues)
}

// GET /v1/issues/team
func (h *IssueHandler) ListTeam(c *gin.Context) {
	actor, ok := resolveActor(c, h.directory)
	if !ok {
		return
	}

	issues, err := h.issues.ListTeamIssues(actor)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, issues)
}

// GET /v1/issues
func (h *IssueHandler) ListAll(c *gin.Context) {
	actor, ok := resolveActor(c, h.directory)
	if !ok {
		return
	}

	issues, err := h.issues.ListAllIssues(actor)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, issues)
}

// PUT /v1/issues/:id/status
func (h *IssueHandler) UpdateStatus(c *gin.Context) {
	actor, ok := resolveActor(c, h.directory)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.IssueStatusInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	issue, err := h.issues.UpdateStatus(actor, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, issue)
}
