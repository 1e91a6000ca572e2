// internal/handlers/request.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/licensehub/licensehub-backend/internal/services"
	"github.com/licensehub/licensehub-backend/internal/utils"
)

type RequestHandler struct {
	requests  *services.RequestService
	directory *services.DirectoryService
}

func NewRequestHandler(requests *services.RequestService, directory *services.DirectoryService) *RequestHandler {
	return &RequestHandler{
		requests:  requests,
		directory: directory,
	}
}

// POST /v1/requests
func (h *RequestHandler) CreateSelfRequest(c *gin.Context) {
	actor, ok := resolveActor(c, h.directory)
	if !ok {
		return
	}

	var req services.SelfRequestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	request, err := h.requests.CreateSelfRequest(actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, request)
}

// POST /v1/requests/directed
func (h *RequestHandler) CreateDirectedRequest(c *gin.Context) {
	actor, ok := resolveActor(c, h.directory)
	if !ok {
		return
	}

	var req services.DirectedRequestInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	request, err := h.requests.CreateDirectedRequest(actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, request)
}

// POST /v1/requests/:id/forward
func (h *RequestHandler) Forward(c *gin.Context) {
	actor, ok := resolveActor(c, h.directory)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Comments string `json:"comments"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	request, err := h.requests.Forward(actor, id, req.Comments)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, request)
}

// POST /v1/requests/:id/resolve
func (h *RequestHandler) Resolve(c *gin.Context) {
	actor, ok := resolveActor(c, h.directory)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.ResolveInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request body", err.Error())
		return
	}

	request, err := h.requests.Resolve(actor, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, request)
}

// GET /v1/requests/pending
func (h *RequestHandler) ListPendingForAdmin(c *gin.Context) {
	actor, ok := resolveActor(c, h.directory)
	if !ok {
		return
	}

	requests, err := h.requests.ListPendingForAdmin(actor)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, requests)
}

// GET /v1/requests/team
func (h *RequestHandler) ListPendingForTeam(c *gin.Context) {
	actor, ok := resolveActor(c, h.directory)
	if !ok {
		return
	}

	requests, err := h.requests.ListPendingForDeptHead(actor)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, requests)
}

// GET /v1/requests/my-licenses
func (h *RequestHandler) MyLicenses(c *gin.Context) {
	actor, ok := resolveActor(c, h.directory)
	if !ok {
		return
	}

	licenses, err := h.requests.AllocatedLicenses(actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, licenses)
}
