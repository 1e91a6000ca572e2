// internal/handlers/common.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/licensehub/licensehub-backend/internal/services"
	"github.com/licensehub/licensehub-backend/internal/utils"
)

// respondError maps the service error categories onto HTTP statuses.
// Anything outside the taxonomy is a 500 with a generic message; the
// wrapped detail stays in the logs, not the response.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		utils.BadRequestResponse(c, err.Error(), nil)
	case errors.Is(err, services.ErrForbidden):
		utils.ForbiddenResponse(c, err.Error())
	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, err.Error())
	case errors.Is(err, services.ErrInvalidState):
		utils.ErrorResponse(c, 409, "CONFLICT", err.Error(), nil)
	default:
		utils.InternalErrorResponse(c, "")
	}
}

// resolveActor builds the acting user's authorization context from the
// authenticated request.
func resolveActor(c *gin.Context, directory *services.DirectoryService) (*services.Actor, bool) {
	userIDStr, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.UnauthorizedResponse(c, "Invalid user ID in token")
		return nil, false
	}

	actor, err := directory.ResolveActor(userID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return actor, true
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid ID format", nil)
		return uuid.Nil, false
	}
	return id, true
}
