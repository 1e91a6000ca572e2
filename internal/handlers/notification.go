// internal/handlers/notification.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/licensehub/licensehub-backend/internal/services"
	"github.com/licensehub/licensehub-backend/internal/utils"
)

type NotificationHandler struct {
	notifications *services.NotificationService
	directory     *services.DirectoryService
}

func NewNotificationHandler(notifications *services.NotificationService, directory *services.DirectoryService) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		directory:     directory,
	}
}

// GET /v1/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	actor, ok := resolveActor(c, h.directory)
	if !ok {
		return
	}

	unreadOnly := c.Query("unread") == "true"
	notifications, err := h.notifications.ListForUser(actor, unreadOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, notifications)
}

// PUT /v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor, ok := resolveActor(c, h.directory)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(actor, id); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"message": "Notification marked as read"})
}
