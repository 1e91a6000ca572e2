// internal/services/notification_service.go
package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/licensehub/licensehub-backend/internal/models"
)

// NotificationService writes in-app notification records. Callers invoke it
// from fire-and-forget goroutines; a failed notification is logged and
// dropped, never allowed to fail the request that triggered it.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// NotifyRequestSubmitted routes a new request's notice to whoever has to act
// on it: the department head for requests at the department tier, every
// admin for requests that land directly in the admin queue.
func (s *NotificationService) NotifyRequestSubmitted(request *models.LicenseRequest) {
	title := "New license request"
	message := fmt.Sprintf("%s requested %s of %s",
		request.RequestedBy.Username,
		strings.ToLower(string(request.RequestType)),
		request.Software.Name)

	if request.ApprovalLevel == models.ApprovalLevelDeptHead {
		if request.User.Profile == nil {
			return
		}
		s.notifyDepartmentHead(request.User.Profile.DepartmentKey, "request_submitted", title, message, request.ID)
		return
	}
	s.notifyAdmins("request_submitted", title, message, request.ID)
}

func (s *NotificationService) NotifyRequestForwarded(request *models.LicenseRequest) {
	message := fmt.Sprintf("%s forwarded a %s request for %s",
		request.RequestedBy.Username,
		strings.ToLower(string(request.RequestType)),
		request.Software.Name)
	s.notifyAdmins("request_forwarded", "Request forwarded for approval", message, request.ID)
}

// NotifyRequestResolved tells the license holder, and the original
// requester when a forward separated the two.
func (s *NotificationService) NotifyRequestResolved(request *models.LicenseRequest) {
	title := fmt.Sprintf("Request %s", strings.ToLower(string(request.Status)))
	message := fmt.Sprintf("Your %s request for %s was %s",
		strings.ToLower(string(request.RequestType)),
		request.Software.Name,
		strings.ToLower(string(request.Status)))
	if request.AdminResponse != "" {
		message += ": " + request.AdminResponse
	}

	s.create(request.UserID, "request_resolved", title, message, request.ID)
	if request.OriginalRequesterID != nil && *request.OriginalRequesterID != request.UserID {
		s.create(*request.OriginalRequesterID, "request_resolved", title, message, request.ID)
	}
}

// ListForUser returns the recipient's notifications, newest first.
func (s *NotificationService) ListForUser(actor *Actor, unreadOnly bool) ([]models.Notification, error) {
	query := s.db.Where("recipient_id = ?", actor.UserID)
	if unreadOnly {
		query = query.Where("read_at IS NULL")
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC").Limit(50).Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	return notifications, nil
}

func (s *NotificationService) MarkRead(actor *Actor, id uuid.UUID) error {
	res := s.db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ? AND read_at IS NULL", id, actor.UserID).
		Update("read_at", gorm.Expr("CURRENT_TIMESTAMP"))
	if res.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: notification", ErrNotFound)
	}
	return nil
}

func (s *NotificationService) notifyAdmins(ntype, title, message string, requestID uuid.UUID) {
	var admins []models.Profile
	if err := s.db.Where("role = ?", models.RoleAdmin).Find(&admins).Error; err != nil {
		logrus.WithError(err).Warn("failed to load admin profiles for notification")
		return
	}
	for _, admin := range admins {
		s.create(admin.UserID, ntype, title, message, requestID)
	}
}

func (s *NotificationService) notifyDepartmentHead(departmentKey, ntype, title, message string, requestID uuid.UUID) {
	if departmentKey == "" {
		return
	}
	var head models.Profile
	err := s.db.Where("role = ? AND department_key = ?", models.RoleDeptHead, departmentKey).First(&head).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logrus.WithError(err).Warn("failed to load department head for notification")
		}
		return
	}
	s.create(head.UserID, ntype, title, message, requestID)
}

func (s *NotificationService) create(recipientID uuid.UUID, ntype, title, message string, requestID uuid.UUID) {
	notification := &models.Notification{
		RecipientID: recipientID,
		Type:        ntype,
		Title:       title,
		Message:     message,
		RequestID:   &requestID,
	}
	if err := s.db.Create(notification).Error; err != nil {
		logrus.WithError(err).WithField("recipient_id", recipientID).Warn("failed to create notification")
	}
}
