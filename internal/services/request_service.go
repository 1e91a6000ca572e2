// internal/services/request_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/licensehub/licensehub-backend/internal/models"
	"github.com/licensehub/licensehub-backend/internal/utils"
)

// RequestService owns every LicenseRequest status and approval-level
// transition. Requests flow from a submitter, optionally through the
// department-head tier, to an admin who resolves them.
type RequestService struct {
	db            *gorm.DB
	inventory     *InventoryService
	notifications *NotificationService
}

type SelfRequestInput struct {
	SoftwareName string `json:"software_name" validate:"required,max=100"`
	Reason       string `json:"reason"`
}

type DirectedRequestInput struct {
	UserID       uuid.UUID          `json:"user_id" validate:"required"`
	SoftwareName string             `json:"software_name" validate:"required,max=100"`
	RequestType  models.RequestType `json:"request_type" validate:"required"`
	Reason       string             `json:"reason"`
}

type ResolveInput struct {
	Action   string `json:"action" validate:"required"`
	Response string `json:"response"`
}

type RequestStats struct {
	Total           int64    `json:"total"`
	Pending         int64    `json:"pending"`
	Approved        int64    `json:"approved"`
	Rejected        int64    `json:"rejected"`
	MostRequested   []string `json:"most_requested"`
	RevokeRequested []string `json:"revoke_requested"`
}

func NewRequestService(db *gorm.DB, inventory *InventoryService, notifications *NotificationService) *RequestService {
	return &RequestService{
		db:            db,
		inventory:     inventory,
		notifications: notifications,
	}
}

// CreateSelfRequest files a GRANT request for the actor themselves. Unknown
// software is synthesized as a placeholder record rather than blocking the
// workflow on inventory data entry. The initial approval level depends on
// who submits: regular users start at their department head, department
// heads and admins go straight to the admin queue.
func (s *RequestService) CreateSelfRequest(actor *Actor, in *SelfRequestInput) (*models.LicenseRequest, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	software, err := s.inventory.FindByName(in.SoftwareName)
	if err != nil {
		return nil, err
	}
	if software == nil {
		software, err = s.inventory.CreatePlaceholder(in.SoftwareName)
		if err != nil {
			return nil, err
		}
	}

	level := models.ApprovalLevelDeptHead
	if actor.IsDeptHead() || actor.IsAdmin() {
		level = models.ApprovalLevelAdmin
	}

	request := &models.LicenseRequest{
		RequestType:   models.RequestTypeGrant,
		Status:        models.RequestStatusPending,
		ApprovalLevel: level,
		UserID:        actor.UserID,
		SoftwareID:    software.ID,
		RequestedByID: actor.UserID,
		Reason:        in.Reason,
	}
	if err := s.db.Create(request).Error; err != nil {
		return nil, fmt.Errorf("failed to create license request: %w", err)
	}

	s.db.Preload("User.Profile").Preload("Software").Preload("RequestedBy").First(request, "id = ?", request.ID)

	go s.notifications.NotifyRequestSubmitted(request)

	return request, nil
}

// CreateDirectedRequest files a GRANT or REVOKE on behalf of a team member.
// These requests always land directly in the admin queue; the software must
// already exist in inventory -- no placeholder synthesis on this path, since
// directed requests are assumed to reference known inventory.
func (s *RequestService) CreateDirectedRequest(actor *Actor, in *DirectedRequestInput) (*models.LicenseRequest, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if in.RequestType != models.RequestTypeGrant && in.RequestType != models.RequestTypeRevoke {
		return nil, fmt.Errorf("%w: invalid request type %q", ErrValidation, in.RequestType)
	}
	if !actor.IsDeptHead() && !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only department heads and admins may request on behalf of others", ErrForbidden)
	}

	var target models.User
	if err := s.db.Preload("Profile").First(&target, "id = ?", in.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if actor.IsDeptHead() && !actor.SameDepartment(target.Profile) {
		return nil, fmt.Errorf("%w: %s is not in your department", ErrForbidden, target.Username)
	}

	software, err := s.inventory.FindByName(in.SoftwareName)
	if err != nil {
		return nil, err
	}
	if software == nil {
		return nil, fmt.Errorf("%w: software %q", ErrNotFound, in.SoftwareName)
	}

	request := &models.LicenseRequest{
		RequestType:   in.RequestType,
		Status:        models.RequestStatusPending,
		ApprovalLevel: models.ApprovalLevelAdmin,
		UserID:        target.ID,
		SoftwareID:    software.ID,
		RequestedByID: actor.UserID,
		Reason:        in.Reason,
	}
	if err := s.db.Create(request).Error; err != nil {
		return nil, fmt.Errorf("failed to create license request: %w", err)
	}

	s.db.Preload("User.Profile").Preload("Software").Preload("RequestedBy").First(request, "id = ?", request.ID)

	go s.notifications.NotifyRequestSubmitted(request)

	return request, nil
}

// Forward moves a pending request from the department-head tier to the
// admin tier. The first forward records the original requester; repeated
// forwards never overwrite that provenance. Comments are appended to the
// reason with a visible marker.
func (s *RequestService) Forward(actor *Actor, requestID uuid.UUID, comments string) (*models.LicenseRequest, error) {
	if !actor.IsDeptHead() {
		return nil, fmt.Errorf("%w: only department heads may forward requests", ErrForbidden)
	}

	var request models.LicenseRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("User.Profile").First(&request, "id = ?", requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: license request", ErrNotFound)
			}
			return fmt.Errorf("database error: %w", err)
		}

		if request.Terminal() {
			return fmt.Errorf("%w: request already %s", ErrInvalidState, strings.ToLower(string(request.Status)))
		}
		if request.ApprovalLevel != models.ApprovalLevelDeptHead {
			return fmt.Errorf("%w: request is already at the admin tier", ErrInvalidState)
		}
		if !actor.SameDepartment(request.User.Profile) {
			return fmt.Errorf("%w: request belongs to another department", ErrForbidden)
		}

		updates := map[string]interface{}{
			"approval_level":  models.ApprovalLevelAdmin,
			"requested_by_id": actor.UserID,
		}
		if request.OriginalRequesterID == nil {
			updates["original_requester_id"] = request.RequestedByID
		}
		if comments != "" {
			updates["reason"] = request.Reason + "\n\n--- Forwarded by " + actor.Username + " ---\n" + comments
		}

		// The guard repeats the state checks so a concurrent transition
		// cannot slip in between the read and the write.
		res := tx.Model(&models.LicenseRequest{}).
			Where("id = ? AND status = ? AND approval_level = ?",
				requestID, models.RequestStatusPending, models.ApprovalLevelDeptHead).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("failed to forward request: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: request was processed concurrently", ErrInvalidState)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.db.Preload("User.Profile").Preload("Software").Preload("RequestedBy").
		Preload("OriginalRequester").First(&request, "id = ?", requestID)

	go s.notifications.NotifyRequestForwarded(&request)

	return &request, nil
}

// Resolve approves or rejects a request sitting in the admin queue. The
// terminal write is a conditional update so two concurrent resolutions
// cannot both land; the loser gets an InvalidState error.
func (s *RequestService) Resolve(actor *Actor, requestID uuid.UUID, in *ResolveInput) (*models.LicenseRequest, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var status models.RequestStatus
	switch in.Action {
	case "approve":
		status = models.RequestStatusApproved
	case "reject":
		status = models.RequestStatusRejected
	default:
		return nil, fmt.Errorf("%w: action must be approve or reject", ErrValidation)
	}

	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins may resolve requests", ErrForbidden)
	}

	var request models.LicenseRequest
	if err := s.db.First(&request, "id = ?", requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: license request", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if request.Terminal() {
		return nil, fmt.Errorf("%w: request already %s", ErrInvalidState, strings.ToLower(string(request.Status)))
	}
	if request.ApprovalLevel != models.ApprovalLevelAdmin {
		return nil, fmt.Errorf("%w: request has not been forwarded to the admin tier yet", ErrInvalidState)
	}

	res := s.db.Model(&models.LicenseRequest{}).
		Where("id = ? AND status = ? AND approval_level = ?",
			requestID, models.RequestStatusPending, models.ApprovalLevelAdmin).
		Updates(map[string]interface{}{
			"status":         status,
			"admin_response": in.Response,
			"reviewed_by_id": actor.UserID,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to resolve request: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: request was processed concurrently", ErrInvalidState)
	}

	s.db.Preload("User.Profile").Preload("Software").Preload("RequestedBy").
		Preload("OriginalRequester").Preload("ReviewedBy").First(&request, "id = ?", requestID)

	go s.notifications.NotifyRequestResolved(&request)

	return &request, nil
}

// ListPendingForAdmin returns the admin queue, newest first.
func (s *RequestService) ListPendingForAdmin(actor *Actor) ([]models.LicenseRequest, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins may view the admin queue", ErrForbidden)
	}

	var requests []models.LicenseRequest
	err := s.db.Preload("User.Profile").Preload("Software").
		Preload("RequestedBy.Profile").Preload("OriginalRequester").
		Where("status = ? AND approval_level = ?", models.RequestStatusPending, models.ApprovalLevelAdmin).
		Order("created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending requests: %w", err)
	}
	return requests, nil
}

// ListPendingForDeptHead returns the department head's queue: pending
// requests at the department-head tier from USER-role members of their own
// department, newest first.
func (s *RequestService) ListPendingForDeptHead(actor *Actor) ([]models.LicenseRequest, error) {
	if !actor.IsDeptHead() {
		return nil, fmt.Errorf("%w: only department heads have a team queue", ErrForbidden)
	}

	var requests []models.LicenseRequest
	err := s.db.Preload("User.Profile").Preload("Software").Preload("RequestedBy").
		Joins("JOIN profiles ON profiles.user_id = license_requests.user_id").
		Where("license_requests.status = ? AND license_requests.approval_level = ?",
			models.RequestStatusPending, models.ApprovalLevelDeptHead).
		Where("profiles.department_key = ? AND profiles.role = ?", actor.DepartmentKey, models.RoleUser).
		Order("license_requests.created_at DESC").
		Find(&requests).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch team requests: %w", err)
	}
	return requests, nil
}

// AllocatedLicenses derives a user's effective licenses: distinct software
// with an APPROVED GRANT, minus software whose most recent approved action
// is a REVOKE. The set is recomputed on every call and never stored, so it
// cannot diverge from the request history.
func (s *RequestService) AllocatedLicenses(userID uuid.UUID) ([]models.SoftwareApplication, error) {
	var resolved []models.LicenseRequest
	err := s.db.Preload("Software").
		Where("user_id = ? AND status = ?", userID, models.RequestStatusApproved).
		Order("updated_at ASC").
		Find(&resolved).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch approved requests: %w", err)
	}

	// Later approvals win per software, so an approved REVOKE supersedes
	// the GRANT it targets.
	latest := make(map[uuid.UUID]models.RequestType)
	software := make(map[uuid.UUID]models.SoftwareApplication)
	for _, r := range resolved {
		latest[r.SoftwareID] = r.RequestType
		software[r.SoftwareID] = r.Software
	}

	var allocated []models.SoftwareApplication
	for id, t := range latest {
		if t == models.RequestTypeGrant {
			allocated = append(allocated, software[id])
		}
	}
	return allocated, nil
}

// Stats feeds dashboards and the optimization agent.
func (s *RequestService) Stats() (*RequestStats, error) {
	stats := &RequestStats{}

	model := s.db.Model(&models.LicenseRequest{})
	if err := model.Count(&stats.Total).Error; err != nil {
		return nil, fmt.Errorf("failed to count requests: %w", err)
	}
	for status, dest := range map[models.RequestStatus]*int64{
		models.RequestStatusPending:  &stats.Pending,
		models.RequestStatusApproved: &stats.Approved,
		models.RequestStatusRejected: &stats.Rejected,
	} {
		if err := s.db.Model(&models.LicenseRequest{}).Where("status = ?", status).Count(dest).Error; err != nil {
			return nil, fmt.Errorf("failed to count %s requests: %w", status, err)
		}
	}

	type nameCount struct {
		Name  string
		Count int64
	}
	var top []nameCount
	err := s.db.Model(&models.LicenseRequest{}).
		Select("software_applications.name AS name, COUNT(license_requests.id) AS count").
		Joins("JOIN software_applications ON software_applications.id = license_requests.software_id").
		Where("license_requests.request_type = ?", models.RequestTypeGrant).
		Group("software_applications.name").
		Order("count DESC").
		Limit(5).
		Scan(&top).Error
	if err != nil {
		return nil, fmt.Errorf("failed to rank requested software: %w", err)
	}
	for _, row := range top {
		stats.MostRequested = append(stats.MostRequested, row.Name)
	}

	var revoked []nameCount
	err = s.db.Model(&models.LicenseRequest{}).
		Select("software_applications.name AS name, COUNT(license_requests.id) AS count").
		Joins("JOIN software_applications ON software_applications.id = license_requests.software_id").
		Where("license_requests.request_type = ?", models.RequestTypeRevoke).
		Group("software_applications.name").
		Order("count DESC").
		Scan(&revoked).Error
	if err != nil {
		return nil, fmt.Errorf("failed to rank revoke requests: %w", err)
	}
	for _, row := range revoked {
		stats.RevokeRequested = append(stats.RevokeRequested, row.Name)
	}

	return stats, nil
}
