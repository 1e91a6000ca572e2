// internal/services/issue_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/licensehub/licensehub-backend/internal/models"
	"github.com/licensehub/licensehub-backend/internal/utils"
)

// IssueService owns the issue tracker. Issues reference software by free
// text, not inventory ID, so reports about software outside the catalog are
// still possible.
type IssueService struct {
	db *gorm.DB
}

type IssueInput struct {
	SoftwareName string           `json:"software_name" validate:"required,max=100"`
	IssueType    models.IssueType `json:"issue_type" validate:"required"`
	Description  string           `json:"description" validate:"required"`
}

type IssueStatusInput struct {
	Status models.IssueStatus `json:"status" validate:"required"`
}

func NewIssueService(db *gorm.DB) *IssueService {
	return &IssueService{db: db}
}

func (s *IssueService) Create(actor *Actor, in *IssueInput) (*models.IssueReport, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !models.ValidIssueType(in.IssueType) {
		return nil, fmt.Errorf("%w: unknown issue type %q", ErrValidation, in.IssueType)
	}

	issue := &models.IssueReport{
		ReportedByID: actor.UserID,
		SoftwareName: in.SoftwareName,
		IssueType:    in.IssueType,
		Status:       models.IssueStatusOpen,
		Description:  in.Description,
	}
	if err := s.db.Create(issue).Error; err != nil {
		return nil, fmt.Errorf("failed to create issue: %w", err)
	}

	s.db.Preload("ReportedBy.Profile").First(issue, "id = ?", issue.ID)
	return issue, nil
}

// ListMine returns the actor's own reports, any status.
func (s *IssueService) ListMine(actor *Actor) ([]models.IssueReport, error) {
	var issues []models.IssueReport
	err := s.db.Where("reported_by_id = ?", actor.UserID).
		Order("created_at DESC").
		Find(&issues).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch issues: %w", err)
	}
	return issues, nil
}

// ListTeamIssues returns active issues reported by USER-role members of the
// department head's department.
func (s *IssueService) ListTeamIssues(actor *Actor) ([]models.IssueReport, error) {
	if !actor.IsDeptHead() {
		return nil, fmt.Errorf("%w: only department heads have a team issue view", ErrForbidden)
	}

	var issues []models.IssueReport
	err := s.db.Preload("ReportedBy.Profile").
		Joins("JOIN profiles ON profiles.user_id = issue_reports.reported_by_id").
		Where("issue_reports.status IN ?", []models.IssueStatus{models.IssueStatusOpen, models.IssueStatusInProgress}).
		Where("profiles.department_key = ? AND profiles.role = ?", actor.DepartmentKey, models.RoleUser).
		Order("issue_reports.created_at DESC").
		Find(&issues).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch team issues: %w", err)
	}
	return issues, nil
}

// ListAllIssues returns every active issue for admins.
func (s *IssueService) ListAllIssues(actor *Actor) ([]models.IssueReport, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins may list all issues", ErrForbidden)
	}

	var issues []models.IssueReport
	err := s.db.Preload("ReportedBy.Profile").
		Where("status IN ?", []models.IssueStatus{models.IssueStatusOpen, models.IssueStatusInProgress}).
		Order("created_at DESC").
		Find(&issues).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch issues: %w", err)
	}
	return issues, nil
}

// UpdateStatus moves an issue through its lifecycle. Admins may touch any
// issue; department heads only issues reported within their own department.
// ResolvedAt is stamped on entry into a resolved state and cleared again if
// the issue is reopened, so it always reflects the latest resolution.
func (s *IssueService) UpdateStatus(actor *Actor, issueID uuid.UUID, in *IssueStatusInput) (*models.IssueReport, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !models.ValidIssueStatus(in.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, in.Status)
	}

	if !actor.IsAdmin() && !actor.IsDeptHead() {
		return nil, fmt.Errorf("%w: only admins and department heads may update issues", ErrForbidden)
	}

	var issue models.IssueReport
	if err := s.db.Preload("ReportedBy.Profile").First(&issue, "id = ?", issueID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: issue", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !actor.IsAdmin() && !actor.SameDepartment(issue.ReportedBy.Profile) {
		return nil, fmt.Errorf("%w: issue belongs to another department", ErrForbidden)
	}

	wasResolved := issue.Resolved()
	issue.Status = in.Status
	if issue.Resolved() && !wasResolved {
		now := time.Now()
		issue.ResolvedAt = &now
	} else if !issue.Resolved() {
		issue.ResolvedAt = nil
	}

	if err := s.db.Save(&issue).Error; err != nil {
		return nil, fmt.Errorf("failed to update issue: %w", err)
	}
	return &issue, nil
}
