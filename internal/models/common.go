// internal/models/common.go
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Enums
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleDeptHead Role = "DEPT_HEAD"
	RoleUser     Role = "USER"
)

type RequestType string

const (
	RequestTypeGrant  RequestType = "GRANT"
	RequestTypeRevoke RequestType = "REVOKE"
)

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "PENDING"
	RequestStatusApproved RequestStatus = "APPROVED"
	RequestStatusRejected RequestStatus = "REJECTED"
)

// ApprovalLevel is the tier that must act next on a pending request.
type ApprovalLevel string

const (
	ApprovalLevelDeptHead ApprovalLevel = "DEPT_HEAD"
	ApprovalLevelAdmin    ApprovalLevel = "ADMIN"
)

type IssueType string

const (
	IssueTypeAccess         IssueType = "ACCESS_ISSUE"
	IssueTypePerformance    IssueType = "PERFORMANCE"
	IssueTypeBug            IssueType = "BUG"
	IssueTypeLicenseExpired IssueType = "LICENSE_EXPIRED"
	IssueTypeFeatureRequest IssueType = "FEATURE_REQUEST"
	IssueTypeOther          IssueType = "OTHER"
)

type IssueStatus string

const (
	IssueStatusOpen       IssueStatus = "OPEN"
	IssueStatusInProgress IssueStatus = "IN_PROGRESS"
	IssueStatusResolved   IssueStatus = "RESOLVED"
	IssueStatusClosed     IssueStatus = "CLOSED"
)

func ValidIssueType(t IssueType) bool {
	switch t {
	case IssueTypeAccess, IssueTypePerformance, IssueTypeBug,
		IssueTypeLicenseExpired, IssueTypeFeatureRequest, IssueTypeOther:
		return true
	}
	return false
}

func ValidIssueStatus(s IssueStatus) bool {
	switch s {
	case IssueStatusOpen, IssueStatusInProgress, IssueStatusResolved, IssueStatusClosed:
		return true
	}
	return false
}

// NormalizeDepartment produces the canonical key used for department
// comparisons. Display casing stays on the profile; all matching goes
// through this key.
func NormalizeDepartment(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeName is the case-insensitive lookup key for software names.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
