// internal/models/request.go
package models

import (
	"github.com/google/uuid"
)

// LicenseRequest is the unit of work of the approval workflow. Status is
// monotonic: once APPROVED or REJECTED nothing mutates the row again.
// ApprovalLevel only ever moves DEPT_HEAD -> ADMIN, via Forward.
type LicenseRequest struct {
	BaseModel
	RequestType   RequestType   `json:"request_type" gorm:"type:varchar(10);not null"`
	Status        RequestStatus `json:"status" gorm:"type:varchar(10);default:'PENDING';not null;index"`
	ApprovalLevel ApprovalLevel `json:"approval_level" gorm:"type:varchar(10);not null;index"`

	// UserID is who the license is for; RequestedByID is who submitted.
	UserID        uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	SoftwareID    uuid.UUID `json:"software_id" gorm:"type:uuid;not null;index"`
	RequestedByID uuid.UUID `json:"requested_by_id" gorm:"type:uuid;not null;index"`

	// OriginalRequesterID preserves provenance across forwards: it is set on
	// the first forward only and never overwritten.
	OriginalRequesterID *uuid.UUID `json:"original_requester_id" gorm:"type:uuid"`

	Reason        string     `json:"reason" gorm:"type:text"`
	AdminResponse string     `json:"admin_response" gorm:"type:text"`
	ReviewedByID  *uuid.UUID `json:"reviewed_by_id" gorm:"type:uuid"`

	User              User                `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Software          SoftwareApplication `json:"software,omitempty" gorm:"foreignKey:SoftwareID"`
	RequestedBy       User                `json:"requested_by,omitempty" gorm:"foreignKey:RequestedByID"`
	OriginalRequester *User               `json:"original_requester,omitempty" gorm:"foreignKey:OriginalRequesterID"`
	ReviewedBy        *User               `json:"reviewed_by,omitempty" gorm:"foreignKey:ReviewedByID"`
}

func (r *LicenseRequest) Terminal() bool {
	return r.Status == RequestStatusApproved || r.Status == RequestStatusRejected
}
