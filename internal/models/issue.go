// internal/models/issue.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type IssueReport struct {
	BaseModel
	ReportedByID uuid.UUID `json:"reported_by_id" gorm:"type:uuid;not null;index"`
	// SoftwareName is free text, deliberately not a foreign key: users report
	// issues against software that may not be in inventory.
	SoftwareName string      `json:"software_name" gorm:"size:100;not null"`
	IssueType    IssueType   `json:"issue_type" gorm:"type:varchar(20);not null"`
	Status       IssueStatus `json:"status" gorm:"type:varchar(20);default:'OPEN';not null;index"`
	Description  string      `json:"description" gorm:"type:text"`
	// ResolvedAt is stamped on the first transition into RESOLVED or CLOSED
	// and cleared if the issue is reopened.
	ResolvedAt *time.Time `json:"resolved_at"`

	ReportedBy User `json:"reported_by,omitempty" gorm:"foreignKey:ReportedByID"`
}

func (i *IssueReport) Resolved() bool {
	return i.Status == IssueStatusResolved || i.Status == IssueStatusClosed
}
