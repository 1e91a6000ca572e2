// internal/models/software.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type SoftwareApplication struct {
	BaseModel
	Name string `json:"name" gorm:"size:100;not null"`
	// NameKey is the case-insensitive lookup key; Name keeps display casing.
	NameKey       string          `json:"-" gorm:"size:100;uniqueIndex;not null"`
	Vendor        string          `json:"vendor" gorm:"size:100"`
	Category      string          `json:"category" gorm:"size:50"`
	TotalLicenses int             `json:"total_licenses" gorm:"not null"`
	MonthlyCost   decimal.Decimal `json:"monthly_cost" gorm:"type:decimal(10,2);not null"`
	RenewalDate   time.Time       `json:"renewal_date" gorm:"type:date"`
	Description   string          `json:"description" gorm:"type:text"`

	Requests []LicenseRequest `json:"requests,omitempty" gorm:"foreignKey:SoftwareID"`
}

// NewPlaceholderSoftware synthesizes an inventory record for a requested
// name with no existing match, so the approval workflow is never blocked
// on inventory data entry.
func NewPlaceholderSoftware(name string) *SoftwareApplication {
	return &SoftwareApplication{
		Name:          name,
		NameKey:       NormalizeName(name),
		Vendor:        "Unknown",
		Category:      "Uncategorized",
		TotalLicenses: 1,
		MonthlyCost:   decimal.Zero,
		RenewalDate:   time.Now().AddDate(1, 0, 0),
		Description:   "Auto-created from a license request. Update with real inventory data.",
	}
}
