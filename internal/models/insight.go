// internal/models/insight.go
package models

import (
	"github.com/lib/pq"
)

// AIRecommendation stores one run of the cost-optimization summary, along
// with the snapshot counters it was generated from.
type AIRecommendation struct {
	BaseModel
	RecommendationsText string         `json:"recommendations_text" gorm:"type:text;not null"`
	TotalRequests       int64          `json:"total_requests"`
	PendingRequests     int64          `json:"pending_requests"`
	ApprovedRequests    int64          `json:"approved_requests"`
	RejectedRequests    int64          `json:"rejected_requests"`
	FlaggedSoftware     pq.StringArray `json:"flagged_software" gorm:"type:text[]"`
}
