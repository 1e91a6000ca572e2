// internal/services/stats_service.go
package services

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/licensehub/licensehub-backend/internal/models"
)

// StatsService aggregates dashboard numbers. Counts and sums only; anything
// heavier belongs to the owning service.
type StatsService struct {
	db *gorm.DB
}

type DashboardStats struct {
	TotalUsers        int64           `json:"total_users"`
	TotalApplications int64           `json:"total_applications"`
	PendingRequests   int64           `json:"pending_requests"`
	ApprovedRequests  int64           `json:"approved_requests"`
	RejectedRequests  int64           `json:"rejected_requests"`
	OpenIssues        int64           `json:"open_issues"`
	MonthlySpend      decimal.Decimal `json:"monthly_spend"`
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

func (s *StatsService) Dashboard(actor *Actor) (*DashboardStats, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins may view dashboard stats", ErrForbidden)
	}

	stats := &DashboardStats{MonthlySpend: decimal.Zero}

	counts := []struct {
		query *gorm.DB
		dest  *int64
	}{
		{s.db.Model(&models.User{}), &stats.TotalUsers},
		{s.db.Model(&models.SoftwareApplication{}), &stats.TotalApplications},
		{s.db.Model(&models.LicenseRequest{}).Where("status = ?", models.RequestStatusPending), &stats.PendingRequests},
		{s.db.Model(&models.LicenseRequest{}).Where("status = ?", models.RequestStatusApproved), &stats.ApprovedRequests},
		{s.db.Model(&models.LicenseRequest{}).Where("status = ?", models.RequestStatusRejected), &stats.RejectedRequests},
		{s.db.Model(&models.IssueReport{}).Where("status IN ?",
			[]models.IssueStatus{models.IssueStatusOpen, models.IssueStatusInProgress}), &stats.OpenIssues},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to aggregate stats: %w", err)
		}
	}

	var spend struct {
		Spend decimal.Decimal
	}
	err := s.db.Model(&models.SoftwareApplication{}).
		Select("COALESCE(SUM(monthly_cost), 0) AS spend").
		Scan(&spend).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum monthly spend: %w", err)
	}
	stats.MonthlySpend = spend.Spend

	return stats, nil
}
