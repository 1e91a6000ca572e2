// internal/services/inventory_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/licensehub/licensehub-backend/internal/models"
	"github.com/licensehub/licensehub-backend/internal/utils"
)

// InventoryService owns the software catalog.
type InventoryService struct {
	db *gorm.DB
}

type SoftwareRequest struct {
	Name          string          `json:"name" validate:"required,max=100"`
	Vendor        string          `json:"vendor" validate:"max=100"`
	Category      string          `json:"category" validate:"max=50"`
	TotalLicenses int             `json:"total_licenses" validate:"gte=0"`
	MonthlyCost   decimal.Decimal `json:"monthly_cost"`
	RenewalDate   time.Time       `json:"renewal_date"`
	Description   string          `json:"description"`
}

type InventoryStats struct {
	TotalApplications int64           `json:"total_applications"`
	TotalLicenses     int64           `json:"total_licenses"`
	MonthlySpend      decimal.Decimal `json:"monthly_spend"`
	RenewalsDueSoon   int64           `json:"renewals_due_soon"`
}

func NewInventoryService(db *gorm.DB) *InventoryService {
	return &InventoryService{db: db}
}

func (s *InventoryService) CreateSoftware(actor *Actor, req *SoftwareRequest) (*models.SoftwareApplication, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins may manage inventory", ErrForbidden)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	key := models.NormalizeName(req.Name)
	var existing models.SoftwareApplication
	if err := s.db.Where("name_key = ?", key).First(&existing).Error; err == nil {
		return nil, fmt.Errorf("%w: software %q already exists", ErrValidation, existing.Name)
	}

	software := &models.SoftwareApplication{
		Name:          req.Name,
		NameKey:       key,
		Vendor:        req.Vendor,
		Category:      req.Category,
		TotalLicenses: req.TotalLicenses,
		MonthlyCost:   req.MonthlyCost,
		RenewalDate:   req.RenewalDate,
		Description:   req.Description,
	}
	if err := s.db.Create(software).Error; err != nil {
		return nil, fmt.Errorf("failed to create software: %w", err)
	}
	return software, nil
}

func (s *InventoryService) UpdateSoftware(actor *Actor, id uuid.UUID, req *SoftwareRequest) (*models.SoftwareApplication, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins may manage inventory", ErrForbidden)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	software, err := s.GetSoftware(id)
	if err != nil {
		return nil, err
	}

	software.Name = req.Name
	software.NameKey = models.NormalizeName(req.Name)
	software.Vendor = req.Vendor
	software.Category = req.Category
	software.TotalLicenses = req.TotalLicenses
	software.MonthlyCost = req.MonthlyCost
	software.RenewalDate = req.RenewalDate
	software.Description = req.Description

	if err := s.db.Save(software).Error; err != nil {
		return nil, fmt.Errorf("failed to update software: %w", err)
	}
	return software, nil
}

func (s *InventoryService) DeleteSoftware(actor *Actor, id uuid.UUID) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: only admins may manage inventory", ErrForbidden)
	}
	res := s.db.Delete(&models.SoftwareApplication{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete software: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: software", ErrNotFound)
	}
	return nil
}

func (s *InventoryService) GetSoftware(id uuid.UUID) (*models.SoftwareApplication, error) {
	var software models.SoftwareApplication
	if err := s.db.First(&software, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: software", ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &software, nil
}

// FindByName resolves a software record by case-insensitive name match.
// Returns (nil, nil) when there is no match.
func (s *InventoryService) FindByName(name string) (*models.SoftwareApplication, error) {
	var software models.SoftwareApplication
	err := s.db.Where("name_key = ?", models.NormalizeName(name)).First(&software).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &software, nil
}

// CreatePlaceholder synthesizes an inventory record so a license request
// for unknown software can proceed.
func (s *InventoryService) CreatePlaceholder(name string) (*models.SoftwareApplication, error) {
	software := models.NewPlaceholderSoftware(name)
	if err := s.db.Create(software).Error; err != nil {
		return nil, fmt.Errorf("failed to create placeholder software: %w", err)
	}
	return software, nil
}

func (s *InventoryService) ListSoftware(params utils.PaginationParams) ([]models.SoftwareApplication, int64, error) {
	query := s.db.Model(&models.SoftwareApplication{})
	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count software: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "name", "monthly_cost", "renewal_date"})
	query = utils.ApplyPagination(query, params)

	var software []models.SoftwareApplication
	if err := query.Find(&software).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch software: %w", err)
	}
	return software, total, nil
}

func (s *InventoryService) Stats(actor *Actor) (*InventoryStats, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins may view inventory stats", ErrForbidden)
	}

	stats := &InventoryStats{MonthlySpend: decimal.Zero}

	if err := s.db.Model(&models.SoftwareApplication{}).Count(&stats.TotalApplications).Error; err != nil {
		return nil, fmt.Errorf("failed to count applications: %w", err)
	}

	var totals struct {
		Licenses int64
		Spend    decimal.Decimal
	}
	err := s.db.Model(&models.SoftwareApplication{}).
		Select("COALESCE(SUM(total_licenses), 0) AS licenses, COALESCE(SUM(monthly_cost), 0) AS spend").
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum inventory: %w", err)
	}
	stats.TotalLicenses = totals.Licenses
	stats.MonthlySpend = totals.Spend

	cutoff := time.Now().AddDate(0, 0, 30)
	err = s.db.Model(&models.SoftwareApplication{}).
		Where("renewal_date <= ?", cutoff).
		Count(&stats.RenewalsDueSoon).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count renewals: %w", err)
	}

	return stats, nil
}
