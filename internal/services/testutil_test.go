// internal/services/testutil_test.go
package services

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/licensehub/licensehub-backend/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.SoftwareApplication{},
		&models.LicenseRequest{},
		&models.IssueReport{},
		&models.AIRecommendation{},
		&models.AuditLog{},
		&models.Notification{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string, role models.Role, department string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
	}
	if err := user.SetPassword("Str0ng!Pass"); err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}

	profile := &models.Profile{
		UserID: user.ID,
		Role:   role,
	}
	profile.SetDepartment(department)
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("failed to create profile for %s: %v", username, err)
	}
	user.Profile = profile

	return user
}

func actorFor(user *models.User) *Actor {
	return &Actor{
		UserID:        user.ID,
		Username:      user.Username,
		Role:          user.Profile.Role,
		Department:    user.Profile.Department,
		DepartmentKey: user.Profile.DepartmentKey,
	}
}

func createTestSoftware(t *testing.T, db *gorm.DB, name string) *models.SoftwareApplication {
	t.Helper()

	software := &models.SoftwareApplication{
		Name:          name,
		NameKey:       models.NormalizeName(name),
		Vendor:        "Test Vendor",
		Category:      "Collaboration",
		TotalLicenses: 10,
	}
	if err := db.Create(software).Error; err != nil {
		t.Fatalf("failed to create software %s: %v", name, err)
	}
	return software
}
