// internal/handlers/request_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/licensehub/licensehub-backend/internal/config"
	"github.com/licensehub/licensehub-backend/internal/models"
	"github.com/licensehub/licensehub-backend/internal/services"
)

type RequestHandlerTestSuite struct {
	suite.Suite
	db       *gorm.DB
	router   *gin.Engine
	requests *services.RequestService

	admin   *models.User
	member  *models.User
	pending *models.LicenseRequest
}

func (s *RequestHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)
	s.Require().NoError(db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.SoftwareApplication{},
		&models.LicenseRequest{},
		&models.Notification{},
	))
	s.db = db

	directory := services.NewDirectoryService(db, &config.Config{
		JWT: config.JWTConfig{SecretKey: "test-secret", AccessTokenTTL: 1, RefreshTokenTTL: 24},
	})
	inventory := services.NewInventoryService(db)
	notifications := services.NewNotificationService(db)
	s.requests = services.NewRequestService(db, inventory, notifications)
	handler := NewRequestHandler(s.requests, directory)

	s.admin = s.createUser("admin", models.RoleAdmin, "")
	s.member = s.createUser("member", models.RoleDeptHead, "Engineering")

	request, err := s.requests.CreateSelfRequest(&services.Actor{
		UserID:        s.member.ID,
		Username:      s.member.Username,
		Role:          models.RoleDeptHead,
		Department:    "Engineering",
		DepartmentKey: "engineering",
	}, &services.SelfRequestInput{SoftwareName: "Slack"})
	s.Require().NoError(err)
	s.pending = request

	s.router = gin.New()
	s.router.POST("/v1/requests/:id/resolve", s.asUser(), handler.Resolve)
}

func (s *RequestHandlerTestSuite) createUser(username string, role models.Role, department string) *models.User {
	user := &models.User{Username: username, Email: username + "@example.com"}
	s.Require().NoError(user.SetPassword("Str0ng!Pass"))
	s.Require().NoError(s.db.Create(user).Error)
	profile := &models.Profile{UserID: user.ID, Role: role}
	profile.SetDepartment(department)
	s.Require().NoError(s.db.Create(profile).Error)
	user.Profile = profile
	return user
}

// asUser injects the authenticated user ID the way the auth middleware
// does, keyed off the X-Test-User header.
func (s *RequestHandlerTestSuite) asUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", c.GetHeader("X-Test-User"))
		c.Next()
	}
}

func (s *RequestHandlerTestSuite) resolve(userID uuid.UUID, requestID uuid.UUID, action string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(gin.H{"action": action, "response": "reviewed"})
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/v1/requests/%s/resolve", requestID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", userID.String())

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RequestHandlerTestSuite) TestResolveSucceedsForAdmin() {
	w := s.resolve(s.admin.ID, s.pending.ID, "approve")
	s.Equal(http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.True(resp.Success)
	s.Equal("APPROVED", resp.Data.Status)
}

func (s *RequestHandlerTestSuite) TestResolveForbiddenForNonAdmin() {
	w := s.resolve(s.member.ID, s.pending.ID, "approve")
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *RequestHandlerTestSuite) TestResolveConflictWhenAlreadyProcessed() {
	s.Equal(http.StatusOK, s.resolve(s.admin.ID, s.pending.ID, "reject").Code)
	s.Equal(http.StatusConflict, s.resolve(s.admin.ID, s.pending.ID, "approve").Code)
}

func (s *RequestHandlerTestSuite) TestResolveNotFound() {
	w := s.resolve(s.admin.ID, uuid.New(), "approve")
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *RequestHandlerTestSuite) TestResolveBadAction() {
	w := s.resolve(s.admin.ID, s.pending.ID, "escalate")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RequestHandlerTestSuite) TestResolveBadIDFormat() {
	body, _ := json.Marshal(gin.H{"action": "approve"})
	req := httptest.NewRequest(http.MethodPost, "/v1/requests/not-a-uuid/resolve", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", s.admin.ID.String())

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusBadRequest, w.Code)
}

func TestRequestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(RequestHandlerTestSuite))
}
