// internal/services/insights_service_test.go
package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/licensehub/licensehub-backend/internal/models"
)

type stubGenerator struct {
	reply      string
	err        error
	lastPrompt string
}

func (g *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.lastPrompt = prompt
	return g.reply, g.err
}

type InsightsServiceTestSuite struct {
	suite.Suite
	db        *gorm.DB
	insights  *InsightsService
	generator *stubGenerator
	admin     *models.User
	member    *models.User
}

func (s *InsightsServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	inventory := NewInventoryService(s.db)
	requests := NewRequestService(s.db, inventory, NewNotificationService(s.db))
	s.generator = &stubGenerator{reply: "Consolidate Zoom and Slack."}
	s.insights = NewInsightsService(s.db, requests, inventory, s.generator)

	s.admin = createTestUser(s.T(), s.db, "admin", models.RoleAdmin, "")
	s.member = createTestUser(s.T(), s.db, "member", models.RoleUser, "Engineering")
	createTestSoftware(s.T(), s.db, "Slack")
}

func (s *InsightsServiceTestSuite) TestRunPersistsRecommendationWithSnapshot() {
	recommendation, err := s.insights.Run(context.Background(), actorFor(s.admin))
	s.Require().NoError(err)
	s.Equal("Consolidate Zoom and Slack.", recommendation.RecommendationsText)
	s.True(strings.Contains(s.generator.lastPrompt, "Slack"))

	latest, err := s.insights.Latest(actorFor(s.admin), 10)
	s.Require().NoError(err)
	s.Require().Len(latest, 1)
	s.Equal(recommendation.ID, latest[0].ID)
}

func (s *InsightsServiceTestSuite) TestRunAdminOnly() {
	_, err := s.insights.Run(context.Background(), actorFor(s.member))
	s.ErrorIs(err, ErrForbidden)

	_, err = s.insights.Latest(actorFor(s.member), 10)
	s.ErrorIs(err, ErrForbidden)
}

func (s *InsightsServiceTestSuite) TestRunSurfacesGeneratorFailure() {
	s.generator.err = errors.New("upstream timeout")

	_, err := s.insights.Run(context.Background(), actorFor(s.admin))
	s.Error(err)

	var count int64
	s.db.Model(&models.AIRecommendation{}).Count(&count)
	s.Equal(int64(0), count)
}

func (s *InsightsServiceTestSuite) TestRunWithoutGeneratorConfigured() {
	unconfigured := NewInsightsService(s.db, nil, nil, nil)
	_, err := unconfigured.Run(context.Background(), actorFor(s.admin))
	s.ErrorIs(err, ErrInvalidState)
}

func TestInsightsServiceTestSuite(t *testing.T) {
	suite.Run(t, new(InsightsServiceTestSuite))
}
