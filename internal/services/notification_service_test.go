// internal/services/notification_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/licensehub/licensehub-backend/internal/models"
)

type NotificationServiceTestSuite struct {
	suite.Suite
	db            *gorm.DB
	notifications *NotificationService
	requests      *RequestService
	admin         *models.User
	engHead       *models.User
	engUser       *models.User
}

func (s *NotificationServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	s.notifications = NewNotificationService(s.db)
	s.requests = NewRequestService(s.db, NewInventoryService(s.db), s.notifications)

	s.admin = createTestUser(s.T(), s.db, "admin", models.RoleAdmin, "")
	s.engHead = createTestUser(s.T(), s.db, "eng_head", models.RoleDeptHead, "Engineering")
	s.engUser = createTestUser(s.T(), s.db, "eng_user", models.RoleUser, "Engineering")
	createTestSoftware(s.T(), s.db, "Slack")
}

// submittedRequest builds a fully loaded request for direct notification
// calls, bypassing the async goroutines the service normally uses.
func (s *NotificationServiceTestSuite) submittedRequest(actor *Actor) *models.LicenseRequest {
	request, err := s.requests.CreateSelfRequest(actor, &SelfRequestInput{SoftwareName: "Slack"})
	s.Require().NoError(err)

	var loaded models.LicenseRequest
	s.Require().NoError(s.db.Preload("User.Profile").Preload("Software").
		Preload("RequestedBy").First(&loaded, "id = ?", request.ID).Error)
	return &loaded
}

func (s *NotificationServiceTestSuite) TestSubmissionRoutesToDepartmentHead() {
	request := s.submittedRequest(actorFor(s.engUser))
	s.notifications.NotifyRequestSubmitted(request)

	headInbox, err := s.notifications.ListForUser(actorFor(s.engHead), false)
	s.Require().NoError(err)

	found := false
	for _, n := range headInbox {
		if n.Type == "request_submitted" && n.RequestID != nil && *n.RequestID == request.ID {
			found = true
		}
	}
	s.True(found, "department head should be notified of a team submission")
}

func (s *NotificationServiceTestSuite) TestSubmissionAtAdminTierRoutesToAdmins() {
	request := s.submittedRequest(actorFor(s.engHead))
	s.notifications.NotifyRequestSubmitted(request)

	adminInbox, err := s.notifications.ListForUser(actorFor(s.admin), true)
	s.Require().NoError(err)
	s.NotEmpty(adminInbox)
}

func (s *NotificationServiceTestSuite) TestResolutionNotifiesHolderAndOriginalRequester() {
	request := s.submittedRequest(actorFor(s.engUser))

	_, err := s.requests.Forward(actorFor(s.engHead), request.ID, "")
	s.Require().NoError(err)
	resolved, err := s.requests.Resolve(actorFor(s.admin), request.ID, &ResolveInput{Action: "approve"})
	s.Require().NoError(err)

	s.notifications.NotifyRequestResolved(resolved)

	userInbox, err := s.notifications.ListForUser(actorFor(s.engUser), false)
	s.Require().NoError(err)

	found := false
	for _, n := range userInbox {
		if n.Type == "request_resolved" {
			found = true
		}
	}
	s.True(found, "license holder should be notified of resolution")
}

func (s *NotificationServiceTestSuite) TestMarkRead() {
	request := s.submittedRequest(actorFor(s.engHead))
	s.notifications.NotifyRequestSubmitted(request)

	inbox, err := s.notifications.ListForUser(actorFor(s.admin), true)
	s.Require().NoError(err)
	s.Require().NotEmpty(inbox)

	s.Require().NoError(s.notifications.MarkRead(actorFor(s.admin), inbox[0].ID))

	unread, err := s.notifications.ListForUser(actorFor(s.admin), true)
	s.Require().NoError(err)
	for _, n := range unread {
		s.NotEqual(inbox[0].ID, n.ID)
	}

	// Re-marking and marking someone else's notification both fail.
	s.ErrorIs(s.notifications.MarkRead(actorFor(s.admin), inbox[0].ID), ErrNotFound)
	s.ErrorIs(s.notifications.MarkRead(actorFor(s.engUser), uuid.New()), ErrNotFound)
}

func TestNotificationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(NotificationServiceTestSuite))
}
