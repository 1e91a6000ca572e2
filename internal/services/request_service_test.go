// internal/services/request_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/licensehub/licensehub-backend/internal/models"
)

type RequestServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	requests *RequestService

	admin    *models.User
	engHead  *models.User
	engUser  *models.User
	mktHead  *models.User
	mktUser  *models.User
	software *models.SoftwareApplication
}

func (s *RequestServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	inventory := NewInventoryService(s.db)
	notifications := NewNotificationService(s.db)
	s.requests = NewRequestService(s.db, inventory, notifications)

	s.admin = createTestUser(s.T(), s.db, "admin", models.RoleAdmin, "")
	s.engHead = createTestUser(s.T(), s.db, "eng_head", models.RoleDeptHead, "Engineering")
	s.engUser = createTestUser(s.T(), s.db, "eng_user", models.RoleUser, "Engineering")
	s.mktHead = createTestUser(s.T(), s.db, "mkt_head", models.RoleDeptHead, "Marketing")
	s.mktUser = createTestUser(s.T(), s.db, "mkt_user", models.RoleUser, "Marketing")
	s.software = createTestSoftware(s.T(), s.db, "Slack")
}

func (s *RequestServiceTestSuite) TestSelfRequestStartsAtDeptHeadForUsers() {
	request, err := s.requests.CreateSelfRequest(actorFor(s.engUser), &SelfRequestInput{
		SoftwareName: "Slack",
		Reason:       "Team communication",
	})
	s.Require().NoError(err)

	s.Equal(models.RequestTypeGrant, request.RequestType)
	s.Equal(models.RequestStatusPending, request.Status)
	s.Equal(models.ApprovalLevelDeptHead, request.ApprovalLevel)
	s.Equal(s.engUser.ID, request.UserID)
	s.Equal(s.engUser.ID, request.RequestedByID)
	s.Equal(s.software.ID, request.SoftwareID)
	s.Nil(request.OriginalRequesterID)
}

func (s *RequestServiceTestSuite) TestSelfRequestStartsAtAdminForElevatedRoles() {
	forHead, err := s.requests.CreateSelfRequest(actorFor(s.engHead), &SelfRequestInput{SoftwareName: "Slack"})
	s.Require().NoError(err)
	s.Equal(models.ApprovalLevelAdmin, forHead.ApprovalLevel)

	forAdmin, err := s.requests.CreateSelfRequest(actorFor(s.admin), &SelfRequestInput{SoftwareName: "Slack"})
	s.Require().NoError(err)
	s.Equal(models.ApprovalLevelAdmin, forAdmin.ApprovalLevel)
}

func (s *RequestServiceTestSuite) TestSelfRequestSynthesizesPlaceholderSoftware() {
	request, err := s.requests.CreateSelfRequest(actorFor(s.engUser), &SelfRequestInput{
		SoftwareName: "Figma",
	})
	s.Require().NoError(err)

	var software models.SoftwareApplication
	s.Require().NoError(s.db.First(&software, "id = ?", request.SoftwareID).Error)
	s.Equal("Figma", software.Name)
	s.Equal("Unknown", software.Vendor)
	s.Equal("Uncategorized", software.Category)
	s.Equal(1, software.TotalLicenses)
	s.True(software.MonthlyCost.IsZero())
}

func (s *RequestServiceTestSuite) TestSelfRequestMatchesSoftwareCaseInsensitively() {
	request, err := s.requests.CreateSelfRequest(actorFor(s.engUser), &SelfRequestInput{
		SoftwareName: "  sLaCk ",
	})
	s.Require().NoError(err)
	s.Equal(s.software.ID, request.SoftwareID)

	var count int64
	s.db.Model(&models.SoftwareApplication{}).Count(&count)
	s.Equal(int64(1), count)
}

func (s *RequestServiceTestSuite) TestDirectedRequestTargetsOwnDepartmentOnly() {
	_, err := s.requests.CreateDirectedRequest(actorFor(s.engHead), &DirectedRequestInput{
		UserID:       s.mktUser.ID,
		SoftwareName: "Slack",
		RequestType:  models.RequestTypeGrant,
	})
	s.ErrorIs(err, ErrForbidden)

	request, err := s.requests.CreateDirectedRequest(actorFor(s.engHead), &DirectedRequestInput{
		UserID:       s.engUser.ID,
		SoftwareName: "Slack",
		RequestType:  models.RequestTypeRevoke,
		Reason:       "No longer needed",
	})
	s.Require().NoError(err)
	s.Equal(models.ApprovalLevelAdmin, request.ApprovalLevel)
	s.Equal(s.engUser.ID, request.UserID)
	s.Equal(s.engHead.ID, request.RequestedByID)
}

func (s *RequestServiceTestSuite) TestDirectedRequestRequiresKnownSoftware() {
	_, err := s.requests.CreateDirectedRequest(actorFor(s.engHead), &DirectedRequestInput{
		UserID:       s.engUser.ID,
		SoftwareName: "Unknown Tool",
		RequestType:  models.RequestTypeGrant,
	})
	s.ErrorIs(err, ErrNotFound)
}

func (s *RequestServiceTestSuite) TestDirectedRequestForbiddenForRegularUsers() {
	_, err := s.requests.CreateDirectedRequest(actorFor(s.engUser), &DirectedRequestInput{
		UserID:       s.engUser.ID,
		SoftwareName: "Slack",
		RequestType:  models.RequestTypeGrant,
	})
	s.ErrorIs(err, ErrForbidden)
}

func (s *RequestServiceTestSuite) TestForwardRecordsProvenanceOnce() {
	request, err := s.requests.CreateSelfRequest(actorFor(s.engUser), &SelfRequestInput{
		SoftwareName: "Slack",
		Reason:       "Need it for standups",
	})
	s.Require().NoError(err)

	forwarded, err := s.requests.Forward(actorFor(s.engHead), request.ID, "Approved by team lead")
	s.Require().NoError(err)

	s.Equal(models.ApprovalLevelAdmin, forwarded.ApprovalLevel)
	s.Equal(models.RequestStatusPending, forwarded.Status)
	s.Equal(s.engHead.ID, forwarded.RequestedByID)
	s.Require().NotNil(forwarded.OriginalRequesterID)
	s.Equal(s.engUser.ID, *forwarded.OriginalRequesterID)
	s.Contains(forwarded.Reason, "Need it for standups")
	s.Contains(forwarded.Reason, "Forwarded by eng_head")
	s.Contains(forwarded.Reason, "Approved by team lead")

	// A second forward must not move the request or rewrite provenance.
	_, err = s.requests.Forward(actorFor(s.engHead), request.ID, "")
	s.ErrorIs(err, ErrInvalidState)
}

func (s *RequestServiceTestSuite) TestForwardRestrictedToOwnDepartment() {
	request, err := s.requests.CreateSelfRequest(actorFor(s.engUser), &SelfRequestInput{SoftwareName: "Slack"})
	s.Require().NoError(err)

	_, err = s.requests.Forward(actorFor(s.mktHead), request.ID, "")
	s.ErrorIs(err, ErrForbidden)
}

func (s *RequestServiceTestSuite) TestForwardMissingRequest() {
	_, err := s.requests.Forward(actorFor(s.engHead), uuid.New(), "")
	s.ErrorIs(err, ErrNotFound)
}

func (s *RequestServiceTestSuite) TestResolveApproveSetsReviewFields() {
	request, err := s.requests.CreateSelfRequest(actorFor(s.engHead), &SelfRequestInput{SoftwareName: "Slack"})
	s.Require().NoError(err)

	resolved, err := s.requests.Resolve(actorFor(s.admin), request.ID, &ResolveInput{
		Action:   "approve",
		Response: "Within budget",
	})
	s.Require().NoError(err)

	s.Equal(models.RequestStatusApproved, resolved.Status)
	s.Equal("Within budget", resolved.AdminResponse)
	s.Require().NotNil(resolved.ReviewedByID)
	s.Equal(s.admin.ID, *resolved.ReviewedByID)
}

func (s *RequestServiceTestSuite) TestResolveIsTerminal() {
	request, err := s.requests.CreateSelfRequest(actorFor(s.engHead), &SelfRequestInput{SoftwareName: "Slack"})
	s.Require().NoError(err)

	_, err = s.requests.Resolve(actorFor(s.admin), request.ID, &ResolveInput{Action: "reject"})
	s.Require().NoError(err)

	_, err = s.requests.Resolve(actorFor(s.admin), request.ID, &ResolveInput{Action: "approve"})
	s.ErrorIs(err, ErrInvalidState)

	var reread models.LicenseRequest
	s.Require().NoError(s.db.First(&reread, "id = ?", request.ID).Error)
	s.Equal(models.RequestStatusRejected, reread.Status)
}

func (s *RequestServiceTestSuite) TestResolveRejectsRequestStillAtDeptHeadTier() {
	request, err := s.requests.CreateSelfRequest(actorFor(s.engUser), &SelfRequestInput{SoftwareName: "Slack"})
	s.Require().NoError(err)

	_, err = s.requests.Resolve(actorFor(s.admin), request.ID, &ResolveInput{Action: "approve"})
	s.ErrorIs(err, ErrInvalidState)

	var reread models.LicenseRequest
	s.Require().NoError(s.db.First(&reread, "id = ?", request.ID).Error)
	s.Equal(models.RequestStatusPending, reread.Status)
	s.Equal(models.ApprovalLevelDeptHead, reread.ApprovalLevel)
}

func (s *RequestServiceTestSuite) TestResolveValidatesActionAndRole() {
	request, err := s.requests.CreateSelfRequest(actorFor(s.engHead), &SelfRequestInput{SoftwareName: "Slack"})
	s.Require().NoError(err)

	_, err = s.requests.Resolve(actorFor(s.admin), request.ID, &ResolveInput{Action: "escalate"})
	s.ErrorIs(err, ErrValidation)

	_, err = s.requests.Resolve(actorFor(s.engHead), request.ID, &ResolveInput{Action: "approve"})
	s.ErrorIs(err, ErrForbidden)
}

func (s *RequestServiceTestSuite) TestPendingQueues() {
	fromEng, err := s.requests.CreateSelfRequest(actorFor(s.engUser), &SelfRequestInput{SoftwareName: "Slack"})
	s.Require().NoError(err)
	_, err = s.requests.CreateSelfRequest(actorFor(s.mktUser), &SelfRequestInput{SoftwareName: "Slack"})
	s.Require().NoError(err)
	atAdmin, err := s.requests.CreateSelfRequest(actorFor(s.engHead), &SelfRequestInput{SoftwareName: "Slack"})
	s.Require().NoError(err)

	engQueue, err := s.requests.ListPendingForDeptHead(actorFor(s.engHead))
	s.Require().NoError(err)
	s.Require().Len(engQueue, 1)
	s.Equal(fromEng.ID, engQueue[0].ID)

	adminQueue, err := s.requests.ListPendingForAdmin(actorFor(s.admin))
	s.Require().NoError(err)
	s.Require().Len(adminQueue, 1)
	s.Equal(atAdmin.ID, adminQueue[0].ID)

	_, err = s.requests.ListPendingForAdmin(actorFor(s.engHead))
	s.ErrorIs(err, ErrForbidden)
	_, err = s.requests.ListPendingForDeptHead(actorFor(s.engUser))
	s.ErrorIs(err, ErrForbidden)
}

func (s *RequestServiceTestSuite) TestAllocatedLicensesFollowLatestApprovedAction() {
	jira := createTestSoftware(s.T(), s.db, "Jira")

	grant, err := s.requests.CreateSelfRequest(actorFor(s.engHead), &SelfRequestInput{SoftwareName: "Slack"})
	s.Require().NoError(err)
	_, err = s.requests.Resolve(actorFor(s.admin), grant.ID, &ResolveInput{Action: "approve"})
	s.Require().NoError(err)

	jiraGrant, err := s.requests.CreateSelfRequest(actorFor(s.engHead), &SelfRequestInput{SoftwareName: "Jira"})
	s.Require().NoError(err)
	_, err = s.requests.Resolve(actorFor(s.admin), jiraGrant.ID, &ResolveInput{Action: "approve"})
	s.Require().NoError(err)

	allocated, err := s.requests.AllocatedLicenses(s.engHead.ID)
	s.Require().NoError(err)
	s.Len(allocated, 2)

	// An approved revoke supersedes the earlier grant.
	time.Sleep(10 * time.Millisecond)
	revoke, err := s.requests.CreateDirectedRequest(actorFor(s.admin), &DirectedRequestInput{
		UserID:       s.engHead.ID,
		SoftwareName: "Jira",
		RequestType:  models.RequestTypeRevoke,
	})
	s.Require().NoError(err)
	_, err = s.requests.Resolve(actorFor(s.admin), revoke.ID, &ResolveInput{Action: "approve"})
	s.Require().NoError(err)

	allocated, err = s.requests.AllocatedLicenses(s.engHead.ID)
	s.Require().NoError(err)
	s.Require().Len(allocated, 1)
	s.Equal("Slack", allocated[0].Name)
	s.NotEqual(jira.ID, allocated[0].ID)

	// A newer approved grant restores the license.
	time.Sleep(10 * time.Millisecond)
	regrant, err := s.requests.CreateSelfRequest(actorFor(s.engHead), &SelfRequestInput{SoftwareName: "Jira"})
	s.Require().NoError(err)
	_, err = s.requests.Resolve(actorFor(s.admin), regrant.ID, &ResolveInput{Action: "approve"})
	s.Require().NoError(err)

	allocated, err = s.requests.AllocatedLicenses(s.engHead.ID)
	s.Require().NoError(err)
	s.Len(allocated, 2)
}

func (s *RequestServiceTestSuite) TestPendingRevokeDoesNotRemoveLicense() {
	grant, err := s.requests.CreateSelfRequest(actorFor(s.engHead), &SelfRequestInput{SoftwareName: "Slack"})
	s.Require().NoError(err)
	_, err = s.requests.Resolve(actorFor(s.admin), grant.ID, &ResolveInput{Action: "approve"})
	s.Require().NoError(err)

	_, err = s.requests.CreateDirectedRequest(actorFor(s.admin), &DirectedRequestInput{
		UserID:       s.engHead.ID,
		SoftwareName: "Slack",
		RequestType:  models.RequestTypeRevoke,
	})
	s.Require().NoError(err)

	allocated, err := s.requests.AllocatedLicenses(s.engHead.ID)
	s.Require().NoError(err)
	s.Require().Len(allocated, 1)
	s.Equal("Slack", allocated[0].Name)
}

func (s *RequestServiceTestSuite) TestStatsCountsByStatus() {
	first, err := s.requests.CreateSelfRequest(actorFor(s.engHead), &SelfRequestInput{SoftwareName: "Slack"})
	s.Require().NoError(err)
	_, err = s.requests.Resolve(actorFor(s.admin), first.ID, &ResolveInput{Action: "approve"})
	s.Require().NoError(err)

	second, err := s.requests.CreateSelfRequest(actorFor(s.engHead), &SelfRequestInput{SoftwareName: "Zoom"})
	s.Require().NoError(err)
	_, err = s.requests.Resolve(actorFor(s.admin), second.ID, &ResolveInput{Action: "reject"})
	s.Require().NoError(err)

	_, err = s.requests.CreateSelfRequest(actorFor(s.engUser), &SelfRequestInput{SoftwareName: "Slack"})
	s.Require().NoError(err)

	stats, err := s.requests.Stats()
	s.Require().NoError(err)
	s.Equal(int64(3), stats.Total)
	s.Equal(int64(1), stats.Pending)
	s.Equal(int64(1), stats.Approved)
	s.Equal(int64(1), stats.Rejected)
	s.Contains(stats.MostRequested, "Slack")
}

func TestRequestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RequestServiceTestSuite))
}
