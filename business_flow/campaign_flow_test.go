package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velora/backoffice/app/dto"
	"github.com/velora/backoffice/models"
	"github.com/velora/backoffice/utils"
)

type campaignFlowFixture struct {
	flow         CampaignFlow
	campaignRepo *fakeCampaignRepo
	clientRepo   *fakeClientRepo
	auditRepo    *fakeAuditRepo
	enqueuer     *fakeEnqueuer
}

type fakeEnqueuer struct {
	enqueued []uint
	full     bool
}

var _ ProcessEnqueuer = (*fakeEnqueuer)(nil)

func (e *fakeEnqueuer) Enqueue(campaignID uint) bool {
	if e.full {
		return false
	}
	e.enqueued = append(e.enqueued, campaignID)
	return true
}

func newCampaignFlowFixture(clients ...*models.Client) *campaignFlowFixture {
	campaignRepo := newFakeCampaignRepo()
	clientRepo := newFakeClientRepo(clients...)
	auditRepo := newFakeAuditRepo()
	enqueuer := &fakeEnqueuer{}
	resolver := NewAudienceResolver(clientRepo)

	return &campaignFlowFixture{
		flow:         NewCampaignFlow(campaignRepo, auditRepo, resolver, enqueuer, nil),
		campaignRepo: campaignRepo,
		clientRepo:   clientRepo,
		auditRepo:    auditRepo,
		enqueuer:     enqueuer,
	}
}

func validCreateRequest() *dto.CreateCampaignRequest {
	return &dto.CreateCampaignRequest{
		Title:          "Spring Renewal Drive",
		Type:           "promotion",
		Channels:       []string{"email"},
		Content:        "Hi {{firstName}}, time to renew.",
		TargetAudience: models.TargetAudienceSpec{AllClients: true},
	}
}

func TestCreateCampaignByAgentRequiresApproval(t *testing.T) {
	fx := newCampaignFlowFixture()
	actor := NewActor(7, models.RoleAgent)

	resp, err := fx.flow.CreateCampaign(context.Background(), validCreateRequest(), actor, nil)
	require.NoError(t, err)

	assert.Equal(t, models.CampaignStatusPendingApproval.String(), resp.Status)
	assert.True(t, resp.Approval.Required)
	assert.Equal(t, models.ApprovalStatusPending, resp.Approval.Status)
	assert.Equal(t, uint(7), resp.CreatedBy)
	assert.Equal(t, []string{models.AuditActionCampaignCreated}, fx.auditRepo.actions())
	assert.Empty(t, fx.enqueuer.enqueued)
}

func TestCreateCampaignByManagerAutoApproves(t *testing.T) {
	fx := newCampaignFlowFixture()
	actor := NewActor(3, models.RoleManager)

	resp, err := fx.flow.CreateCampaign(context.Background(), validCreateRequest(), actor, nil)
	require.NoError(t, err)

	assert.Equal(t, models.CampaignStatusApproved.String(), resp.Status)
	assert.False(t, resp.Approval.Required)
	assert.Equal(t, models.ApprovalStatusApproved, resp.Approval.Status)
	require.NotNil(t, resp.Approval.ApprovedBy)
	assert.Equal(t, uint(3), *resp.Approval.ApprovedBy)
	assert.NotNil(t, resp.Approval.ApprovedAt)
	assert.Equal(t, []uint{resp.ID}, fx.enqueuer.enqueued)
}

func TestCreateCampaignByAdminWithScheduleGoesScheduled(t *testing.T) {
	fx := newCampaignFlowFixture()
	actor := NewActor(1, models.RoleAdmin)

	req := validCreateRequest()
	future := utils.UTCNow().Add(2 * time.Hour)
	req.ScheduledAt = &future

	resp, err := fx.flow.CreateCampaign(context.Background(), req, actor, nil)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusScheduled.String(), resp.Status)
	assert.Empty(t, fx.enqueuer.enqueued)
}

func TestCreateCampaignValidation(t *testing.T) {
	fx := newCampaignFlowFixture()
	actor := NewActor(7, models.RoleAgent)

	tests := []struct {
		name    string
		mutate  func(*dto.CreateCampaignRequest)
		wantErr error
	}{
		{"missing title", func(r *dto.CreateCampaignRequest) { r.Title = "" }, ErrCampaignTitleRequired},
		{"missing content", func(r *dto.CreateCampaignRequest) { r.Content = "" }, ErrCampaignContentRequired},
		{"no channels", func(r *dto.CreateCampaignRequest) { r.Channels = nil }, ErrCampaignChannelsRequired},
		{"bad channel", func(r *dto.CreateCampaignRequest) { r.Channels = []string{"fax"} }, ErrChannelInvalid},
		{"bad type", func(r *dto.CreateCampaignRequest) { r.Type = "spam" }, ErrCampaignTypeInvalid},
		{"schedule in past", func(r *dto.CreateCampaignRequest) {
			past := utils.UTCNow().Add(-time.Hour)
			r.ScheduledAt = &past
		}, ErrScheduleTimeInPast},
		{"empty location entry", func(r *dto.CreateCampaignRequest) {
			r.TargetAudience = models.TargetAudienceSpec{Locations: []models.LocationFilter{{}}}
		}, ErrLocationEntryEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(req)
			_, err := fx.flow.CreateCampaign(context.Background(), req, actor, nil)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestCreateCampaignRejectsInvalidVariants(t *testing.T) {
	fx := newCampaignFlowFixture()
	actor := NewActor(7, models.RoleAgent)

	req := validCreateRequest()
	req.ABTest = &models.ABTestSpec{
		Enabled: true,
		Variants: []models.ABVariant{
			{Name: "A", Percentage: 70},
			{Name: "B", Percentage: 70},
		},
	}

	_, err := fx.flow.CreateCampaign(context.Background(), req, actor, nil)
	assert.ErrorIs(t, err, ErrVariantPercentageSum)
}

func TestUpdateCampaign(t *testing.T) {
	fx := newCampaignFlowFixture()
	campaign := fx.campaignRepo.add(&models.Campaign{
		Title:          "Old Title",
		Type:           models.CampaignTypePromotion,
		Channels:       []string{"email"},
		Content:        "old content",
		Status:         models.CampaignStatusDraft,
		TargetAudience: models.TargetAudienceSpec{AllClients: true},
	})

	req := &dto.UpdateCampaignRequest{
		UUID:    campaign.UUID.String(),
		Title:   strPtr("New Title"),
		Content: strPtr("new content"),
	}

	resp, err := fx.flow.UpdateCampaign(context.Background(), req, NewActor(7, models.RoleAgent), nil)
	require.NoError(t, err)
	assert.Equal(t, "New Title", resp.Title)
	assert.Equal(t, "new content", resp.Content)
	assert.Equal(t, []string{models.AuditActionCampaignUpdated}, fx.auditRepo.actions())
}

func TestUpdateCampaignRejectsEmptyLocationEntry(t *testing.T) {
	fx := newCampaignFlowFixture()
	campaign := fx.campaignRepo.add(&models.Campaign{
		Title:          "Regional Drive",
		Type:           models.CampaignTypePromotion,
		Channels:       []string{"email"},
		Content:        "content",
		Status:         models.CampaignStatusDraft,
		TargetAudience: models.TargetAudienceSpec{AllClients: true},
	})

	req := &dto.UpdateCampaignRequest{
		UUID:           campaign.UUID.String(),
		TargetAudience: &models.TargetAudienceSpec{Locations: []models.LocationFilter{{}}},
	}

	_, err := fx.flow.UpdateCampaign(context.Background(), req, NewActor(7, models.RoleAgent), nil)
	assert.ErrorIs(t, err, ErrLocationEntryEmpty)
	assert.True(t, IsValidationError(err))
}

func TestUpdateCampaignRejectsNonEditableStatus(t *testing.T) {
	fx := newCampaignFlowFixture()
	campaign := fx.campaignRepo.add(&models.Campaign{
		Title:    "Locked",
		Type:     models.CampaignTypePromotion,
		Channels: []string{"email"},
		Content:  "content",
		Status:   models.CampaignStatusApproved,
	})

	req := &dto.UpdateCampaignRequest{UUID: campaign.UUID.String(), Title: strPtr("x")}
	_, err := fx.flow.UpdateCampaign(context.Background(), req, NewActor(7, models.RoleAgent), nil)
	assert.ErrorIs(t, err, ErrCampaignNotEditable)
}

func TestUpdateCampaignRequiresAtLeastOneField(t *testing.T) {
	fx := newCampaignFlowFixture()
	req := &dto.UpdateCampaignRequest{UUID: uuid.NewString()}
	_, err := fx.flow.UpdateCampaign(context.Background(), req, NewActor(7, models.RoleAgent), nil)
	assert.ErrorIs(t, err, ErrCampaignUpdateRequired)
}

func TestApproveCampaign(t *testing.T) {
	fx := newCampaignFlowFixture()
	campaign := fx.campaignRepo.add(&models.Campaign{
		Title:    "Pending Drive",
		Type:     models.CampaignTypeOffer,
		Channels: []string{"email"},
		Content:  "content",
		Status:   models.CampaignStatusPendingApproval,
		Approval: models.ApprovalInfo{Required: true, Status: models.ApprovalStatusPending},
	})

	resp, err := fx.flow.ApproveCampaign(context.Background(),
		&dto.ApproveCampaignRequest{UUID: campaign.UUID.String()},
		NewActor(3, models.RoleManager), nil)
	require.NoError(t, err)

	assert.Equal(t, models.CampaignStatusApproved.String(), resp.Status)
	assert.Equal(t, models.ApprovalStatusApproved, resp.Approval.Status)
	require.NotNil(t, resp.Approval.ApprovedBy)
	assert.Equal(t, uint(3), *resp.Approval.ApprovedBy)
	assert.Equal(t, []string{models.AuditActionCampaignApproved}, fx.auditRepo.actions())
	assert.Equal(t, []uint{campaign.ID}, fx.enqueuer.enqueued)
}

func TestApproveCampaignWithScheduleGoesScheduled(t *testing.T) {
	fx := newCampaignFlowFixture()
	future := utils.UTCNow().Add(time.Hour)
	campaign := fx.campaignRepo.add(&models.Campaign{
		Title:       "Scheduled Drive",
		Type:        models.CampaignTypeOffer,
		Channels:    []string{"email"},
		Content:     "content",
		Status:      models.CampaignStatusPendingApproval,
		ScheduledAt: &future,
		Approval:    models.ApprovalInfo{Required: true, Status: models.ApprovalStatusPending},
	})

	resp, err := fx.flow.ApproveCampaign(context.Background(),
		&dto.ApproveCampaignRequest{UUID: campaign.UUID.String()},
		NewActor(1, models.RoleAdmin), nil)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusScheduled.String(), resp.Status)
	assert.Empty(t, fx.enqueuer.enqueued)
}

func TestApproveCampaignWithPastScheduleEnqueues(t *testing.T) {
	fx := newCampaignFlowFixture()
	past := utils.UTCNow().Add(-time.Hour)
	campaign := fx.campaignRepo.add(&models.Campaign{
		Title:       "Overdue Drive",
		Type:        models.CampaignTypeOffer,
		Channels:    []string{"email"},
		Content:     "content",
		Status:      models.CampaignStatusPendingApproval,
		ScheduledAt: &past,
		Approval:    models.ApprovalInfo{Required: true, Status: models.ApprovalStatusPending},
	})

	resp, err := fx.flow.ApproveCampaign(context.Background(),
		&dto.ApproveCampaignRequest{UUID: campaign.UUID.String()},
		NewActor(1, models.RoleAdmin), nil)
	require.NoError(t, err)

	// The send time passed while the campaign sat in review
	assert.Equal(t, models.CampaignStatusScheduled.String(), resp.Status)
	assert.Equal(t, []uint{campaign.ID}, fx.enqueuer.enqueued)
}

func TestApproveCampaignRequiresApproverRole(t *testing.T) {
	fx := newCampaignFlowFixture()
	_, err := fx.flow.ApproveCampaign(context.Background(),
		&dto.ApproveCampaignRequest{UUID: uuid.NewString()},
		NewActor(7, models.RoleAgent), nil)
	assert.ErrorIs(t, err, ErrActorNotAllowed)
	assert.True(t, IsActorNotAllowed(err))
}

func TestApproveCampaignNotPendingIsConflict(t *testing.T) {
	fx := newCampaignFlowFixture()
	campaign := fx.campaignRepo.add(&models.Campaign{
		Title:    "Already Approved",
		Type:     models.CampaignTypeOffer,
		Channels: []string{"email"},
		Content:  "content",
		Status:   models.CampaignStatusApproved,
	})

	_, err := fx.flow.ApproveCampaign(context.Background(),
		&dto.ApproveCampaignRequest{UUID: campaign.UUID.String()},
		NewActor(3, models.RoleManager), nil)
	assert.ErrorIs(t, err, ErrCampaignNotPendingApproval)
}

func TestRejectCampaignCancels(t *testing.T) {
	fx := newCampaignFlowFixture()
	campaign := fx.campaignRepo.add(&models.Campaign{
		Title:    "Pending Drive",
		Type:     models.CampaignTypeOffer,
		Channels: []string{"email"},
		Content:  "content",
		Status:   models.CampaignStatusPendingApproval,
		Approval: models.ApprovalInfo{Required: true, Status: models.ApprovalStatusPending},
	})

	resp, err := fx.flow.RejectCampaign(context.Background(),
		&dto.RejectCampaignRequest{UUID: campaign.UUID.String(), Reason: "budget not approved"},
		NewActor(3, models.RoleManager), nil)
	require.NoError(t, err)

	assert.Equal(t, models.CampaignStatusCancelled.String(), resp.Status)
	assert.Equal(t, models.ApprovalStatusRejected, resp.Approval.Status)
	require.NotNil(t, resp.Approval.RejectionReason)
	assert.Equal(t, "budget not approved", *resp.Approval.RejectionReason)
	assert.Equal(t, []string{models.AuditActionCampaignRejected}, fx.auditRepo.actions())
}

func TestRejectCampaignRequiresReason(t *testing.T) {
	fx := newCampaignFlowFixture()
	_, err := fx.flow.RejectCampaign(context.Background(),
		&dto.RejectCampaignRequest{UUID: uuid.NewString()},
		NewActor(3, models.RoleManager), nil)
	assert.ErrorIs(t, err, ErrRejectionReasonRequired)
}

func TestGetCampaignNotFound(t *testing.T) {
	fx := newCampaignFlowFixture()
	_, err := fx.flow.GetCampaign(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrCampaignNotFound)
	assert.True(t, IsCampaignNotFound(err))
}

func TestListCampaigns(t *testing.T) {
	fx := newCampaignFlowFixture()
	for i := 0; i < 3; i++ {
		fx.campaignRepo.add(&models.Campaign{
			Title:    "Drive",
			Type:     models.CampaignTypePromotion,
			Channels: []string{"email"},
			Content:  "content",
			Status:   models.CampaignStatusDraft,
		})
	}
	fx.campaignRepo.add(&models.Campaign{
		Title:    "Festival Special",
		Type:     models.CampaignTypeFestival,
		Channels: []string{"sms"},
		Content:  "content",
		Status:   models.CampaignStatusApproved,
	})

	statusFilter := "draft"
	resp, err := fx.flow.ListCampaigns(context.Background(), dto.ListCampaignsFilter{
		Status:   &statusFilter,
		Page:     1,
		PageSize: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Total)
	assert.Len(t, resp.Items, 2)
}

func TestListCampaignsPaginationValidation(t *testing.T) {
	fx := newCampaignFlowFixture()

	_, err := fx.flow.ListCampaigns(context.Background(), dto.ListCampaignsFilter{Page: 0, PageSize: 10})
	assert.ErrorIs(t, err, ErrInvalidPage)

	_, err = fx.flow.ListCampaigns(context.Background(), dto.ListCampaignsFilter{Page: 1, PageSize: 0})
	assert.ErrorIs(t, err, ErrInvalidPageSize)

	_, err = fx.flow.ListCampaigns(context.Background(), dto.ListCampaignsFilter{Page: 1, PageSize: 101})
	assert.ErrorIs(t, err, ErrInvalidPageSize)

	start := utils.UTCNow()
	end := start.Add(-time.Hour)
	_, err = fx.flow.ListCampaigns(context.Background(), dto.ListCampaignsFilter{
		Page: 1, PageSize: 10, StartDate: &start, EndDate: &end,
	})
	assert.ErrorIs(t, err, ErrStartDateAfterEndDate)
}

func TestListCampaignsRejectsUnknownStatus(t *testing.T) {
	fx := newCampaignFlowFixture()
	bogus := "archived"
	_, err := fx.flow.ListCampaigns(context.Background(), dto.ListCampaignsFilter{
		Status: &bogus, Page: 1, PageSize: 10,
	})
	require.Error(t, err)

	var bizErr *BusinessError
	require.ErrorAs(t, err, &bizErr)
	assert.Equal(t, "INVALID_STATUS", bizErr.Code)
}

func TestPreviewAudience(t *testing.T) {
	clients := []*models.Client{
		{ID: 1, Name: "Dana", Status: models.ClientStatusActive, ClientType: models.ClientTypeIndividual},
		{ID: 2, Name: "Morgan", Status: models.ClientStatusActive, ClientType: models.ClientTypeIndividual,
			Preferences: models.CommunicationPreferences{
				models.ChannelSMS: {Offers: boolPtr(false)},
			}},
	}
	fx := newCampaignFlowFixture(clients...)

	campaign := fx.campaignRepo.add(&models.Campaign{
		Title:          "Offer Blast",
		Type:           models.CampaignTypeOffer,
		Channels:       []string{"email", "sms"},
		Content:        "content",
		Status:         models.CampaignStatusDraft,
		TargetAudience: models.TargetAudienceSpec{AllClients: true},
	})

	resp, err := fx.flow.PreviewAudience(context.Background(), campaign.UUID.String())
	require.NoError(t, err)

	assert.Equal(t, int64(2), resp.TotalClients)
	assert.Equal(t, int64(3), resp.TotalRecipients)
	assert.Equal(t, int64(2), resp.PerChannel["email"])
	assert.Equal(t, int64(1), resp.PerChannel["sms"])
}
