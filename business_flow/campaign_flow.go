package businessflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/velora/backoffice/app/dto"
	"github.com/velora/backoffice/models"
	"github.com/velora/backoffice/repository"
	"github.com/velora/backoffice/utils"
	"gorm.io/gorm"
)

// CampaignFlow defines the campaign management workflow
type CampaignFlow interface {
	CreateCampaign(ctx context.Context, req *dto.CreateCampaignRequest, actor Actor, metadata *ClientMetadata) (*dto.CampaignResponse, error)
	UpdateCampaign(ctx context.Context, req *dto.UpdateCampaignRequest, actor Actor, metadata *ClientMetadata) (*dto.CampaignResponse, error)
	ApproveCampaign(ctx context.Context, req *dto.ApproveCampaignRequest, actor Actor, metadata *ClientMetadata) (*dto.CampaignResponse, error)
	RejectCampaign(ctx context.Context, req *dto.RejectCampaignRequest, actor Actor, metadata *ClientMetadata) (*dto.CampaignResponse, error)
	GetCampaign(ctx context.Context, campaignUUID string) (*dto.CampaignResponse, error)
	ListCampaigns(ctx context.Context, filter dto.ListCampaignsFilter) (*dto.ListCampaignsResponse, error)
	PreviewAudience(ctx context.Context, campaignUUID string) (*dto.AudiencePreviewResponse, error)
}

type campaignFlow struct {
	campaignRepo repository.CampaignRepository
	auditRepo    repository.AuditLogRepository
	resolver     *AudienceResolver
	enqueuer     ProcessEnqueuer
	db           *gorm.DB
}

// NewCampaignFlow creates a new campaign flow instance. A nil enqueuer leaves
// due campaigns to the scheduler sweep.
func NewCampaignFlow(
	campaignRepo repository.CampaignRepository,
	auditRepo repository.AuditLogRepository,
	resolver *AudienceResolver,
	enqueuer ProcessEnqueuer,
	db *gorm.DB,
) CampaignFlow {
	return &campaignFlow{
		campaignRepo: campaignRepo,
		auditRepo:    auditRepo,
		resolver:     resolver,
		enqueuer:     enqueuer,
		db:           db,
	}
}

// CreateCampaign creates a new campaign. Actors whose role carries the
// approval capability skip the review queue: their campaigns start approved,
// or scheduled when a schedule time is present.
func (f *campaignFlow) CreateCampaign(ctx context.Context, req *dto.CreateCampaignRequest, actor Actor, metadata *ClientMetadata) (*dto.CampaignResponse, error) {
	if err := validateCampaignContent(req.Title, req.Content, req.Channels, req.Type); err != nil {
		return nil, err
	}
	if err := validateTargeting(req.TargetAudience); err != nil {
		return nil, err
	}
	if req.ABTest != nil && req.ABTest.Enabled {
		if err := ValidateVariants(req.ABTest.Variants); err != nil {
			return nil, err
		}
	}
	if req.ScheduledAt != nil && req.ScheduledAt.Before(utils.UTCNow()) {
		return nil, ErrScheduleTimeInPast
	}

	campaign := &models.Campaign{
		CreatedBy:        actor.ID,
		Title:            req.Title,
		Description:      req.Description,
		Type:             models.CampaignType(req.Type),
		Channels:         req.Channels,
		Content:          req.Content,
		ChannelOverrides: req.ChannelOverrides,
		TargetAudience:   req.TargetAudience,
		ScheduledAt:      req.ScheduledAt,
	}
	if req.ABTest != nil {
		campaign.ABTest = *req.ABTest
	}
	if req.Automation != nil {
		campaign.Automation = *req.Automation
	}

	if actor.CanApprove {
		now := utils.UTCNow()
		campaign.Status = models.CampaignStatusApproved
		campaign.Approval = models.ApprovalInfo{
			Required:   false,
			Status:     models.ApprovalStatusApproved,
			ApprovedBy: &actor.ID,
			ApprovedAt: &now,
		}
		if campaign.ScheduledAt != nil {
			campaign.Status = models.CampaignStatusScheduled
		}
	} else {
		campaign.Status = models.CampaignStatusPendingApproval
		campaign.Approval = models.ApprovalInfo{
			Required: true,
			Status:   models.ApprovalStatusPending,
		}
	}

	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.campaignRepo.Save(txCtx, campaign); err != nil {
			return NewBusinessError("CAMPAIGN_CREATE_FAILED", "failed to create campaign", err)
		}
		f.audit(txCtx, actor.ID, &campaign.ID, models.AuditActionCampaignCreated,
			fmt.Sprintf("campaign %q created with status %s", campaign.Title, campaign.Status), metadata, true, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}

	f.enqueueIfDue(campaign)

	resp := ToCampaignResponse(*campaign)
	return &resp, nil
}

// UpdateCampaign modifies an editable campaign. Only draft and
// pending_approval campaigns accept changes.
func (f *campaignFlow) UpdateCampaign(ctx context.Context, req *dto.UpdateCampaignRequest, actor Actor, metadata *ClientMetadata) (*dto.CampaignResponse, error) {
	if req.UUID == "" {
		return nil, ErrCampaignUUIDRequired
	}
	if !hasUpdateFields(req) {
		return nil, ErrCampaignUpdateRequired
	}

	campaign, err := f.campaignRepo.ByUUID(ctx, req.UUID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "failed to find campaign", err)
	}
	if campaign == nil {
		return nil, ErrCampaignNotFound
	}
	if !campaign.IsEditable() {
		return nil, ErrCampaignNotEditable
	}

	if req.Title != nil {
		campaign.Title = *req.Title
	}
	if req.Description != nil {
		campaign.Description = req.Description
	}
	if len(req.Channels) > 0 {
		campaign.Channels = req.Channels
	}
	if req.Content != nil {
		campaign.Content = *req.Content
	}
	if req.ChannelOverrides != nil {
		campaign.ChannelOverrides = req.ChannelOverrides
	}
	if req.TargetAudience != nil {
		campaign.TargetAudience = *req.TargetAudience
	}
	if req.ABTest != nil {
		if req.ABTest.Enabled {
			if err := ValidateVariants(req.ABTest.Variants); err != nil {
				return nil, err
			}
		}
		campaign.ABTest = *req.ABTest
	}
	if req.ScheduledAt != nil {
		if req.ScheduledAt.Before(utils.UTCNow()) {
			return nil, ErrScheduleTimeInPast
		}
		campaign.ScheduledAt = req.ScheduledAt
	}

	if err := validateCampaignContent(campaign.Title, campaign.Content, campaign.Channels, string(campaign.Type)); err != nil {
		return nil, err
	}
	if err := validateTargeting(campaign.TargetAudience); err != nil {
		return nil, err
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.campaignRepo.Update(txCtx, *campaign); err != nil {
			return NewBusinessError("CAMPAIGN_UPDATE_FAILED", "failed to update campaign", err)
		}
		f.audit(txCtx, actor.ID, &campaign.ID, models.AuditActionCampaignUpdated,
			fmt.Sprintf("campaign %q updated", campaign.Title), metadata, true, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return f.GetCampaign(ctx, req.UUID)
}

// ApproveCampaign moves a pending campaign to approved, or straight to
// scheduled when a schedule time is already set. Approving a campaign that is
// not pending is a conflict, not an idempotent success.
func (f *campaignFlow) ApproveCampaign(ctx context.Context, req *dto.ApproveCampaignRequest, actor Actor, metadata *ClientMetadata) (*dto.CampaignResponse, error) {
	if !actor.CanApprove {
		return nil, ErrActorNotAllowed
	}

	campaign, err := f.campaignRepo.ByUUID(ctx, req.UUID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "failed to find campaign", err)
	}
	if campaign == nil {
		return nil, ErrCampaignNotFound
	}
	if campaign.Status != models.CampaignStatusPendingApproval {
		return nil, ErrCampaignNotPendingApproval
	}

	now := utils.UTCNow()
	campaign.Approval.Status = models.ApprovalStatusApproved
	campaign.Approval.ApprovedBy = &actor.ID
	campaign.Approval.ApprovedAt = &now
	campaign.Approval.RejectionReason = nil

	newStatus := models.CampaignStatusApproved
	if campaign.ScheduledAt != nil {
		newStatus = models.CampaignStatusScheduled
	}
	campaign.Status = newStatus

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.campaignRepo.Update(txCtx, *campaign); err != nil {
			return NewBusinessError("CAMPAIGN_APPROVE_FAILED", "failed to approve campaign", err)
		}
		f.audit(txCtx, actor.ID, &campaign.ID, models.AuditActionCampaignApproved,
			fmt.Sprintf("campaign %q approved, status %s", campaign.Title, newStatus), metadata, true, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}

	f.enqueueIfDue(campaign)

	resp := ToCampaignResponse(*campaign)
	return &resp, nil
}

// RejectCampaign rejects a pending campaign with a mandatory reason
func (f *campaignFlow) RejectCampaign(ctx context.Context, req *dto.RejectCampaignRequest, actor Actor, metadata *ClientMetadata) (*dto.CampaignResponse, error) {
	if !actor.CanApprove {
		return nil, ErrActorNotAllowed
	}
	if req.Reason == "" {
		return nil, ErrRejectionReasonRequired
	}

	campaign, err := f.campaignRepo.ByUUID(ctx, req.UUID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "failed to find campaign", err)
	}
	if campaign == nil {
		return nil, ErrCampaignNotFound
	}
	if campaign.Status != models.CampaignStatusPendingApproval {
		return nil, ErrCampaignNotPendingApproval
	}

	campaign.Approval.Status = models.ApprovalStatusRejected
	campaign.Approval.RejectionReason = &req.Reason
	campaign.Status = models.CampaignStatusCancelled

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		if err := f.campaignRepo.Update(txCtx, *campaign); err != nil {
			return NewBusinessError("CAMPAIGN_REJECT_FAILED", "failed to reject campaign", err)
		}
		f.audit(txCtx, actor.ID, &campaign.ID, models.AuditActionCampaignRejected,
			fmt.Sprintf("campaign %q rejected: %s", campaign.Title, req.Reason), metadata, true, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := ToCampaignResponse(*campaign)
	return &resp, nil
}

// GetCampaign returns one campaign by UUID
func (f *campaignFlow) GetCampaign(ctx context.Context, campaignUUID string) (*dto.CampaignResponse, error) {
	if campaignUUID == "" {
		return nil, ErrCampaignUUIDRequired
	}

	campaign, err := f.campaignRepo.ByUUID(ctx, campaignUUID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "failed to find campaign", err)
	}
	if campaign == nil {
		return nil, ErrCampaignNotFound
	}

	resp := ToCampaignResponse(*campaign)
	return &resp, nil
}

// ListCampaigns returns a filtered page of campaigns sorted newest first
func (f *campaignFlow) ListCampaigns(ctx context.Context, filter dto.ListCampaignsFilter) (*dto.ListCampaignsResponse, error) {
	if filter.Page < 1 {
		return nil, ErrInvalidPage
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		return nil, ErrInvalidPageSize
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.StartDate.After(*filter.EndDate) {
		return nil, ErrStartDateAfterEndDate
	}

	repoFilter := models.CampaignFilter{
		Title:         filter.Title,
		CreatedBy:     filter.CreatedBy,
		CreatedAfter:  filter.StartDate,
		CreatedBefore: filter.EndDate,
	}
	if filter.Status != nil {
		status := models.CampaignStatus(*filter.Status)
		if !status.Valid() {
			return nil, NewBusinessError("INVALID_STATUS", fmt.Sprintf("invalid status filter: %s", *filter.Status), nil)
		}
		repoFilter.Status = &status
	}
	if filter.Type != nil {
		campaignType := models.CampaignType(*filter.Type)
		if !campaignType.Valid() {
			return nil, ErrCampaignTypeInvalid
		}
		repoFilter.Type = &campaignType
	}

	total, err := f.campaignRepo.Count(ctx, repoFilter)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LIST_FAILED", "failed to count campaigns", err)
	}

	offset := (filter.Page - 1) * filter.PageSize
	campaigns, err := f.campaignRepo.ByFilter(ctx, repoFilter, "created_at DESC", filter.PageSize, offset)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LIST_FAILED", "failed to list campaigns", err)
	}

	items := make([]dto.CampaignResponse, 0, len(campaigns))
	for _, c := range campaigns {
		items = append(items, ToCampaignResponse(*c))
	}

	return &dto.ListCampaignsResponse{
		Message: "campaigns retrieved successfully",
		Items:   items,
		Total:   total,
	}, nil
}

// PreviewAudience reports how many clients and recipient rows the campaign
// would produce if processed now, without writing anything.
func (f *campaignFlow) PreviewAudience(ctx context.Context, campaignUUID string) (*dto.AudiencePreviewResponse, error) {
	campaign, err := f.campaignRepo.ByUUID(ctx, campaignUUID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "failed to find campaign", err)
	}
	if campaign == nil {
		return nil, ErrCampaignNotFound
	}

	clients, err := f.resolver.Resolve(ctx, campaign.TargetAudience)
	if err != nil {
		return nil, err
	}

	perChannel := make(map[string]int64)
	var totalRecipients int64
	for _, client := range clients {
		for _, ch := range EligibleChannels(campaign, client) {
			perChannel[string(ch)]++
			totalRecipients++
		}
	}

	return &dto.AudiencePreviewResponse{
		TotalClients:    int64(len(clients)),
		TotalRecipients: totalRecipients,
		PerChannel:      perChannel,
	}, nil
}

// enqueueIfDue hands a campaign that can be processed right now to the worker
// queue. Scheduled campaigns whose send time has not arrived stay with the
// sweep. A full queue is not an error; the sweep finds the campaign again.
func (f *campaignFlow) enqueueIfDue(campaign *models.Campaign) {
	if f.enqueuer == nil {
		return
	}
	due := campaign.Status == models.CampaignStatusApproved ||
		(campaign.Status == models.CampaignStatusScheduled &&
			campaign.ScheduledAt != nil && !campaign.ScheduledAt.After(utils.UTCNow()))
	if due {
		f.enqueuer.Enqueue(campaign.ID)
	}
}

// audit records an audit trail entry. Audit failures never fail the business
// operation; the entry is written on a best effort basis.
func (f *campaignFlow) audit(ctx context.Context, actorID uint, campaignID *uint, action, description string, metadata *ClientMetadata, success bool, errMsg *string) {
	entry := &models.AuditLog{
		ActorID:      &actorID,
		CampaignID:   campaignID,
		Action:       action,
		Description:  &description,
		Success:      &success,
		ErrorMessage: errMsg,
		CreatedAt:    utils.UTCNow(),
	}
	if metadata != nil {
		if metadata.IPAddress != "" {
			entry.IPAddress = &metadata.IPAddress
		}
		if metadata.UserAgent != "" {
			entry.UserAgent = &metadata.UserAgent
		}
		if metadata.RequestID != "" {
			entry.RequestID = &metadata.RequestID
		}
		if raw, err := json.Marshal(metadata); err == nil {
			entry.Metadata = raw
		}
	}
	_ = f.auditRepo.Save(ctx, entry)
}

func validateCampaignContent(title, content string, channels []string, campaignType string) error {
	if title == "" {
		return ErrCampaignTitleRequired
	}
	if content == "" {
		return ErrCampaignContentRequired
	}
	if len(channels) == 0 {
		return ErrCampaignChannelsRequired
	}
	for _, ch := range channels {
		if !models.Channel(ch).Valid() {
			return ErrChannelInvalid
		}
	}
	if !models.CampaignType(campaignType).Valid() {
		return ErrCampaignTypeInvalid
	}
	return nil
}

// validateTargeting rejects location entries with nothing set. Such an entry
// would widen the audience to every active client instead of narrowing it.
func validateTargeting(spec models.TargetAudienceSpec) error {
	for _, loc := range spec.Locations {
		if loc.IsEmpty() {
			return ErrLocationEntryEmpty
		}
	}
	return nil
}

func hasUpdateFields(req *dto.UpdateCampaignRequest) bool {
	return req.Title != nil || req.Description != nil || len(req.Channels) > 0 ||
		req.Content != nil || req.ChannelOverrides != nil || req.TargetAudience != nil ||
		req.ABTest != nil || req.ScheduledAt != nil
}
