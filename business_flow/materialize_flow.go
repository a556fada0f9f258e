package businessflow

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/velora/backoffice/app/dto"
	"github.com/velora/backoffice/app/services"
	"github.com/velora/backoffice/models"
	"github.com/velora/backoffice/repository"
	"github.com/velora/backoffice/utils"
	"gorm.io/gorm"
)

// DrawFunc produces a variant draw in [0, 100)
type DrawFunc func() float64

// UniformDraw is the default draw: uniform over [0, 100)
func UniformDraw() float64 {
	return rand.Float64() * utils.VariantDrawUpperBound
}

// MaterializeFlow turns claimed campaigns into recipient rows and queued messages
type MaterializeFlow interface {
	ProcessCampaign(ctx context.Context, campaignID uint) (*dto.ProcessCampaignResponse, error)
	HandleTrigger(ctx context.Context, triggerType string) ([]*dto.ProcessCampaignResponse, error)
}

type materializeFlow struct {
	campaignRepo  repository.CampaignRepository
	recipientRepo repository.CampaignRecipientRepository
	messageRepo   repository.OutboundMessageRepository
	auditRepo     repository.AuditLogRepository
	resolver      *AudienceResolver
	dispatcher    services.DispatchService
	draw          DrawFunc
	db            *gorm.DB
}

// NewMaterializeFlow creates a new materialize flow instance.
// A nil draw falls back to a uniform random draw.
func NewMaterializeFlow(
	campaignRepo repository.CampaignRepository,
	recipientRepo repository.CampaignRecipientRepository,
	messageRepo repository.OutboundMessageRepository,
	auditRepo repository.AuditLogRepository,
	resolver *AudienceResolver,
	dispatcher services.DispatchService,
	draw DrawFunc,
	db *gorm.DB,
) MaterializeFlow {
	if draw == nil {
		draw = UniformDraw
	}
	return &materializeFlow{
		campaignRepo:  campaignRepo,
		recipientRepo: recipientRepo,
		messageRepo:   messageRepo,
		auditRepo:     auditRepo,
		resolver:      resolver,
		dispatcher:    dispatcher,
		draw:          draw,
		db:            db,
	}
}

type materializedRecipient struct {
	recipient *models.CampaignRecipient
	client    *models.Client
}

// ProcessCampaign claims the campaign, materializes its recipients and queued
// messages in one transaction, and marks the campaign sent. The claim is a
// conditional status update; losing it means another worker owns the campaign
// and the call returns without error. Any failure after a won claim moves the
// campaign to failed.
func (f *materializeFlow) ProcessCampaign(ctx context.Context, campaignID uint) (*dto.ProcessCampaignResponse, error) {
	campaign, err := f.campaignRepo.ByID(ctx, campaignID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "failed to find campaign", err)
	}
	if campaign == nil {
		return nil, ErrCampaignNotFound
	}

	claimed, err := f.campaignRepo.ClaimForSending(ctx, campaignID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_CLAIM_FAILED", "failed to claim campaign for sending", err)
	}
	if !claimed {
		return &dto.ProcessCampaignResponse{
			CampaignID:     campaignID,
			Status:         campaign.Status.String(),
			AlreadyClaimed: true,
		}, nil
	}
	campaign.Status = models.CampaignStatusSending

	materialized, err := f.materialize(ctx, campaign)
	if err != nil {
		f.fail(ctx, campaign, err)
		return nil, err
	}

	if f.dispatcher != nil {
		f.dispatchQueued(ctx, campaign, materialized)
	}

	return &dto.ProcessCampaignResponse{
		CampaignID:      campaignID,
		Status:          models.CampaignStatusSent.String(),
		TotalRecipients: int64(len(materialized)),
	}, nil
}

// HandleTrigger processes every automated campaign bound to the trigger type.
// One failing campaign does not stop the others.
func (f *materializeFlow) HandleTrigger(ctx context.Context, triggerType string) ([]*dto.ProcessCampaignResponse, error) {
	campaigns, err := f.campaignRepo.ListAutomatedByTrigger(ctx, triggerType)
	if err != nil {
		return nil, NewBusinessError("TRIGGER_LOOKUP_FAILED", "failed to list automated campaigns", err)
	}

	responses := make([]*dto.ProcessCampaignResponse, 0, len(campaigns))
	for _, campaign := range campaigns {
		if !campaign.IsProcessable() {
			continue
		}

		resp, err := f.ProcessCampaign(ctx, campaign.ID)
		if err != nil {
			errMsg := err.Error()
			desc := fmt.Sprintf("trigger %q failed for campaign %q", triggerType, campaign.Title)
			f.auditSystem(ctx, &campaign.ID, models.AuditActionTriggerFired, desc, false, &errMsg)
			continue
		}

		desc := fmt.Sprintf("trigger %q processed campaign %q", triggerType, campaign.Title)
		f.auditSystem(ctx, &campaign.ID, models.AuditActionTriggerFired, desc, true, nil)
		responses = append(responses, resp)
	}

	return responses, nil
}

func (f *materializeFlow) materialize(ctx context.Context, campaign *models.Campaign) ([]materializedRecipient, error) {
	clients, err := f.resolver.Resolve(ctx, campaign.TargetAudience)
	if err != nil {
		return nil, err
	}

	variantSent := make(map[string]int64)
	materialized := make([]materializedRecipient, 0, len(clients))

	for _, client := range clients {
		for _, ch := range EligibleChannels(campaign, client) {
			var variant *models.ABVariant
			if campaign.ABTest.Enabled && len(campaign.ABTest.Variants) > 0 {
				variant = AssignVariant(f.draw(), campaign.ABTest.Variants)
			}

			subject, template := campaign.ContentForChannel(ch)
			if variant != nil && variant.Content != "" {
				template = variant.Content
			}

			recipient := &models.CampaignRecipient{
				CampaignID: campaign.ID,
				ClientID:   client.ID,
				Channel:    ch,
				Status:     models.RecipientStatusPending,
				Content: models.PersonalizedContent{
					Subject:   Personalize(subject, client),
					Content:   Personalize(template, client),
					Variables: PersonalizationVariables(client),
				},
			}
			if variant != nil {
				name := variant.Name
				recipient.ABVariant = &name
				variantSent[name]++
			}

			materialized = append(materialized, materializedRecipient{recipient: recipient, client: client})
		}
	}

	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		recipients := make([]*models.CampaignRecipient, len(materialized))
		for i := range materialized {
			recipients[i] = materialized[i].recipient
		}
		if err := f.recipientRepo.SaveBatch(txCtx, recipients); err != nil {
			return NewBusinessError("RECIPIENT_SAVE_FAILED", "failed to save recipients", err)
		}

		now := utils.UTCNow()
		messages := make([]*models.OutboundMessage, 0, len(materialized))
		for _, m := range materialized {
			msg := &models.OutboundMessage{
				CampaignID:  campaign.ID,
				RecipientID: m.recipient.ID,
				ClientID:    m.recipient.ClientID,
				Channel:     m.recipient.Channel,
				Content:     m.recipient.Content.Content,
				Status:      models.OutboundMessageStatusQueued,
				ScheduledAt: &now,
			}
			if m.recipient.Content.Subject != "" {
				subject := m.recipient.Content.Subject
				msg.Subject = &subject
			}
			messages = append(messages, msg)
		}
		if err := f.messageRepo.SaveBatch(txCtx, messages); err != nil {
			return NewBusinessError("MESSAGE_SAVE_FAILED", "failed to save outbound messages", err)
		}

		campaign.Stats.TotalRecipients = int64(len(materialized))
		if err := f.campaignRepo.UpdateStats(txCtx, campaign.ID, campaign.Stats); err != nil {
			return NewBusinessError("STATS_UPDATE_FAILED", "failed to update campaign stats", err)
		}

		if campaign.ABTest.Enabled && len(variantSent) > 0 {
			for i := range campaign.ABTest.Variants {
				campaign.ABTest.Variants[i].Stats.Sent += variantSent[campaign.ABTest.Variants[i].Name]
			}
			if err := f.campaignRepo.UpdateABTest(txCtx, campaign.ID, campaign.ABTest); err != nil {
				return NewBusinessError("ABTEST_UPDATE_FAILED", "failed to update variant tallies", err)
			}
		}

		if err := f.campaignRepo.UpdateStatus(txCtx, campaign.ID, models.CampaignStatusSent); err != nil {
			return NewBusinessError("STATUS_UPDATE_FAILED", "failed to mark campaign sent", err)
		}

		desc := fmt.Sprintf("campaign %q processed: %d recipients", campaign.Title, len(materialized))
		f.auditSystem(txCtx, &campaign.ID, models.AuditActionCampaignProcessed, desc, true, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}

	campaign.Status = models.CampaignStatusSent
	return materialized, nil
}

// fail moves a claimed campaign to failed and records why
func (f *materializeFlow) fail(ctx context.Context, campaign *models.Campaign, cause error) {
	_ = f.campaignRepo.UpdateStatus(ctx, campaign.ID, models.CampaignStatusFailed)
	errMsg := cause.Error()
	desc := fmt.Sprintf("campaign %q processing failed", campaign.Title)
	f.auditSystem(ctx, &campaign.ID, models.AuditActionCampaignProcessFailed, desc, false, &errMsg)
}

// dispatchQueued hands the freshly queued messages to the channel providers.
// Runs after the materialization transaction commits; per message failures are
// recorded on the message row and never affect the campaign status.
func (f *materializeFlow) dispatchQueued(ctx context.Context, campaign *models.Campaign, materialized []materializedRecipient) {
	messages, err := f.messageRepo.ListQueuedByCampaign(ctx, campaign.ID, len(materialized))
	if err != nil {
		return
	}

	clientsByRecipient := make(map[uint]*models.Client, len(materialized))
	for _, m := range materialized {
		clientsByRecipient[m.recipient.ID] = m.client
	}

	for _, msg := range messages {
		client, ok := clientsByRecipient[msg.RecipientID]
		if !ok {
			continue
		}

		result, err := f.dispatcher.Dispatch(ctx, msg, client)
		if err != nil {
			_ = f.messageRepo.UpdateStatus(ctx, msg.ID, models.OutboundMessageStatusFailed)
			continue
		}

		_ = f.messageRepo.UpdateStatus(ctx, msg.ID, models.OutboundMessageStatusDispatched)
		_ = f.recipientRepo.MarkDelivered(ctx, msg.RecipientID, result.Cost)
	}
}

func (f *materializeFlow) auditSystem(ctx context.Context, campaignID *uint, action, description string, success bool, errMsg *string) {
	entry := &models.AuditLog{
		CampaignID:   campaignID,
		Action:       action,
		Description:  &description,
		Success:      &success,
		ErrorMessage: errMsg,
		RequestID:    utils.RequestIDFromContext(ctx),
		IPAddress:    utils.IPAddressFromContext(ctx),
		UserAgent:    utils.UserAgentFromContext(ctx),
		CreatedAt:    utils.UTCNow(),
	}
	_ = f.auditRepo.Save(ctx, entry)
}
