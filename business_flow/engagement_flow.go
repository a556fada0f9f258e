package businessflow

import (
	"context"

	"github.com/velora/backoffice/models"
	"github.com/velora/backoffice/repository"
)

// EngagementFlow records delivery and engagement events on recipients and
// rolls them up into the campaign stats snapshot.
type EngagementFlow interface {
	RecordDelivery(ctx context.Context, recipientID uint, cost float64) error
	RecordOpen(ctx context.Context, recipientID uint) error
	RecordClick(ctx context.Context, recipientID uint) error
	RecordConversion(ctx context.Context, recipientID uint, revenue float64) error
}

type engagementFlow struct {
	campaignRepo  repository.CampaignRepository
	recipientRepo repository.CampaignRecipientRepository
}

// NewEngagementFlow creates a new engagement flow instance
func NewEngagementFlow(
	campaignRepo repository.CampaignRepository,
	recipientRepo repository.CampaignRecipientRepository,
) EngagementFlow {
	return &engagementFlow{
		campaignRepo:  campaignRepo,
		recipientRepo: recipientRepo,
	}
}

// RecordDelivery marks a pending recipient delivered and records the channel cost
func (f *engagementFlow) RecordDelivery(ctx context.Context, recipientID uint, cost float64) error {
	recipient, err := f.lookup(ctx, recipientID)
	if err != nil {
		return err
	}
	if err := f.recipientRepo.MarkDelivered(ctx, recipientID, cost); err != nil {
		return NewBusinessError("ENGAGEMENT_UPDATE_FAILED", "failed to mark recipient delivered", err)
	}
	return f.refreshStats(ctx, recipient.CampaignID)
}

// RecordOpen marks a delivered recipient opened
func (f *engagementFlow) RecordOpen(ctx context.Context, recipientID uint) error {
	recipient, err := f.lookup(ctx, recipientID)
	if err != nil {
		return err
	}
	if err := f.recipientRepo.MarkOpened(ctx, recipientID); err != nil {
		return NewBusinessError("ENGAGEMENT_UPDATE_FAILED", "failed to mark recipient opened", err)
	}
	return f.refreshStats(ctx, recipient.CampaignID)
}

// RecordClick increments the recipient click counter
func (f *engagementFlow) RecordClick(ctx context.Context, recipientID uint) error {
	recipient, err := f.lookup(ctx, recipientID)
	if err != nil {
		return err
	}
	if err := f.recipientRepo.RecordClick(ctx, recipientID); err != nil {
		return NewBusinessError("ENGAGEMENT_UPDATE_FAILED", "failed to record click", err)
	}
	return f.refreshStats(ctx, recipient.CampaignID)
}

// RecordConversion attributes revenue to the recipient
func (f *engagementFlow) RecordConversion(ctx context.Context, recipientID uint, revenue float64) error {
	recipient, err := f.lookup(ctx, recipientID)
	if err != nil {
		return err
	}
	if err := f.recipientRepo.RecordConversion(ctx, recipientID, revenue); err != nil {
		return NewBusinessError("ENGAGEMENT_UPDATE_FAILED", "failed to record conversion", err)
	}
	return f.refreshStats(ctx, recipient.CampaignID)
}

func (f *engagementFlow) lookup(ctx context.Context, recipientID uint) (*models.CampaignRecipient, error) {
	recipient, err := f.recipientRepo.ByID(ctx, recipientID)
	if err != nil {
		return nil, NewBusinessError("RECIPIENT_LOOKUP_FAILED", "failed to find recipient", err)
	}
	if recipient == nil {
		return nil, ErrRecipientNotFound
	}
	return recipient, nil
}

// refreshStats recomputes the denormalized campaign counters from the channel
// breakdown. ROI is net revenue over cost; a campaign with zero recorded cost
// reports zero ROI rather than dividing by nothing.
func (f *engagementFlow) refreshStats(ctx context.Context, campaignID uint) error {
	campaign, err := f.campaignRepo.ByID(ctx, campaignID)
	if err != nil {
		return NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "failed to find campaign", err)
	}
	if campaign == nil {
		return ErrCampaignNotFound
	}

	rows, err := f.recipientRepo.ChannelBreakdown(ctx, campaignID)
	if err != nil {
		return NewBusinessError("STATS_REFRESH_FAILED", "failed to aggregate channel breakdown", err)
	}

	stats := campaign.Stats
	stats.SentCount = 0
	stats.DeliveredCount = 0
	stats.OpenedCount = 0
	stats.ClickedCount = 0
	stats.ConvertedCount = 0

	var revenue, cost float64
	for _, row := range rows {
		stats.SentCount += row.Sent
		stats.DeliveredCount += row.Delivered
		stats.OpenedCount += row.Opened
		stats.ClickedCount += row.Clicked
		stats.ConvertedCount += row.Converted
		revenue += row.Revenue
		cost += row.Cost
	}

	stats.ROI = 0
	if cost > 0 {
		stats.ROI = (revenue - cost) / cost * 100
	}

	if err := f.campaignRepo.UpdateStats(ctx, campaignID, stats); err != nil {
		return NewBusinessError("STATS_REFRESH_FAILED", "failed to update campaign stats", err)
	}
	return nil
}
