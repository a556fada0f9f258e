package businessflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velora/backoffice/models"
	"github.com/velora/backoffice/repository"
)

func newEngagementFixture() (EngagementFlow, *fakeCampaignRepo, *fakeRecipientRepo) {
	campaignRepo := newFakeCampaignRepo()
	recipientRepo := newFakeRecipientRepo()
	flow := NewEngagementFlow(campaignRepo, recipientRepo)
	return flow, campaignRepo, recipientRepo
}

func TestRecordDeliveryRefreshesStats(t *testing.T) {
	flow, campaignRepo, recipientRepo := newEngagementFixture()

	campaign := campaignRepo.add(&models.Campaign{
		Title:    "Renewal Blast",
		Type:     models.CampaignTypeReminder,
		Channels: []string{"email"},
		Content:  "content",
		Status:   models.CampaignStatusSent,
		Stats:    models.CampaignStats{TotalRecipients: 2, SentCount: 2},
	})

	recipient := &models.CampaignRecipient{CampaignID: campaign.ID, ClientID: 1, Channel: models.ChannelEmail}
	require.NoError(t, recipientRepo.Save(context.Background(), recipient))

	recipientRepo.channelRows = []repository.ChannelAggregate{
		{Channel: models.ChannelEmail, Total: 2, Sent: 1, Delivered: 1, Revenue: 120, Cost: 30},
	}

	require.NoError(t, flow.RecordDelivery(context.Background(), recipient.ID, 0.001))

	assert.InDelta(t, 0.001, recipientRepo.delivered[recipient.ID], 0.0001)
	require.Len(t, campaignRepo.statsUpdates, 1)

	stats := campaignRepo.statsUpdates[0]
	assert.Equal(t, int64(1), stats.SentCount)
	assert.Equal(t, int64(1), stats.DeliveredCount)
	assert.Equal(t, int64(2), stats.TotalRecipients)
	assert.InDelta(t, 300.0, stats.ROI, 0.001)
}

func TestRefreshStatsZeroCostReportsZeroROI(t *testing.T) {
	flow, campaignRepo, recipientRepo := newEngagementFixture()

	campaign := campaignRepo.add(&models.Campaign{
		Title:    "Free Channel",
		Type:     models.CampaignTypeNewsletter,
		Channels: []string{"email"},
		Content:  "content",
		Status:   models.CampaignStatusSent,
	})

	recipient := &models.CampaignRecipient{CampaignID: campaign.ID, ClientID: 1, Channel: models.ChannelEmail}
	require.NoError(t, recipientRepo.Save(context.Background(), recipient))

	recipientRepo.channelRows = []repository.ChannelAggregate{
		{Channel: models.ChannelEmail, Total: 1, Delivered: 1, Revenue: 500, Cost: 0},
	}

	require.NoError(t, flow.RecordOpen(context.Background(), recipient.ID))

	require.Len(t, campaignRepo.statsUpdates, 1)
	assert.Zero(t, campaignRepo.statsUpdates[0].ROI)
}

func TestRecordConversionAggregatesAcrossChannels(t *testing.T) {
	flow, campaignRepo, recipientRepo := newEngagementFixture()

	campaign := campaignRepo.add(&models.Campaign{
		Title:    "Cross Channel",
		Type:     models.CampaignTypeOffer,
		Channels: []string{"email", "sms"},
		Content:  "content",
		Status:   models.CampaignStatusSent,
	})

	recipient := &models.CampaignRecipient{CampaignID: campaign.ID, ClientID: 1, Channel: models.ChannelSMS}
	require.NoError(t, recipientRepo.Save(context.Background(), recipient))

	recipientRepo.channelRows = []repository.ChannelAggregate{
		{Channel: models.ChannelEmail, Sent: 12, Delivered: 10, Opened: 5, Clicked: 2, Converted: 1, Revenue: 100, Cost: 20},
		{Channel: models.ChannelSMS, Sent: 8, Delivered: 8, Opened: 3, Clicked: 1, Converted: 1, Revenue: 80, Cost: 40},
	}

	require.NoError(t, flow.RecordConversion(context.Background(), recipient.ID, 80))

	assert.InDelta(t, 80.0, recipientRepo.converted[recipient.ID], 0.001)
	require.Len(t, campaignRepo.statsUpdates, 1)

	stats := campaignRepo.statsUpdates[0]
	assert.Equal(t, int64(20), stats.SentCount)
	assert.Equal(t, int64(18), stats.DeliveredCount)
	assert.Equal(t, int64(8), stats.OpenedCount)
	assert.Equal(t, int64(3), stats.ClickedCount)
	assert.Equal(t, int64(2), stats.ConvertedCount)
	assert.InDelta(t, 200.0, stats.ROI, 0.001)
}

func TestEngagementRecipientNotFound(t *testing.T) {
	flow, _, _ := newEngagementFixture()

	err := flow.RecordClick(context.Background(), 99)
	assert.ErrorIs(t, err, ErrRecipientNotFound)
	assert.True(t, IsRecipientNotFound(err))
}
