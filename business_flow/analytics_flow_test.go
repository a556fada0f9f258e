package businessflow

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velora/backoffice/models"
	"github.com/velora/backoffice/repository"
)

func TestComputeRates(t *testing.T) {
	stats := models.CampaignStats{
		TotalRecipients: 200,
		DeliveredCount:  100,
		OpenedCount:     50,
		ClickedCount:    10,
		ConvertedCount:  4,
		ROI:             35,
	}

	rates := ComputeRates(stats)
	assert.InDelta(t, 50.0, rates.DeliveryRate, 0.001)
	assert.InDelta(t, 50.0, rates.OpenRate, 0.001)
	assert.InDelta(t, 20.0, rates.ClickRate, 0.001)
	assert.InDelta(t, 2.0, rates.ConversionRate, 0.001)
	assert.InDelta(t, 35.0, rates.ROI, 0.001)
}

func TestComputeRatesGuardsZeroDenominators(t *testing.T) {
	rates := ComputeRates(models.CampaignStats{})
	assert.Zero(t, rates.DeliveryRate)
	assert.Zero(t, rates.OpenRate)
	assert.Zero(t, rates.ClickRate)
	assert.Zero(t, rates.ConversionRate)
	assert.Zero(t, rates.ROI)

	// Delivered without opens still guards the click rate
	rates = ComputeRates(models.CampaignStats{TotalRecipients: 10, DeliveredCount: 5})
	assert.InDelta(t, 50.0, rates.DeliveryRate, 0.001)
	assert.Zero(t, rates.OpenRate)
	assert.Zero(t, rates.ClickRate)
}

func newAnalyticsFixture() (AnalyticsFlow, *fakeCampaignRepo, *fakeRecipientRepo) {
	campaignRepo := newFakeCampaignRepo()
	recipientRepo := newFakeRecipientRepo()
	flow := NewAnalyticsFlow(campaignRepo, recipientRepo, nil, 0)
	return flow, campaignRepo, recipientRepo
}

func TestCampaignAnalytics(t *testing.T) {
	flow, campaignRepo, recipientRepo := newAnalyticsFixture()

	campaign := campaignRepo.add(&models.Campaign{
		Title:    "Renewal Blast",
		Type:     models.CampaignTypeReminder,
		Channels: []string{"email"},
		Content:  "content",
		Status:   models.CampaignStatusSent,
		Stats: models.CampaignStats{
			TotalRecipients: 100,
			SentCount:       100,
			DeliveredCount:  80,
			OpenedCount:     40,
		},
	})

	recipientRepo.statusRows = []repository.StatusAggregate{
		{Status: models.RecipientStatusDelivered, Count: 40},
		{Status: models.RecipientStatusOpened, Count: 40, EngagementScore: 2.5},
	}
	recipientRepo.channelRows = []repository.ChannelAggregate{
		{Channel: models.ChannelEmail, Total: 100, Sent: 90, Delivered: 80, Opened: 40, Revenue: 1200, Cost: 10},
	}

	resp, err := flow.CampaignAnalytics(context.Background(), campaign.UUID.String())
	require.NoError(t, err)

	assert.Equal(t, campaign.ID, resp.CampaignID)
	assert.Equal(t, "Renewal Blast", resp.Title)
	assert.Equal(t, int64(100), resp.TotalRecipients)
	assert.InDelta(t, 80.0, resp.Rates.DeliveryRate, 0.001)
	assert.InDelta(t, 50.0, resp.Rates.OpenRate, 0.001)

	require.Len(t, resp.StatusBreakdown, 2)
	assert.Equal(t, "opened", resp.StatusBreakdown[1].Status)
	assert.InDelta(t, 2.5, resp.StatusBreakdown[1].EngagementScore, 0.001)

	require.Len(t, resp.ChannelBreakdown, 1)
	assert.Equal(t, "email", resp.ChannelBreakdown[0].Channel)
	assert.Equal(t, int64(90), resp.ChannelBreakdown[0].Sent)
	assert.Equal(t, int64(80), resp.ChannelBreakdown[0].Delivered)

	// A/B disabled campaigns skip the variant breakdown
	assert.Empty(t, resp.VariantBreakdown)
}

func TestCampaignAnalyticsIncludesVariantsWhenEnabled(t *testing.T) {
	flow, campaignRepo, recipientRepo := newAnalyticsFixture()

	campaign := campaignRepo.add(&models.Campaign{
		Title:    "Split Test",
		Type:     models.CampaignTypeOffer,
		Channels: []string{"email"},
		Content:  "content",
		Status:   models.CampaignStatusSent,
		ABTest: models.ABTestSpec{
			Enabled: true,
			Variants: []models.ABVariant{
				{Name: "A", Percentage: 50},
				{Name: "B", Percentage: 50},
			},
		},
	})

	recipientRepo.variantRows = []repository.VariantAggregate{
		{Variant: "A", Total: 50, Delivered: 45, Converted: 5, Revenue: 500},
		{Variant: "B", Total: 50, Delivered: 48, Converted: 2, Revenue: 150},
	}

	resp, err := flow.CampaignAnalytics(context.Background(), campaign.UUID.String())
	require.NoError(t, err)

	require.Len(t, resp.VariantBreakdown, 2)
	assert.Equal(t, "A", resp.VariantBreakdown[0].Variant)
	assert.Equal(t, int64(45), resp.VariantBreakdown[0].Delivered)
	assert.InDelta(t, 150.0, resp.VariantBreakdown[1].Revenue, 0.001)
}

func TestCampaignAnalyticsNotFound(t *testing.T) {
	flow, _, _ := newAnalyticsFixture()
	_, err := flow.CampaignAnalytics(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrCampaignNotFound)
}

func TestCampaignAnalyticsRequiresUUID(t *testing.T) {
	flow, _, _ := newAnalyticsFixture()
	_, err := flow.CampaignAnalytics(context.Background(), "")
	assert.ErrorIs(t, err, ErrCampaignUUIDRequired)
}

func TestExportAnalytics(t *testing.T) {
	flow, campaignRepo, recipientRepo := newAnalyticsFixture()

	campaign := campaignRepo.add(&models.Campaign{
		Title:    "Renewal Blast",
		Type:     models.CampaignTypeReminder,
		Channels: []string{"email"},
		Content:  "content",
		Status:   models.CampaignStatusSent,
		Stats:    models.CampaignStats{TotalRecipients: 10, DeliveredCount: 8},
	})
	recipientRepo.channelRows = []repository.ChannelAggregate{
		{Channel: models.ChannelEmail, Total: 10, Delivered: 8},
	}

	raw, err := flow.ExportAnalytics(context.Background(), campaign.UUID.String())
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	// XLSX files are zip archives
	assert.Equal(t, byte('P'), raw[0])
	assert.Equal(t, byte('K'), raw[1])
}
