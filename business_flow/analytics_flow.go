package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/velora/backoffice/app/dto"
	"github.com/velora/backoffice/models"
	"github.com/velora/backoffice/repository"
	"github.com/xuri/excelize/v2"
)

// AnalyticsFlow builds the campaign analytics read model
type AnalyticsFlow interface {
	CampaignAnalytics(ctx context.Context, campaignUUID string) (*dto.CampaignAnalyticsResponse, error)
	ExportAnalytics(ctx context.Context, campaignUUID string) ([]byte, error)
}

type analyticsFlow struct {
	campaignRepo  repository.CampaignRepository
	recipientRepo repository.CampaignRecipientRepository
	cache         *redis.Client
	cacheTTL      time.Duration
}

// NewAnalyticsFlow creates a new analytics flow instance. A nil cache disables caching.
func NewAnalyticsFlow(
	campaignRepo repository.CampaignRepository,
	recipientRepo repository.CampaignRecipientRepository,
	cache *redis.Client,
	cacheTTL time.Duration,
) AnalyticsFlow {
	return &analyticsFlow{
		campaignRepo:  campaignRepo,
		recipientRepo: recipientRepo,
		cache:         cache,
		cacheTTL:      cacheTTL,
	}
}

// CampaignAnalytics aggregates recipient breakdowns and derived rates for one
// campaign. Responses are cached briefly; engagement events make the read
// model eventually consistent, not live.
func (f *analyticsFlow) CampaignAnalytics(ctx context.Context, campaignUUID string) (*dto.CampaignAnalyticsResponse, error) {
	if campaignUUID == "" {
		return nil, ErrCampaignUUIDRequired
	}

	cacheKey := analyticsCacheKey(campaignUUID)
	if f.cache != nil {
		if raw, err := f.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached dto.CampaignAnalyticsResponse
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	campaign, err := f.campaignRepo.ByUUID(ctx, campaignUUID)
	if err != nil {
		return nil, NewBusinessError("CAMPAIGN_LOOKUP_FAILED", "failed to find campaign", err)
	}
	if campaign == nil {
		return nil, ErrCampaignNotFound
	}

	statusRows, err := f.recipientRepo.StatusBreakdown(ctx, campaign.ID)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_QUERY_FAILED", "failed to aggregate status breakdown", err)
	}
	channelRows, err := f.recipientRepo.ChannelBreakdown(ctx, campaign.ID)
	if err != nil {
		return nil, NewBusinessError("ANALYTICS_QUERY_FAILED", "failed to aggregate channel breakdown", err)
	}

	resp := &dto.CampaignAnalyticsResponse{
		CampaignID:      campaign.ID,
		CampaignUUID:    campaign.UUID.String(),
		Title:           campaign.Title,
		Status:          campaign.Status.String(),
		TotalRecipients: campaign.Stats.TotalRecipients,
		Rates:           ComputeRates(campaign.Stats),
	}

	resp.StatusBreakdown = make([]dto.StatusBreakdownItem, 0, len(statusRows))
	for _, row := range statusRows {
		resp.StatusBreakdown = append(resp.StatusBreakdown, dto.StatusBreakdownItem{
			Status:          row.Status.String(),
			Count:           row.Count,
			EngagementScore: row.EngagementScore,
			Revenue:         row.Revenue,
		})
	}

	resp.ChannelBreakdown = make([]dto.ChannelBreakdownItem, 0, len(channelRows))
	for _, row := range channelRows {
		resp.ChannelBreakdown = append(resp.ChannelBreakdown, dto.ChannelBreakdownItem{
			Channel:   string(row.Channel),
			Total:     row.Total,
			Sent:      row.Sent,
			Delivered: row.Delivered,
			Opened:    row.Opened,
			Clicked:   row.Clicked,
			Converted: row.Converted,
			Revenue:   row.Revenue,
			Cost:      row.Cost,
		})
	}

	if campaign.ABTest.Enabled {
		variantRows, err := f.recipientRepo.VariantBreakdown(ctx, campaign.ID)
		if err != nil {
			return nil, NewBusinessError("ANALYTICS_QUERY_FAILED", "failed to aggregate variant breakdown", err)
		}
		resp.VariantBreakdown = make([]dto.VariantBreakdownItem, 0, len(variantRows))
		for _, row := range variantRows {
			resp.VariantBreakdown = append(resp.VariantBreakdown, dto.VariantBreakdownItem{
				Variant:   row.Variant,
				Total:     row.Total,
				Delivered: row.Delivered,
				Opened:    row.Opened,
				Clicked:   row.Clicked,
				Converted: row.Converted,
				Revenue:   row.Revenue,
			})
		}
	}

	if f.cache != nil {
		if raw, err := json.Marshal(resp); err == nil {
			f.cache.Set(ctx, cacheKey, raw, f.cacheTTL)
		}
	}

	return resp, nil
}

// ExportAnalytics renders the analytics read model as an XLSX workbook
func (f *analyticsFlow) ExportAnalytics(ctx context.Context, campaignUUID string) ([]byte, error) {
	analytics, err := f.CampaignAnalytics(ctx, campaignUUID)
	if err != nil {
		return nil, err
	}

	wb := excelize.NewFile()
	defer wb.Close()

	summary := "Summary"
	if err := wb.SetSheetName("Sheet1", summary); err != nil {
		return nil, err
	}

	summaryRows := [][]any{
		{"Campaign", analytics.Title},
		{"UUID", analytics.CampaignUUID},
		{"Status", analytics.Status},
		{"Total Recipients", analytics.TotalRecipients},
		{"Delivery Rate (%)", analytics.Rates.DeliveryRate},
		{"Open Rate (%)", analytics.Rates.OpenRate},
		{"Click Rate (%)", analytics.Rates.ClickRate},
		{"Conversion Rate (%)", analytics.Rates.ConversionRate},
		{"ROI (%)", analytics.Rates.ROI},
	}
	for i, row := range summaryRows {
		cell := fmt.Sprintf("A%d", i+1)
		if err := wb.SetSheetRow(summary, cell, &row); err != nil {
			return nil, err
		}
	}

	channels := "Channels"
	if _, err := wb.NewSheet(channels); err != nil {
		return nil, err
	}
	header := []any{"Channel", "Total", "Sent", "Delivered", "Opened", "Clicked", "Converted", "Revenue", "Cost"}
	if err := wb.SetSheetRow(channels, "A1", &header); err != nil {
		return nil, err
	}
	for i, row := range analytics.ChannelBreakdown {
		values := []any{row.Channel, row.Total, row.Sent, row.Delivered, row.Opened, row.Clicked, row.Converted, row.Revenue, row.Cost}
		if err := wb.SetSheetRow(channels, fmt.Sprintf("A%d", i+2), &values); err != nil {
			return nil, err
		}
	}

	if len(analytics.VariantBreakdown) > 0 {
		variants := "Variants"
		if _, err := wb.NewSheet(variants); err != nil {
			return nil, err
		}
		header := []any{"Variant", "Total", "Delivered", "Opened", "Clicked", "Converted", "Revenue"}
		if err := wb.SetSheetRow(variants, "A1", &header); err != nil {
			return nil, err
		}
		for i, row := range analytics.VariantBreakdown {
			values := []any{row.Variant, row.Total, row.Delivered, row.Opened, row.Clicked, row.Converted, row.Revenue}
			if err := wb.SetSheetRow(variants, fmt.Sprintf("A%d", i+2), &values); err != nil {
				return nil, err
			}
		}
	}

	buf, err := wb.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ComputeRates derives percentage metrics from the campaign stats snapshot.
// Every ratio guards its denominator; a campaign with no recipients reports
// zero across the board.
func ComputeRates(stats models.CampaignStats) dto.CampaignRates {
	rates := dto.CampaignRates{ROI: stats.ROI}
	if stats.TotalRecipients > 0 {
		rates.DeliveryRate = float64(stats.DeliveredCount) / float64(stats.TotalRecipients) * 100
		rates.ConversionRate = float64(stats.ConvertedCount) / float64(stats.TotalRecipients) * 100
	}
	if stats.DeliveredCount > 0 {
		rates.OpenRate = float64(stats.OpenedCount) / float64(stats.DeliveredCount) * 100
	}
	if stats.OpenedCount > 0 {
		rates.ClickRate = float64(stats.ClickedCount) / float64(stats.OpenedCount) * 100
	}
	return rates
}

func analyticsCacheKey(campaignUUID string) string {
	return fmt.Sprintf("analytics:campaign:%s", campaignUUID)
}
