package dto

// StatusBreakdownItem is one status bucket of campaign analytics
type StatusBreakdownItem struct {
	Status          string  `json:"status"`
	Count           int64   `json:"count"`
	EngagementScore float64 `json:"engagement_score"`
	Revenue         float64 `json:"revenue"`
}

// ChannelBreakdownItem is one channel bucket of campaign analytics
type ChannelBreakdownItem struct {
	Channel   string  `json:"channel"`
	Total     int64   `json:"total"`
	Sent      int64   `json:"sent"`
	Delivered int64   `json:"delivered"`
	Opened    int64   `json:"opened"`
	Clicked   int64   `json:"clicked"`
	Converted int64   `json:"converted"`
	Revenue   float64 `json:"revenue"`
	Cost      float64 `json:"cost"`
}

// VariantBreakdownItem is one A/B variant bucket of campaign analytics
type VariantBreakdownItem struct {
	Variant   string  `json:"variant"`
	Total     int64   `json:"total"`
	Delivered int64   `json:"delivered"`
	Opened    int64   `json:"opened"`
	Clicked   int64   `json:"clicked"`
	Converted int64   `json:"converted"`
	Revenue   float64 `json:"revenue"`
}

// CampaignRates holds the derived percentage metrics of a campaign
type CampaignRates struct {
	DeliveryRate   float64 `json:"delivery_rate"`
	OpenRate       float64 `json:"open_rate"`
	ClickRate      float64 `json:"click_rate"`
	ConversionRate float64 `json:"conversion_rate"`
	ROI            float64 `json:"roi"`
}

// RecordDeliveryRequest carries the channel cost reported on delivery
type RecordDeliveryRequest struct {
	Cost float64 `json:"cost" validate:"gte=0"`
}

// RecordConversionRequest carries the revenue attributed to a recipient
type RecordConversionRequest struct {
	Revenue float64 `json:"revenue" validate:"gte=0"`
}

// CampaignAnalyticsResponse is the aggregated read model for one campaign
type CampaignAnalyticsResponse struct {
	CampaignID       uint                   `json:"campaign_id"`
	CampaignUUID     string                 `json:"campaign_uuid"`
	Title            string                 `json:"title"`
	Status           string                 `json:"status"`
	TotalRecipients  int64                  `json:"total_recipients"`
	StatusBreakdown  []StatusBreakdownItem  `json:"status_breakdown"`
	ChannelBreakdown []ChannelBreakdownItem `json:"channel_breakdown"`
	VariantBreakdown []VariantBreakdownItem `json:"variant_breakdown,omitempty"`
	Rates            CampaignRates          `json:"rates"`
}
