package dto

import (
	"time"

	"github.com/velora/backoffice/models"
)

// CreateCampaignRequest is the payload for creating a campaign
type CreateCampaignRequest struct {
	Title            string                    `json:"title" validate:"required,min=1,max=255"`
	Description      *string                   `json:"description,omitempty"`
	Type             string                    `json:"type" validate:"required"`
	Channels         []string                  `json:"channels" validate:"required,min=1,dive,oneof=email whatsapp sms"`
	Content          string                    `json:"content" validate:"required"`
	ChannelOverrides models.ChannelOverrides   `json:"channel_overrides,omitempty"`
	TargetAudience   models.TargetAudienceSpec `json:"target_audience"`
	ABTest           *models.ABTestSpec        `json:"ab_test,omitempty"`
	Automation       *models.AutomationSpec    `json:"automation,omitempty"`
	ScheduledAt      *time.Time                `json:"scheduled_at,omitempty"`
}

// UpdateCampaignRequest is the payload for updating an editable campaign
type UpdateCampaignRequest struct {
	UUID             string                     `json:"uuid" validate:"required,uuid4"`
	Title            *string                    `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description      *string                    `json:"description,omitempty"`
	Channels         []string                   `json:"channels,omitempty" validate:"omitempty,min=1,dive,oneof=email whatsapp sms"`
	Content          *string                    `json:"content,omitempty"`
	ChannelOverrides models.ChannelOverrides    `json:"channel_overrides,omitempty"`
	TargetAudience   *models.TargetAudienceSpec `json:"target_audience,omitempty"`
	ABTest           *models.ABTestSpec         `json:"ab_test,omitempty"`
	ScheduledAt      *time.Time                 `json:"scheduled_at,omitempty"`
}

// ApproveCampaignRequest is the payload for approving a pending campaign
type ApproveCampaignRequest struct {
	UUID string `json:"uuid" validate:"required,uuid4"`
}

// RejectCampaignRequest is the payload for rejecting a pending campaign
type RejectCampaignRequest struct {
	UUID   string `json:"uuid" validate:"required,uuid4"`
	Reason string `json:"reason" validate:"required,min=1"`
}

// CampaignResponse is the external representation of a campaign
type CampaignResponse struct {
	ID               uint                      `json:"id"`
	UUID             string                    `json:"uuid"`
	CreatedBy        uint                      `json:"created_by"`
	Title            string                    `json:"title"`
	Description      *string                   `json:"description,omitempty"`
	Type             string                    `json:"type"`
	Channels         []string                  `json:"channels"`
	Content          string                    `json:"content"`
	ChannelOverrides models.ChannelOverrides   `json:"channel_overrides,omitempty"`
	TargetAudience   models.TargetAudienceSpec `json:"target_audience"`
	ABTest           models.ABTestSpec         `json:"ab_test"`
	Approval         models.ApprovalInfo       `json:"approval"`
	Automation       models.AutomationSpec     `json:"automation"`
	ScheduledAt      *time.Time                `json:"scheduled_at,omitempty"`
	Stats            models.CampaignStats      `json:"stats"`
	Status           string                    `json:"status"`
	CreatedAt        time.Time                 `json:"created_at"`
	UpdatedAt        *time.Time                `json:"updated_at,omitempty"`
}

// ListCampaignsFilter carries optional admin/list query filters
type ListCampaignsFilter struct {
	Title     *string    `json:"title,omitempty"`
	Status    *string    `json:"status,omitempty"`
	Type      *string    `json:"type,omitempty"`
	CreatedBy *uint      `json:"created_by,omitempty"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Page      int        `json:"page,omitempty"`
	PageSize  int        `json:"page_size,omitempty"`
}

// ListCampaignsResponse wraps a page of campaigns
type ListCampaignsResponse struct {
	Message string             `json:"message"`
	Items   []CampaignResponse `json:"items"`
	Total   int64              `json:"total"`
}

// AudiencePreviewResponse reports how many clients a campaign would reach per channel
type AudiencePreviewResponse struct {
	TotalClients    int64            `json:"total_clients"`
	TotalRecipients int64            `json:"total_recipients"`
	PerChannel      map[string]int64 `json:"per_channel"`
}

// ProcessCampaignResponse reports the outcome of a broadcast processing pass
type ProcessCampaignResponse struct {
	CampaignID      uint   `json:"campaign_id"`
	Status          string `json:"status"`
	TotalRecipients int64  `json:"total_recipients"`
	AlreadyClaimed  bool   `json:"already_claimed,omitempty"`
}
