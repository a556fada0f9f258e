package repository

import (
	"context"
	"time"

	"github.com/velora/backoffice/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// CampaignRepository defines operations for campaigns
type CampaignRepository interface {
	Repository[models.Campaign, models.CampaignFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Campaign, error)
	Update(ctx context.Context, campaign models.Campaign) error
	UpdateStatus(ctx context.Context, id uint, status models.CampaignStatus) error
	UpdateStats(ctx context.Context, id uint, stats models.CampaignStats) error
	UpdateABTest(ctx context.Context, id uint, abTest models.ABTestSpec) error
	// ClaimForSending atomically moves an approved or scheduled campaign to sending.
	// It returns false when another worker already claimed it or the status does not allow processing.
	ClaimForSending(ctx context.Context, id uint) (bool, error)
	ListDueForProcessing(ctx context.Context, now time.Time, limit int) ([]*models.Campaign, error)
	ListAutomatedByTrigger(ctx context.Context, triggerType string) ([]*models.Campaign, error)
}

// ClientRepository defines operations for clients
type ClientRepository interface {
	Repository[models.Client, models.ClientFilter]
	ListActive(ctx context.Context) ([]*models.Client, error)
	ListActiveByIDs(ctx context.Context, ids []uint) ([]*models.Client, error)
	ListActiveByTypes(ctx context.Context, types []models.ClientType) ([]*models.Client, error)
	ListActiveByLocation(ctx context.Context, loc models.LocationFilter) ([]*models.Client, error)
}

// CampaignRecipientRepository defines operations for campaign recipients
type CampaignRecipientRepository interface {
	Repository[models.CampaignRecipient, models.CampaignRecipientFilter]
	MarkDelivered(ctx context.Context, id uint, cost float64) error
	MarkOpened(ctx context.Context, id uint) error
	RecordClick(ctx context.Context, id uint) error
	RecordConversion(ctx context.Context, id uint, revenue float64) error
	StatusBreakdown(ctx context.Context, campaignID uint) ([]StatusAggregate, error)
	ChannelBreakdown(ctx context.Context, campaignID uint) ([]ChannelAggregate, error)
	VariantBreakdown(ctx context.Context, campaignID uint) ([]VariantAggregate, error)
}

// OutboundMessageRepository defines operations for outbound messages
type OutboundMessageRepository interface {
	Repository[models.OutboundMessage, models.OutboundMessageFilter]
	UpdateStatus(ctx context.Context, id uint, status models.OutboundMessageStatus) error
	ListQueuedByCampaign(ctx context.Context, campaignID uint, limit int) ([]*models.OutboundMessage, error)
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByCampaign(ctx context.Context, campaignID uint, limit, offset int) ([]*models.AuditLog, error)
	ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}

// StatusAggregate is one row of the recipient status breakdown read model
type StatusAggregate struct {
	Status          models.RecipientStatus
	Count           int64
	EngagementScore float64
	Revenue         float64
}

// ChannelAggregate is one row of the per-channel breakdown read model
type ChannelAggregate struct {
	Channel   models.Channel
	Total     int64
	Sent      int64
	Delivered int64
	Opened    int64
	Clicked   int64
	Converted int64
	Revenue   float64
	Cost      float64
}

// VariantAggregate is one row of the A/B variant breakdown read model
type VariantAggregate struct {
	Variant   string
	Total     int64
	Delivered int64
	Opened    int64
	Clicked   int64
	Converted int64
	Revenue   float64
}
