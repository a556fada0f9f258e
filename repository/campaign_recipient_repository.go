package repository

import (
	"context"

	"github.com/velora/backoffice/models"
	"github.com/velora/backoffice/utils"
	"gorm.io/gorm"
)

// CampaignRecipientRepositoryImpl implements the CampaignRecipientRepository interface
type CampaignRecipientRepositoryImpl struct {
	*BaseRepository[models.CampaignRecipient, models.CampaignRecipientFilter]
}

// NewCampaignRecipientRepository creates a new campaign recipient repository
func NewCampaignRecipientRepository(db *gorm.DB) CampaignRecipientRepository {
	return &CampaignRecipientRepositoryImpl{
		BaseRepository: NewBaseRepository[models.CampaignRecipient, models.CampaignRecipientFilter](db),
	}
}

// MarkDelivered records a successful channel delivery with its cost
func (r *CampaignRecipientRepositoryImpl) MarkDelivered(ctx context.Context, id uint, cost float64) error {
	db := r.getDB(ctx)
	now := utils.UTCNow()
	return db.Model(&models.CampaignRecipient{}).
		Where("id = ? AND status = ?", id, models.RecipientStatusPending).
		Updates(map[string]any{
			"status":       models.RecipientStatusDelivered,
			"delivery":     models.DeliveryInfo{Cost: cost},
			"delivered_at": now,
			"updated_at":   now,
		}).Error
}

// MarkOpened records an open event
func (r *CampaignRecipientRepositoryImpl) MarkOpened(ctx context.Context, id uint) error {
	db := r.getDB(ctx)
	return db.Model(&models.CampaignRecipient{}).
		Where("id = ? AND status = ?", id, models.RecipientStatusDelivered).
		Updates(map[string]any{
			"status":     models.RecipientStatusOpened,
			"updated_at": utils.UTCNow(),
		}).Error
}

// RecordClick increments the click counter and advances the status
func (r *CampaignRecipientRepositoryImpl) RecordClick(ctx context.Context, id uint) error {
	db := r.getDB(ctx)
	return db.Model(&models.CampaignRecipient{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     models.RecipientStatusClicked,
			"engagement": gorm.Expr(`jsonb_set(engagement, '{clicks}', (COALESCE((engagement->>'clicks')::bigint, 0) + 1)::text::jsonb)`),
			"updated_at": utils.UTCNow(),
		}).Error
}

// RecordConversion attributes revenue to the recipient and advances the status
func (r *CampaignRecipientRepositoryImpl) RecordConversion(ctx context.Context, id uint, revenue float64) error {
	db := r.getDB(ctx)
	return db.Model(&models.CampaignRecipient{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     models.RecipientStatusConverted,
			"conversion": models.ConversionInfo{Revenue: revenue},
			"updated_at": utils.UTCNow(),
		}).Error
}

// StatusBreakdown aggregates recipients of a campaign by status
func (r *CampaignRecipientRepositoryImpl) StatusBreakdown(ctx context.Context, campaignID uint) ([]StatusAggregate, error) {
	db := r.getDB(ctx)

	var rows []StatusAggregate
	err := db.Model(&models.CampaignRecipient{}).
		Select(`status,
			COUNT(*) AS count,
			COALESCE(SUM((engagement->>'score')::numeric), 0) AS engagement_score,
			COALESCE(SUM((conversion->>'revenue')::numeric), 0) AS revenue`).
		Where("campaign_id = ?", campaignID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// ChannelBreakdown aggregates recipients of a campaign by channel.
// Clicked counts recipients with at least one recorded click.
func (r *CampaignRecipientRepositoryImpl) ChannelBreakdown(ctx context.Context, campaignID uint) ([]ChannelAggregate, error) {
	db := r.getDB(ctx)

	var rows []ChannelAggregate
	err := db.Model(&models.CampaignRecipient{}).
		Select(`channel,
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status <> 'pending') AS sent,
			COUNT(*) FILTER (WHERE status IN ('delivered', 'opened', 'clicked', 'converted')) AS delivered,
			COUNT(*) FILTER (WHERE status IN ('opened', 'clicked', 'converted')) AS opened,
			COUNT(*) FILTER (WHERE COALESCE((engagement->>'clicks')::bigint, 0) >= 1) AS clicked,
			COUNT(*) FILTER (WHERE status = 'converted') AS converted,
			COALESCE(SUM((conversion->>'revenue')::numeric), 0) AS revenue,
			COALESCE(SUM((delivery->>'cost')::numeric), 0) AS cost`).
		Where("campaign_id = ?", campaignID).
		Group("channel").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// VariantBreakdown aggregates recipients of a campaign by assigned A/B variant
func (r *CampaignRecipientRepositoryImpl) VariantBreakdown(ctx context.Context, campaignID uint) ([]VariantAggregate, error) {
	db := r.getDB(ctx)

	var rows []VariantAggregate
	err := db.Model(&models.CampaignRecipient{}).
		Select(`ab_variant AS variant,
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status IN ('delivered', 'opened', 'clicked', 'converted')) AS delivered,
			COUNT(*) FILTER (WHERE status IN ('opened', 'clicked', 'converted')) AS opened,
			COUNT(*) FILTER (WHERE COALESCE((engagement->>'clicks')::bigint, 0) >= 1) AS clicked,
			COUNT(*) FILTER (WHERE status = 'converted') AS converted,
			COALESCE(SUM((conversion->>'revenue')::numeric), 0) AS revenue`).
		Where("campaign_id = ? AND ab_variant IS NOT NULL", campaignID).
		Group("ab_variant").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// ByFilter retrieves campaign recipients based on filter criteria
func (r *CampaignRecipientRepositoryImpl) ByFilter(ctx context.Context, filter models.CampaignRecipientFilter, orderBy string, limit, offset int) ([]*models.CampaignRecipient, error) {
	db := r.getDB(ctx)

	var recipients []*models.CampaignRecipient
	query := r.applyFilter(db, filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&recipients).Error
	if err != nil {
		return nil, err
	}

	return recipients, nil
}

// Count returns the number of campaign recipients matching the filter
func (r *CampaignRecipientRepositoryImpl) Count(ctx context.Context, filter models.CampaignRecipientFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.CampaignRecipient{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any campaign recipient matching the filter exists
func (r *CampaignRecipientRepositoryImpl) Exists(ctx context.Context, filter models.CampaignRecipientFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *CampaignRecipientRepositoryImpl) applyFilter(db *gorm.DB, filter models.CampaignRecipientFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.CampaignID != nil {
		db = db.Where("campaign_id = ?", *filter.CampaignID)
	}
	if filter.ClientID != nil {
		db = db.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Channel != nil {
		db = db.Where("channel = ?", *filter.Channel)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.ABVariant != nil {
		db = db.Where("ab_variant = ?", *filter.ABVariant)
	}

	return db
}
