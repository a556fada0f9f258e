package repository

import (
	"context"

	"github.com/velora/backoffice/models"
	"github.com/velora/backoffice/utils"
	"gorm.io/gorm"
)

// OutboundMessageRepositoryImpl implements the OutboundMessageRepository interface
type OutboundMessageRepositoryImpl struct {
	*BaseRepository[models.OutboundMessage, models.OutboundMessageFilter]
}

// NewOutboundMessageRepository creates a new outbound message repository
func NewOutboundMessageRepository(db *gorm.DB) OutboundMessageRepository {
	return &OutboundMessageRepositoryImpl{
		BaseRepository: NewBaseRepository[models.OutboundMessage, models.OutboundMessageFilter](db),
	}
}

// UpdateStatus updates only the dispatch status of an outbound message
func (r *OutboundMessageRepositoryImpl) UpdateStatus(ctx context.Context, id uint, status models.OutboundMessageStatus) error {
	db := r.getDB(ctx)
	return db.Model(&models.OutboundMessage{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": utils.UTCNow(),
		}).Error
}

// ListQueuedByCampaign retrieves queued messages of a campaign, oldest first
func (r *OutboundMessageRepositoryImpl) ListQueuedByCampaign(ctx context.Context, campaignID uint, limit int) ([]*models.OutboundMessage, error) {
	db := r.getDB(ctx)

	var messages []*models.OutboundMessage
	query := db.
		Where("campaign_id = ? AND status = ?", campaignID, models.OutboundMessageStatusQueued).
		Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&messages).Error; err != nil {
		return nil, err
	}

	return messages, nil
}

// ByFilter retrieves outbound messages based on filter criteria
func (r *OutboundMessageRepositoryImpl) ByFilter(ctx context.Context, filter models.OutboundMessageFilter, orderBy string, limit, offset int) ([]*models.OutboundMessage, error) {
	db := r.getDB(ctx)

	var messages []*models.OutboundMessage
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

	err := query.Find(&messages).Error
	if err != nil {
		return nil, err
	}

	return messages, nil
}

// Count returns the number of outbound messages matching the filter
func (r *OutboundMessageRepositoryImpl) Count(ctx context.Context, filter models.OutboundMessageFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.OutboundMessage{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any outbound message matching the filter exists
func (r *OutboundMessageRepositoryImpl) Exists(ctx context.Context, filter models.OutboundMessageFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *OutboundMessageRepositoryImpl) applyFilter(db *gorm.DB, filter models.OutboundMessageFilter) *gorm.DB {
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

	return db
}
