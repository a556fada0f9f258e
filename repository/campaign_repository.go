package repository

import (
	"context"
	"time"

	"github.com/velora/backoffice/models"
	"github.com/velora/backoffice/utils"
	"gorm.io/gorm"
)

// CampaignRepositoryImpl implements the CampaignRepository interface
type CampaignRepositoryImpl struct {
	*BaseRepository[models.Campaign, models.CampaignFilter]
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db *gorm.DB) CampaignRepository {
	return &CampaignRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Campaign, models.CampaignFilter](db),
	}
}

// ByUUID retrieves a campaign by UUID
func (r *CampaignRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Campaign, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.CampaignFilter{UUID: &parsedUUID}
	campaigns, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(campaigns) == 0 {
		return nil, nil
	}

	return campaigns[0], nil
}

// Update updates a campaign
func (r *CampaignRepositoryImpl) Update(ctx context.Context, campaign models.Campaign) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	now := utils.UTCNow()
	campaign.UpdatedAt = &now

	err = db.Save(&campaign).Error
	if err != nil {
		return err
	}

	return nil
}

// UpdateStatus updates only the status of a campaign
func (r *CampaignRepositoryImpl) UpdateStatus(ctx context.Context, id uint, status models.CampaignStatus) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Model(&models.Campaign{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": utils.UTCNow(),
		}).Error
	if err != nil {
		return err
	}

	return nil
}

// UpdateStats replaces the denormalized stats snapshot of a campaign
func (r *CampaignRepositoryImpl) UpdateStats(ctx context.Context, id uint, stats models.CampaignStats) error {
	db := r.getDB(ctx)
	return db.Model(&models.Campaign{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"stats":      stats,
			"updated_at": utils.UTCNow(),
		}).Error
}

// UpdateABTest replaces the A/B test document of a campaign
func (r *CampaignRepositoryImpl) UpdateABTest(ctx context.Context, id uint, abTest models.ABTestSpec) error {
	db := r.getDB(ctx)
	return db.Model(&models.Campaign{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"ab_test":    abTest,
			"updated_at": utils.UTCNow(),
		}).Error
}

// ClaimForSending atomically moves an approved or scheduled campaign to sending.
// The status predicate in the WHERE clause is the single-writer lock: only one
// concurrent caller observes an affected row.
func (r *CampaignRepositoryImpl) ClaimForSending(ctx context.Context, id uint) (bool, error) {
	db := r.getDB(ctx)

	res := db.Model(&models.Campaign{}).
		Where("id = ? AND status IN ?", id, []models.CampaignStatus{
			models.CampaignStatusApproved,
			models.CampaignStatusScheduled,
		}).
		Updates(map[string]any{
			"status":     models.CampaignStatusSending,
			"updated_at": utils.UTCNow(),
		})
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected == 1, nil
}

// ListDueForProcessing retrieves approved or scheduled campaigns whose schedule time has passed
// (or that have no schedule at all), oldest first
func (r *CampaignRepositoryImpl) ListDueForProcessing(ctx context.Context, now time.Time, limit int) ([]*models.Campaign, error) {
	db := r.getDB(ctx)

	var campaigns []*models.Campaign
	query := db.
		Where("status IN ?", []models.CampaignStatus{
			models.CampaignStatusApproved,
			models.CampaignStatusScheduled,
		}).
		Where("scheduled_at IS NULL OR scheduled_at <= ?", now).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&campaigns).Error; err != nil {
		return nil, err
	}

	return campaigns, nil
}

// ListAutomatedByTrigger retrieves automated campaigns bound to the given trigger event
func (r *CampaignRepositoryImpl) ListAutomatedByTrigger(ctx context.Context, triggerType string) ([]*models.Campaign, error) {
	db := r.getDB(ctx)

	var campaigns []*models.Campaign
	err := db.
		Where("automation->>'is_automated' = 'true'").
		Where("automation->'trigger'->>'type' = ?", triggerType).
		Where("status IN ?", []models.CampaignStatus{
			models.CampaignStatusApproved,
			models.CampaignStatusScheduled,
		}).
		Order("created_at ASC").
		Find(&campaigns).Error
	if err != nil {
		return nil, err
	}

	return campaigns, nil
}

// ByFilter retrieves campaigns based on filter criteria
func (r *CampaignRepositoryImpl) ByFilter(ctx context.Context, filter models.CampaignFilter, orderBy string, limit, offset int) ([]*models.Campaign, error) {
	db := r.getDB(ctx)

	var campaigns []*models.Campaign
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

	err := query.Find(&campaigns).Error
	if err != nil {
		return nil, err
	}

	return campaigns, nil
}

// Count returns the number of campaigns matching the filter
func (r *CampaignRepositoryImpl) Count(ctx context.Context, filter models.CampaignFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.Campaign{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any campaign matching the filter exists
func (r *CampaignRepositoryImpl) Exists(ctx context.Context, filter models.CampaignFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *CampaignRepositoryImpl) applyFilter(db *gorm.DB, filter models.CampaignFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.CreatedBy != nil {
		db = db.Where("created_by = ?", *filter.CreatedBy)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.Type != nil {
		db = db.Where("type = ?", *filter.Type)
	}
	if filter.Title != nil {
		db = db.Where("title ILIKE ?", "%"+*filter.Title+"%")
	}
	if filter.Channel != nil {
		db = db.Where("? = ANY(channels)", string(*filter.Channel))
	}
	if filter.IsAutomated != nil {
		if *filter.IsAutomated {
			db = db.Where("automation->>'is_automated' = 'true'")
		} else {
			db = db.Where("automation->>'is_automated' IS DISTINCT FROM 'true'")
		}
	}
	if filter.TriggerType != nil {
		db = db.Where("automation->'trigger'->>'type' = ?", *filter.TriggerType)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at < ?", *filter.CreatedBefore)
	}
	if filter.ScheduleAfter != nil {
		db = db.Where("scheduled_at > ?", *filter.ScheduleAfter)
	}
	if filter.ScheduleBefore != nil {
		db = db.Where("scheduled_at < ?", *filter.ScheduleBefore)
	}

	return db
}
