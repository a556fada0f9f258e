package repository

import (
	"context"

	"github.com/velora/backoffice/models"
	"gorm.io/gorm"
)

// ClientRepositoryImpl implements the ClientRepository interface
type ClientRepositoryImpl struct {
	*BaseRepository[models.Client, models.ClientFilter]
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *gorm.DB) ClientRepository {
	return &ClientRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Client, models.ClientFilter](db),
	}
}

// ListActive retrieves all clients in active standing
func (r *ClientRepositoryImpl) ListActive(ctx context.Context) ([]*models.Client, error) {
	db := r.getDB(ctx)

	var clients []*models.Client
	err := db.Where("status = ?", models.ClientStatusActive).
		Order("id ASC").
		Find(&clients).Error
	if err != nil {
		return nil, err
	}

	return clients, nil
}

// ListActiveByIDs retrieves the active subset of the given client IDs
func (r *ClientRepositoryImpl) ListActiveByIDs(ctx context.Context, ids []uint) ([]*models.Client, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	db := r.getDB(ctx)

	var clients []*models.Client
	err := db.Where("id IN ?", ids).
		Where("status = ?", models.ClientStatusActive).
		Order("id ASC").
		Find(&clients).Error
	if err != nil {
		return nil, err
	}

	return clients, nil
}

// ListActiveByTypes retrieves active clients matching any of the given types
func (r *ClientRepositoryImpl) ListActiveByTypes(ctx context.Context, types []models.ClientType) ([]*models.Client, error) {
	if len(types) == 0 {
		return nil, nil
	}

	db := r.getDB(ctx)

	var clients []*models.Client
	err := db.Where("client_type IN ?", types).
		Where("status = ?", models.ClientStatusActive).
		Order("id ASC").
		Find(&clients).Error
	if err != nil {
		return nil, err
	}

	return clients, nil
}

// ListActiveByLocation retrieves active clients matching every field set on the location filter.
// Matching is case-insensitive.
func (r *ClientRepositoryImpl) ListActiveByLocation(ctx context.Context, loc models.LocationFilter) ([]*models.Client, error) {
	db := r.getDB(ctx)

	query := db.Where("status = ?", models.ClientStatusActive)
	if loc.City != nil && *loc.City != "" {
		query = query.Where("LOWER(city) = LOWER(?)", *loc.City)
	}
	if loc.State != nil && *loc.State != "" {
		query = query.Where("LOWER(state) = LOWER(?)", *loc.State)
	}
	if loc.PostalCode != nil && *loc.PostalCode != "" {
		query = query.Where("postal_code = ?", *loc.PostalCode)
	}

	var clients []*models.Client
	if err := query.Order("id ASC").Find(&clients).Error; err != nil {
		return nil, err
	}

	return clients, nil
}

// ByFilter retrieves clients based on filter criteria
func (r *ClientRepositoryImpl) ByFilter(ctx context.Context, filter models.ClientFilter, orderBy string, limit, offset int) ([]*models.Client, error) {
	db := r.getDB(ctx)

	var clients []*models.Client
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

	err := query.Find(&clients).Error
	if err != nil {
		return nil, err
	}

	return clients, nil
}

// Count returns the number of clients matching the filter
func (r *ClientRepositoryImpl) Count(ctx context.Context, filter models.ClientFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.Client{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any client matching the filter exists
func (r *ClientRepositoryImpl) Exists(ctx context.Context, filter models.ClientFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *ClientRepositoryImpl) applyFilter(db *gorm.DB, filter models.ClientFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.Email != nil {
		db = db.Where("email = ?", *filter.Email)
	}
	if filter.ClientType != nil {
		db = db.Where("client_type = ?", *filter.ClientType)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.City != nil {
		db = db.Where("LOWER(city) = LOWER(?)", *filter.City)
	}
	if filter.State != nil {
		db = db.Where("LOWER(state) = LOWER(?)", *filter.State)
	}
	if filter.PostalCode != nil {
		db = db.Where("postal_code = ?", *filter.PostalCode)
	}

	return db
}
