package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vnkhanh/matching-server/models"
)

type gormApplies struct {
	db *gorm.DB
}

// Create relies on the (site_user_id, matching_id) unique index:
// ON CONFLICT DO NOTHING inserts zero rows for a duplicate pair.
func (r *gormApplies) Create(ctx context.Context, a *models.Apply) error {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "site_user_id"}, {Name: "matching_id"}},
			DoNothing: true,
		}).
		Create(a)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrDuplicate
	}
	return nil
}

func (r *gormApplies) FindByID(ctx context.Context, id uint) (*models.Apply, error) {
	var a models.Apply
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &a, nil
}

func (r *gormApplies) FindBySiteUserAndMatching(ctx context.Context, userID, matchingID uint) (*models.Apply, error) {
	var a models.Apply
	err := r.db.WithContext(ctx).
		Where("site_user_id = ? AND matching_id = ?", userID, matchingID).
		First(&a).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &a, nil
}

func (r *gormApplies) ListByMatching(ctx context.Context, matchingID uint) ([]models.Apply, error) {
	rows := []models.Apply{}
	err := r.db.WithContext(ctx).
		Where("matching_id = ?", matchingID).
		Order("id asc").
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	return rows, nil
}

func (r *gormApplies) ListByMatchingAndStatus(ctx context.Context, matchingID uint, status models.ApplyStatus) ([]models.Apply, error) {
	rows := []models.Apply{}
	err := r.db.WithContext(ctx).
		Where("matching_id = ? AND status = ?", matchingID, status).
		Order("id asc").
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	return rows, nil
}

func (r *gormApplies) ListBySiteUser(ctx context.Context, userID uint) ([]models.Apply, error) {
	rows := []models.Apply{}
	err := r.db.WithContext(ctx).
		Where("site_user_id = ?", userID).
		Order("created_at desc").
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	return rows, nil
}

func (r *gormApplies) ListMembers(ctx context.Context, matchingID uint, status models.ApplyStatus) ([]models.ApplyMember, error) {
	members := []models.ApplyMember{}
	err := r.db.WithContext(ctx).
		Table("applies").
		Select("applies.id AS apply_id, applies.site_user_id AS site_user_id, site_users.nickname AS nickname").
		Joins("JOIN site_users ON site_users.id = applies.site_user_id").
		Where("applies.matching_id = ? AND applies.status = ?", matchingID, status).
		Order("applies.id asc").
		Scan(&members).Error
	if err != nil {
		return nil, translateError(err)
	}
	return members, nil
}

func (r *gormApplies) UpdateStatus(ctx context.Context, id uint, from, to models.ApplyStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Apply{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}
