package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/vnkhanh/matching-server/models"
)

type gormNotifications struct {
	db *gorm.DB
}

func (r *gormNotifications) Create(ctx context.Context, n *models.Notification) error {
	return translateError(r.db.WithContext(ctx).Create(n).Error)
}

func (r *gormNotifications) ListBySiteUser(ctx context.Context, userID uint, unreadOnly bool) ([]models.Notification, error) {
	q := r.db.WithContext(ctx).Where("site_user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	rows := []models.Notification{}
	if err := q.Order("created_at desc").Order("id desc").Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	return rows, nil
}

func (r *gormNotifications) MarkRead(ctx context.Context, id, userID uint, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND site_user_id = ?", id, userID).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
