package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/vnkhanh/matching-server/models"
)

type gormUsers struct {
	db *gorm.DB
}

func (r *gormUsers) Create(ctx context.Context, u *models.SiteUser) error {
	return translateError(r.db.WithContext(ctx).Create(u).Error)
}

func (r *gormUsers) FindByID(ctx context.Context, id uint) (*models.SiteUser, error) {
	var u models.SiteUser
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &u, nil
}

func (r *gormUsers) FindByIDs(ctx context.Context, ids []uint) (map[uint]models.SiteUser, error) {
	out := make(map[uint]models.SiteUser, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []models.SiteUser
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, translateError(err)
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (r *gormUsers) FindByEmail(ctx context.Context, email string) (*models.SiteUser, error) {
	var u models.SiteUser
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translateError(err)
	}
	return &u, nil
}

func (r *gormUsers) FindByGoogleSub(ctx context.Context, sub string) (*models.SiteUser, error) {
	var u models.SiteUser
	if err := r.db.WithContext(ctx).Where("google_sub = ?", sub).First(&u).Error; err != nil {
		return nil, translateError(err)
	}
	return &u, nil
}
