package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/vnkhanh/matching-server/models"
)

type gormMatchings struct {
	db *gorm.DB
}

func (r *gormMatchings) Create(ctx context.Context, m *models.Matching) error {
	return translateError(r.db.WithContext(ctx).Omit("SiteUser", "Applies").Create(m).Error)
}

func (r *gormMatchings) FindByID(ctx context.Context, id uint) (*models.Matching, error) {
	var m models.Matching
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &m, nil
}

func (r *gormMatchings) FindByIDs(ctx context.Context, ids []uint) (map[uint]models.Matching, error) {
	out := make(map[uint]models.Matching, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Matching
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}
	for _, m := range rows {
		out[m.ID] = m
	}
	return out, nil
}

func (r *gormMatchings) UpdateDetails(ctx context.Context, m *models.Matching) error {
	res := r.db.WithContext(ctx).Model(m).Select(models.EditableColumns).Updates(m)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormMatchings) UpdateStatus(ctx context.Context, id uint, status models.RecruitStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Matching{}).Where("id = ?", id).Update("recruit_status", status)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormMatchings) IncrementConfirmed(ctx context.Context, id uint) (*models.Matching, error) {
	res := r.db.WithContext(ctx).Model(&models.Matching{}).
		Where("id = ? AND confirmed_num < recruit_num", id).
		UpdateColumn("confirmed_num", gorm.Expr("confirmed_num + 1"))
	if res.Error != nil {
		return nil, translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrCapacityReached
	}
	return r.FindByID(ctx, id)
}

// Delete soft-deletes; apply rows stay in place.
func (r *gormMatchings) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Matching{}, id)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormMatchings) List(ctx context.Context, page Page) ([]models.Matching, int64, error) {
	return r.paginate(r.db.WithContext(ctx).Model(&models.Matching{}), page)
}

func (r *gormMatchings) Search(ctx context.Context, filter MatchingFilter, page Page) ([]models.Matching, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Matching{})
	return r.paginate(applyFilter(q, filter), page)
}

func (r *gormMatchings) FindRecruitingDueBefore(ctx context.Context, t time.Time) ([]models.Matching, error) {
	var rows []models.Matching
	err := r.db.WithContext(ctx).
		Where("recruit_status IN ? AND recruit_due_date <= ?",
			[]models.RecruitStatus{models.RecruitOpen, models.RecruitFull}, t).
		Order("recruit_due_date asc").
		Find(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	return rows, nil
}

func (r *gormMatchings) paginate(q *gorm.DB, page Page) ([]models.Matching, int64, error) {
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	rows := []models.Matching{}
	err := q.Order("create_time desc").Order("id desc").
		Offset(page.Offset()).Limit(page.Size).
		Find(&rows).Error
	if err != nil {
		return nil, 0, translateError(err)
	}
	return rows, total, nil
}

func applyFilter(q *gorm.DB, f MatchingFilter) *gorm.DB {
	if len(f.Ntrps) > 0 {
		q = q.Where("ntrp IN ?", f.Ntrps)
	}
	if len(f.Ages) > 0 {
		q = q.Where("age IN ?", f.Ages)
	}
	if len(f.MatchingTypes) > 0 {
		q = q.Where("matching_type IN ?", f.MatchingTypes)
	}
	if len(f.RecruitStatuses) > 0 {
		q = q.Where("recruit_status IN ?", f.RecruitStatuses)
	}
	if f.IsReserved != nil {
		q = q.Where("is_reserved = ?", *f.IsReserved)
	}
	if f.DateFrom != nil {
		q = q.Where("date >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		q = q.Where("date <= ?", *f.DateTo)
	}
	if f.Location != "" {
		q = q.Where("LOWER(location) LIKE ?", likePattern(f.Location))
	}
	if f.Keyword != "" {
		kw := likePattern(f.Keyword)
		q = q.Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ?", kw, kw)
	}
	return q
}
