package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/vnkhanh/matching-server/models"
)

type gormExports struct {
	db *gorm.DB
}

func (r *gormExports) Create(ctx context.Context, job *models.ExportJob) error {
	return translateError(r.db.WithContext(ctx).Create(job).Error)
}

func (r *gormExports) FindByJobID(ctx context.Context, jobID string) (*models.ExportJob, error) {
	var job models.ExportJob
	if err := r.db.WithContext(ctx).First(&job, "job_id = ?", jobID).Error; err != nil {
		return nil, translateError(err)
	}
	return &job, nil
}

func (r *gormExports) UpdateStatus(ctx context.Context, jobID, status string, filePath, errMsg *string) error {
	updates := map[string]interface{}{"status": status}
	if filePath != nil {
		updates["file_path"] = *filePath
	}
	if errMsg != nil {
		updates["error_msg"] = *errMsg
	}
	res := r.db.WithContext(ctx).Model(&models.ExportJob{}).Where("job_id = ?", jobID).Updates(updates)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
