package models

import "time"

const (
	ExportQueued     = "queued"
	ExportProcessing = "processing"
	ExportDone       = "done"
	ExportFailed     = "failed"
)

// ExportJob tracks an applicant roster export for one matching.
type ExportJob struct {
	JobID       string    `gorm:"column:job_id;primaryKey;size:36" json:"job_id"`
	MatchingID  uint      `gorm:"column:matching_id;index" json:"matching_id"`
	RequestedBy uint      `gorm:"column:requested_by;index" json:"requested_by"`
	Status      string    `gorm:"column:status;size:20;default:'queued'" json:"status"`
	FilePath    *string   `gorm:"column:file_path;type:text" json:"file_path,omitempty"`
	ErrorMsg    *string   `gorm:"column:error_msg;type:text" json:"error_msg,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ExportJob) TableName() string {
	return "export_jobs"
}
