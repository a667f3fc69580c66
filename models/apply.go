package models

import "time"

type ApplyStatus string

const (
	ApplyPending  ApplyStatus = "PENDING"
	ApplyAccepted ApplyStatus = "ACCEPTED"
	ApplyRejected ApplyStatus = "REJECTED"
)

func (s ApplyStatus) Valid() bool {
	switch s {
	case ApplyPending, ApplyAccepted, ApplyRejected:
		return true
	}
	return false
}

// CanTransitionTo allows PENDING -> ACCEPTED and PENDING -> REJECTED only.
func (s ApplyStatus) CanTransitionTo(next ApplyStatus) bool {
	return s == ApplyPending && (next == ApplyAccepted || next == ApplyRejected)
}

// Apply joins a SiteUser to a Matching. At most one row exists per
// (site_user_id, matching_id). The organizer's row is created together with
// the matching, flagged IsOrganizer and kept ACCEPTED for good.
type Apply struct {
	ID          uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	SiteUserID  uint        `gorm:"column:site_user_id;not null;uniqueIndex:idx_apply_user_matching" json:"site_user_id"`
	MatchingID  uint        `gorm:"column:matching_id;not null;uniqueIndex:idx_apply_user_matching;index" json:"matching_id"`
	Status      ApplyStatus `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	IsOrganizer bool        `gorm:"column:is_organizer;not null;default:false" json:"is_organizer"`
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Apply) TableName() string {
	return "applies"
}

// ApplyMember is the applicant projection shown to clients.
type ApplyMember struct {
	ApplyID    uint   `json:"apply_id"`
	SiteUserID uint   `json:"site_user_id"`
	Nickname   string `json:"nickname"`
}
