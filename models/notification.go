package models

import (
	"time"

	"gorm.io/datatypes"
)

type NotificationType string

const (
	NotifyModifyMatching NotificationType = "MODIFY_MATCHING"
	NotifyDeleteMatching NotificationType = "DELETE_MATCHING"
	NotifyApply          NotificationType = "APPLY"
	NotifyAcceptApply    NotificationType = "ACCEPT_APPLY"
	NotifyRejectApply    NotificationType = "REJECT_APPLY"
	NotifyCloseMatching  NotificationType = "CLOSE_MATCHING"
	NotifyWeatherIssue   NotificationType = "WEATHER_ISSUE"
)

type Notification struct {
	ID         uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	SiteUserID uint             `gorm:"column:site_user_id;not null;index" json:"site_user_id"`
	MatchingID uint             `gorm:"column:matching_id;not null;index" json:"matching_id"`
	Type       NotificationType `gorm:"size:30;not null" json:"type"`
	Content    string           `gorm:"size:255" json:"content"`
	Payload    datatypes.JSON   `gorm:"type:jsonb" json:"payload,omitempty"` // {"matching_id":..,"title":..,"date":..}
	IsRead     bool             `gorm:"not null;default:false" json:"is_read"`
	ReadAt     *time.Time       `json:"read_at,omitempty"`
	CreatedAt  time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
