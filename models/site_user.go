package models

import "time"

type SiteUser struct {
	ID        uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Nickname  string     `gorm:"size:50;not null" json:"nickname"`
	Email     string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password  string     `gorm:"size:255" json:"-"` // empty for Google accounts
	GoogleSub *string    `gorm:"column:google_sub;size:64;uniqueIndex" json:"-"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	Matchings []Matching `gorm:"foreignKey:SiteUserID" json:"-"`
	Applies   []Apply    `gorm:"foreignKey:SiteUserID" json:"-"`
}

func (SiteUser) TableName() string {
	return "site_users"
}
