package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RecruitStatus string

const (
	RecruitOpen         RecruitStatus = "OPEN"
	RecruitFull         RecruitStatus = "FULL"
	RecruitClosed       RecruitStatus = "CLOSED"
	RecruitWeatherIssue RecruitStatus = "WEATHER_ISSUE"
)

// recruitTransitions lists every legal move. WEATHER_ISSUE is terminal.
var recruitTransitions = map[RecruitStatus][]RecruitStatus{
	RecruitOpen:         {RecruitFull, RecruitClosed, RecruitWeatherIssue},
	RecruitFull:         {RecruitClosed, RecruitWeatherIssue},
	RecruitClosed:       {RecruitWeatherIssue},
	RecruitWeatherIssue: {},
}

func (s RecruitStatus) Valid() bool {
	_, ok := recruitTransitions[s]
	return ok
}

func (s RecruitStatus) CanTransitionTo(next RecruitStatus) bool {
	for _, allowed := range recruitTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AcceptsApplies reports whether new applications may be filed.
func (s RecruitStatus) AcceptsApplies() bool {
	return s == RecruitOpen
}

// Terminated reports whether organizers may no longer accept applicants.
func (s RecruitStatus) Terminated() bool {
	return s == RecruitClosed || s == RecruitWeatherIssue
}

type Ntrp string

const (
	NtrpBeginner     Ntrp = "BEGINNER"
	NtrpIntermediate Ntrp = "INTERMEDIATE"
	NtrpAdvanced     Ntrp = "ADVANCED"
	NtrpPro          Ntrp = "PRO"
)

func (n Ntrp) Valid() bool {
	switch n {
	case NtrpBeginner, NtrpIntermediate, NtrpAdvanced, NtrpPro:
		return true
	}
	return false
}

type AgeGroup string

const (
	AgeTwenties AgeGroup = "TWENTIES"
	AgeThirties AgeGroup = "THIRTIES"
	AgeForties  AgeGroup = "FORTIES"
	AgeFifties  AgeGroup = "FIFTIES"
	AgeSenior   AgeGroup = "SENIOR"
)

func (a AgeGroup) Valid() bool {
	switch a {
	case AgeTwenties, AgeThirties, AgeForties, AgeFifties, AgeSenior:
		return true
	}
	return false
}

type MatchingType string

const (
	MatchingSingle      MatchingType = "SINGLE"
	MatchingDouble      MatchingType = "DOUBLE"
	MatchingMixedDouble MatchingType = "MIXED_DOUBLE"
	MatchingOther       MatchingType = "OTHER"
)

func (t MatchingType) Valid() bool {
	switch t {
	case MatchingSingle, MatchingDouble, MatchingMixedDouble, MatchingOther:
		return true
	}
	return false
}

// Matching is a hosted event. Date and start/end times are stored in
// separate columns; RecruitDueDate is a full timestamp.
type Matching struct {
	ID             uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	SiteUserID     uint           `gorm:"column:site_user_id;not null;index" json:"site_user_id"`
	SiteUser       *SiteUser      `gorm:"foreignKey:SiteUserID" json:"-"`
	Title          string         `gorm:"size:50;not null" json:"title"`
	Content        string         `gorm:"size:1023" json:"content"`
	Location       string         `gorm:"size:255;not null" json:"location"`
	LocationImg    *string        `gorm:"column:location_img;size:1023" json:"location_img,omitempty"`
	Date           datatypes.Date `gorm:"not null;index" json:"date"`
	StartTime      datatypes.Time `gorm:"not null" json:"start_time"`
	EndTime        datatypes.Time `gorm:"not null" json:"end_time"`
	RecruitDueDate time.Time      `gorm:"not null;index" json:"recruit_due_date"`
	RecruitNum     int            `gorm:"not null" json:"recruit_num"`
	Cost           int            `gorm:"not null;default:0" json:"cost"`
	IsReserved     bool           `gorm:"not null;default:false" json:"is_reserved"`
	Ntrp           Ntrp           `gorm:"size:20" json:"ntrp"`
	Age            AgeGroup       `gorm:"size:20" json:"age"`
	RecruitStatus  RecruitStatus  `gorm:"size:20;not null;default:'OPEN';index" json:"recruit_status"`
	MatchingType   MatchingType   `gorm:"size:20" json:"matching_type"`
	ConfirmedNum   int            `gorm:"not null;default:1" json:"confirmed_num"`
	CreateTime     time.Time      `gorm:"autoCreateTime" json:"create_time"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	Applies        []Apply        `gorm:"foreignKey:MatchingID" json:"-"`
}

func (Matching) TableName() string {
	return "matchings"
}

// EditableColumns are the columns an organizer update may touch.
// recruit_status and confirmed_num are deliberately absent.
var EditableColumns = []string{
	"title", "content", "location", "location_img", "date", "start_time", "end_time",
	"recruit_due_date", "recruit_num", "cost", "is_reserved", "ntrp", "age", "matching_type",
}

func (m *Matching) IsOrganizedBy(userID uint) bool {
	return m.SiteUserID == userID
}

func (m *Matching) HasCapacity() bool {
	return m.ConfirmedNum < m.RecruitNum
}
