package services

import (
	"time"

	"github.com/vnkhanh/matching-server/models"
	"github.com/vnkhanh/matching-server/utils"
)

type Organizer struct {
	ID       uint   `json:"id"`
	Nickname string `json:"nickname"`
}

type MatchingPreview struct {
	ID             uint                 `json:"id"`
	Title          string               `json:"title"`
	Location       string               `json:"location"`
	LocationImg    *string              `json:"location_img,omitempty"`
	Date           string               `json:"date"`
	StartTime      string               `json:"start_time"`
	EndTime        string               `json:"end_time"`
	RecruitDueDate string               `json:"recruit_due_date"`
	RecruitNum     int                  `json:"recruit_num"`
	ConfirmedNum   int                  `json:"confirmed_num"`
	Cost           int                  `json:"cost"`
	IsReserved     bool                 `json:"is_reserved"`
	Ntrp           models.Ntrp          `json:"ntrp"`
	Age            models.AgeGroup      `json:"age"`
	RecruitStatus  models.RecruitStatus `json:"recruit_status"`
	MatchingType   models.MatchingType  `json:"matching_type"`
	Organizer      Organizer            `json:"organizer"`
	CreateTime     time.Time            `json:"create_time"`
}

type MatchingDetail struct {
	MatchingPreview
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PageResult[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
}

// ApplyContents describes who is in a matching. ApplyNum and AppliedMembers
// are set only for the organizer and are omitted from JSON otherwise.
type ApplyContents struct {
	ApplyNum         *int64                `json:"apply_num,omitempty"`
	AppliedMembers   *[]models.ApplyMember `json:"applied_members,omitempty"`
	RecruitNum       int                   `json:"recruit_num"`
	ConfirmedNum     int                   `json:"confirmed_num"`
	ConfirmedMembers []models.ApplyMember  `json:"confirmed_members"`
}

type MyApply struct {
	ApplyID       uint                 `json:"apply_id"`
	MatchingID    uint                 `json:"matching_id"`
	Title         string               `json:"title"`
	Date          string               `json:"date"`
	Status        models.ApplyStatus   `json:"status"`
	RecruitStatus models.RecruitStatus `json:"recruit_status"`
	AppliedAt     time.Time            `json:"applied_at"`
}

func newPreview(m models.Matching, organizer models.SiteUser, loc *time.Location) MatchingPreview {
	return MatchingPreview{
		ID:             m.ID,
		Title:          m.Title,
		Location:       m.Location,
		LocationImg:    m.LocationImg,
		Date:           utils.FormatDate(m.Date),
		StartTime:      utils.FormatClock(m.StartTime),
		EndTime:        utils.FormatClock(m.EndTime),
		RecruitDueDate: utils.FormatDateTime(m.RecruitDueDate, loc),
		RecruitNum:     m.RecruitNum,
		ConfirmedNum:   m.ConfirmedNum,
		Cost:           m.Cost,
		IsReserved:     m.IsReserved,
		Ntrp:           m.Ntrp,
		Age:            m.Age,
		RecruitStatus:  m.RecruitStatus,
		MatchingType:   m.MatchingType,
		Organizer:      Organizer{ID: organizer.ID, Nickname: organizer.Nickname},
		CreateTime:     m.CreateTime,
	}
}

func newPageResult[T any](content []T, page, size int, total int64) *PageResult[T] {
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	return &PageResult[T]{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    pages,
	}
}
