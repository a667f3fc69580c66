package services

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/datatypes"

	"github.com/vnkhanh/matching-server/models"
	"github.com/vnkhanh/matching-server/repositories"
	"github.com/vnkhanh/matching-server/utils"
)

// MatchingDetails is the organizer-supplied body for create and update.
// Recruit status and confirmed count are not part of it.
type MatchingDetails struct {
	Title          string              `json:"title"`
	Content        string              `json:"content"`
	Location       string              `json:"location"`
	LocationImg    *string             `json:"location_img"`
	Date           string              `json:"date"`             // yyyy-MM-dd
	StartTime      string              `json:"start_time"`       // HH:mm
	EndTime        string              `json:"end_time"`         // HH:mm
	RecruitDueDate string              `json:"recruit_due_date"` // yyyy-MM-dd HH:mm
	RecruitNum     int                 `json:"recruit_num"`
	Cost           int                 `json:"cost"`
	IsReserved     bool                `json:"is_reserved"`
	Ntrp           models.Ntrp         `json:"ntrp"`
	Age            models.AgeGroup     `json:"age"`
	MatchingType   models.MatchingType `json:"matching_type"`
}

type schedule struct {
	date  datatypes.Date
	start datatypes.Time
	end   datatypes.Time
	due   time.Time
}

func (d MatchingDetails) validate(loc *time.Location) (schedule, error) {
	var sc schedule

	title := strings.TrimSpace(d.Title)
	switch {
	case title == "":
		return sc, fmt.Errorf("%w: title is required", ErrInvalidInput)
	case utf8.RuneCountInString(title) > 50:
		return sc, fmt.Errorf("%w: title exceeds 50 characters", ErrInvalidInput)
	case utf8.RuneCountInString(d.Content) > 1023:
		return sc, fmt.Errorf("%w: content exceeds 1023 characters", ErrInvalidInput)
	case utf8.RuneCountInString(d.Location) > 255:
		return sc, fmt.Errorf("%w: location exceeds 255 characters", ErrInvalidInput)
	case d.LocationImg != nil && len(*d.LocationImg) > 1023:
		return sc, fmt.Errorf("%w: location_img exceeds 1023 characters", ErrInvalidInput)
	case d.RecruitNum < 1:
		return sc, fmt.Errorf("%w: recruit_num must be at least 1", ErrInvalidInput)
	case d.Cost < 0:
		return sc, fmt.Errorf("%w: cost must not be negative", ErrInvalidInput)
	case d.Ntrp != "" && !d.Ntrp.Valid():
		return sc, fmt.Errorf("%w: unknown ntrp %q", ErrInvalidInput, d.Ntrp)
	case d.Age != "" && !d.Age.Valid():
		return sc, fmt.Errorf("%w: unknown age %q", ErrInvalidInput, d.Age)
	case d.MatchingType != "" && !d.MatchingType.Valid():
		return sc, fmt.Errorf("%w: unknown matching_type %q", ErrInvalidInput, d.MatchingType)
	}

	var err error
	if sc.date, err = utils.ParseDate(d.Date, loc); err != nil {
		return sc, fmt.Errorf("%w: date must be yyyy-MM-dd", ErrInvalidDateFormat)
	}
	if sc.start, err = utils.ParseClock(d.StartTime); err != nil {
		return sc, fmt.Errorf("%w: start_time must be HH:mm", ErrInvalidDateFormat)
	}
	if sc.end, err = utils.ParseClock(d.EndTime); err != nil {
		return sc, fmt.Errorf("%w: end_time must be HH:mm", ErrInvalidDateFormat)
	}
	if sc.due, err = utils.ParseDateTime(d.RecruitDueDate, loc); err != nil {
		return sc, fmt.Errorf("%w: recruit_due_date must be yyyy-MM-dd HH:mm", ErrInvalidDateFormat)
	}
	if sc.end <= sc.start {
		return sc, ErrInvalidTimeRange
	}
	return sc, nil
}

// applyTo copies the editable fields onto m.
func (d MatchingDetails) applyTo(m *models.Matching, sc schedule) {
	m.Title = strings.TrimSpace(d.Title)
	m.Content = d.Content
	m.Location = d.Location
	m.LocationImg = d.LocationImg
	m.Date = sc.date
	m.StartTime = sc.start
	m.EndTime = sc.end
	m.RecruitDueDate = sc.due
	m.RecruitNum = d.RecruitNum
	m.Cost = d.Cost
	m.IsReserved = d.IsReserved
	m.Ntrp = d.Ntrp
	m.Age = d.Age
	m.MatchingType = d.MatchingType
}

// MatchingSearch is the client-facing filter; dates use yyyy-MM-dd.
type MatchingSearch struct {
	Ntrps           []models.Ntrp          `json:"ntrp"`
	Ages            []models.AgeGroup      `json:"age"`
	MatchingTypes   []models.MatchingType  `json:"matching_type"`
	RecruitStatuses []models.RecruitStatus `json:"recruit_status"`
	IsReserved      *bool                  `json:"is_reserved"`
	DateFrom        string                 `json:"date_from"`
	DateTo          string                 `json:"date_to"`
	Location        string                 `json:"location"`
	Keyword         string                 `json:"keyword"`
}

func (q MatchingSearch) filter(loc *time.Location) (repositories.MatchingFilter, error) {
	f := repositories.MatchingFilter{
		Ntrps:           q.Ntrps,
		Ages:            q.Ages,
		MatchingTypes:   q.MatchingTypes,
		RecruitStatuses: q.RecruitStatuses,
		IsReserved:      q.IsReserved,
		Location:        strings.TrimSpace(q.Location),
		Keyword:         strings.TrimSpace(q.Keyword),
	}
	for _, n := range q.Ntrps {
		if !n.Valid() {
			return f, fmt.Errorf("%w: unknown ntrp %q", ErrInvalidInput, n)
		}
	}
	for _, a := range q.Ages {
		if !a.Valid() {
			return f, fmt.Errorf("%w: unknown age %q", ErrInvalidInput, a)
		}
	}
	for _, t := range q.MatchingTypes {
		if !t.Valid() {
			return f, fmt.Errorf("%w: unknown matching_type %q", ErrInvalidInput, t)
		}
	}
	for _, s := range q.RecruitStatuses {
		if !s.Valid() {
			return f, fmt.Errorf("%w: unknown recruit_status %q", ErrInvalidInput, s)
		}
	}
	if q.DateFrom != "" {
		d, err := utils.ParseDate(q.DateFrom, loc)
		if err != nil {
			return f, fmt.Errorf("%w: date_from must be yyyy-MM-dd", ErrInvalidDateFormat)
		}
		from := time.Time(d)
		f.DateFrom = &from
	}
	if q.DateTo != "" {
		d, err := utils.ParseDate(q.DateTo, loc)
		if err != nil {
			return f, fmt.Errorf("%w: date_to must be yyyy-MM-dd", ErrInvalidDateFormat)
		}
		to := time.Time(d)
		f.DateTo = &to
	}
	return f, nil
}
