package repositories

import (
	"slices"
	"strings"
	"time"

	"github.com/vnkhanh/matching-server/models"
)

// MatchingFilter narrows a matching search. Empty fields match everything.
type MatchingFilter struct {
	Ntrps           []models.Ntrp
	Ages            []models.AgeGroup
	MatchingTypes   []models.MatchingType
	RecruitStatuses []models.RecruitStatus
	IsReserved      *bool
	DateFrom        *time.Time
	DateTo          *time.Time
	Location        string
	Keyword         string
}

// Matches applies the filter in memory; the gorm store translates the same
// rules into SQL.
func (f MatchingFilter) Matches(m models.Matching) bool {
	if len(f.Ntrps) > 0 && !slices.Contains(f.Ntrps, m.Ntrp) {
		return false
	}
	if len(f.Ages) > 0 && !slices.Contains(f.Ages, m.Age) {
		return false
	}
	if len(f.MatchingTypes) > 0 && !slices.Contains(f.MatchingTypes, m.MatchingType) {
		return false
	}
	if len(f.RecruitStatuses) > 0 && !slices.Contains(f.RecruitStatuses, m.RecruitStatus) {
		return false
	}
	if f.IsReserved != nil && m.IsReserved != *f.IsReserved {
		return false
	}
	date := time.Time(m.Date)
	if f.DateFrom != nil && date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && date.After(*f.DateTo) {
		return false
	}
	if f.Location != "" && !containsFold(m.Location, f.Location) {
		return false
	}
	if f.Keyword != "" && !containsFold(m.Title, f.Keyword) && !containsFold(m.Content, f.Keyword) {
		return false
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func likePattern(s string) string {
	return "%" + strings.ToLower(s) + "%"
}
