package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecruitStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to RecruitStatus
		ok       bool
	}{
		{RecruitOpen, RecruitFull, true},
		{RecruitOpen, RecruitClosed, true},
		{RecruitOpen, RecruitWeatherIssue, true},
		{RecruitFull, RecruitClosed, true},
		{RecruitFull, RecruitOpen, false},
		{RecruitClosed, RecruitOpen, false},
		{RecruitClosed, RecruitWeatherIssue, true},
		{RecruitWeatherIssue, RecruitOpen, false},
		{RecruitWeatherIssue, RecruitClosed, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
	assert.False(t, RecruitStatus("PAUSED").Valid())
	assert.True(t, RecruitOpen.AcceptsApplies())
	assert.False(t, RecruitFull.AcceptsApplies())
	assert.True(t, RecruitWeatherIssue.Terminated())
}

func TestApplyStatusTransitions(t *testing.T) {
	assert.True(t, ApplyPending.CanTransitionTo(ApplyAccepted))
	assert.True(t, ApplyPending.CanTransitionTo(ApplyRejected))
	assert.False(t, ApplyAccepted.CanTransitionTo(ApplyRejected))
	assert.False(t, ApplyRejected.CanTransitionTo(ApplyAccepted))
	assert.False(t, ApplyPending.CanTransitionTo(ApplyPending))
}

func TestEnumValidation(t *testing.T) {
	assert.True(t, NtrpAdvanced.Valid())
	assert.False(t, Ntrp("EXPERT").Valid())
	assert.True(t, AgeSenior.Valid())
	assert.False(t, AgeGroup("TEENS").Valid())
	assert.True(t, MatchingMixedDouble.Valid())
	assert.False(t, MatchingType("").Valid())
}

func TestMatchingCapacity(t *testing.T) {
	m := Matching{SiteUserID: 42, RecruitNum: 2, ConfirmedNum: 1}
	assert.True(t, m.IsOrganizedBy(42))
	assert.False(t, m.IsOrganizedBy(7))
	assert.True(t, m.HasCapacity())
	m.ConfirmedNum = 2
	assert.False(t, m.HasCapacity())
}
