package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/matching-server/models"
	"github.com/vnkhanh/matching-server/repositories"
	"github.com/vnkhanh/matching-server/utils"
)

func TestCreateMatching(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.user(t, "host")

	m, err := env.matchings.Create(ctx, organizer.ID, eveningDoubles())
	require.NoError(t, err)

	assert.Equal(t, 1, m.ConfirmedNum)
	assert.Equal(t, models.RecruitOpen, m.RecruitStatus)
	assert.Equal(t, organizer.ID, m.SiteUserID)
	assert.Equal(t, "2025-03-01", utils.FormatDate(m.Date))
	assert.Equal(t, "18:00", utils.FormatClock(m.StartTime))
	assert.Equal(t, "20:00", utils.FormatClock(m.EndTime))
	assert.True(t, m.RecruitDueDate.Equal(time.Date(2025, 2, 28, 23, 59, 0, 0, time.UTC)))

	applies, err := env.store.Applies().ListByMatching(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, applies, 1)
	assert.Equal(t, organizer.ID, applies[0].SiteUserID)
	assert.Equal(t, models.ApplyAccepted, applies[0].Status)
	assert.True(t, applies[0].IsOrganizer)
}

func TestCreateMatchingUnknownOrganizer(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.matchings.Create(context.Background(), 999, eveningDoubles())
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, total, err := env.store.Matchings().List(context.Background(), repositories.NewPage(0, 10))
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCreateMatchingValidatesInput(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*MatchingDetails)
		want   error
	}{
		{"bad date", func(d *MatchingDetails) { d.Date = "2025/03/01" }, ErrInvalidDateFormat},
		{"bad start", func(d *MatchingDetails) { d.StartTime = "6pm" }, ErrInvalidDateFormat},
		{"bad end", func(d *MatchingDetails) { d.EndTime = "20:00:00" }, ErrInvalidDateFormat},
		{"bad due date", func(d *MatchingDetails) { d.RecruitDueDate = "2025-02-28" }, ErrInvalidDateFormat},
		{"end before start", func(d *MatchingDetails) { d.EndTime = "17:00" }, ErrInvalidTimeRange},
		{"missing title", func(d *MatchingDetails) { d.Title = "  " }, ErrInvalidInput},
		{"zero recruit num", func(d *MatchingDetails) { d.RecruitNum = 0 }, ErrInvalidInput},
		{"negative cost", func(d *MatchingDetails) { d.Cost = -1 }, ErrInvalidInput},
		{"unknown ntrp", func(d *MatchingDetails) { d.Ntrp = "EXPERT" }, ErrInvalidInput},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			organizer := env.user(t, "host")
			d := eveningDoubles()
			tc.mutate(&d)

			_, err := env.matchings.Create(context.Background(), organizer.ID, d)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreateMatchingIsAtomic(t *testing.T) {
	env := newTestEnv(t, func(cfg *MatchingServiceConfig) {
		cfg.Store = faultyStore{Store: cfg.Store}
	})
	organizer := env.user(t, "host")

	_, err := env.matchings.Create(context.Background(), organizer.ID, eveningDoubles())
	assert.ErrorIs(t, err, errInjected)

	_, total, err := env.store.Matchings().List(context.Background(), repositories.NewPage(0, 10))
	require.NoError(t, err)
	assert.Zero(t, total, "matching must not outlive a failed organizer apply")
}

func TestUpdateKeepsStatusAndConfirmedNum(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.user(t, "host")
	guest := env.user(t, "guest")
	m := env.matching(t, organizer, 4)
	a := env.apply(t, guest, m)
	_, err := env.applies.Accept(ctx, organizer.ID, a.ID)
	require.NoError(t, err)
	_, err = env.matchings.ChangeRecruitStatus(ctx, organizer.ID, m.ID, models.RecruitClosed)
	require.NoError(t, err)

	d := eveningDoubles()
	d.Title = "Sunday Doubles"
	d.RecruitNum = 6
	d.Ntrp = models.NtrpAdvanced
	updated, err := env.matchings.Update(ctx, organizer.ID, m.ID, d)
	require.NoError(t, err)
	assert.Equal(t, "Sunday Doubles", updated.Title)

	stored, err := env.store.Matchings().FindByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sunday Doubles", stored.Title)
	assert.Equal(t, 6, stored.RecruitNum)
	assert.Equal(t, models.NtrpAdvanced, stored.Ntrp)
	assert.Equal(t, models.RecruitClosed, stored.RecruitStatus)
	assert.Equal(t, 2, stored.ConfirmedNum)
}

func TestUpdateNotifiesApplicantsExceptOrganizer(t *testing.T) {
	env := newTestEnv(t)
	organizer := env.user(t, "host")
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	m := env.matching(t, organizer, 4)
	env.apply(t, alice, m)
	env.apply(t, bob, m)

	_, err := env.matchings.Update(context.Background(), organizer.ID, m.ID, eveningDoubles())
	require.NoError(t, err)

	assert.Len(t, env.notificationsFor(t, alice, models.NotifyModifyMatching), 1)
	assert.Len(t, env.notificationsFor(t, bob, models.NotifyModifyMatching), 1)
	assert.Empty(t, env.notificationsFor(t, organizer, models.NotifyModifyMatching))
	assert.Len(t, env.pub.ofType(models.NotifyModifyMatching), 2)
}

func TestUpdateByNonOrganizerIsRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.user(t, "host")
	guest := env.user(t, "guest")
	intruder := env.user(t, "intruder")
	m := env.matching(t, organizer, 4)
	env.apply(t, guest, m)

	d := eveningDoubles()
	d.Title = "Hijacked"
	_, err := env.matchings.Update(ctx, intruder.ID, m.ID, d)
	assert.ErrorIs(t, err, ErrNoPermission)

	stored, err := env.store.Matchings().FindByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Evening Doubles", stored.Title)
	assert.Empty(t, env.notificationsFor(t, guest, models.NotifyModifyMatching))
	assert.Empty(t, env.pub.ofType(models.NotifyModifyMatching))
}

func TestUpdateUnknownMatching(t *testing.T) {
	env := newTestEnv(t)
	organizer := env.user(t, "host")

	_, err := env.matchings.Update(context.Background(), organizer.ID, 404, eveningDoubles())
	assert.ErrorIs(t, err, ErrMatchingNotFound)

	_, err = env.matchings.Update(context.Background(), 999, 404, eveningDoubles())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateRejectsRecruitNumBelowConfirmed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.user(t, "host")
	guest := env.user(t, "guest")
	m := env.matching(t, organizer, 4)
	a := env.apply(t, guest, m)
	_, err := env.applies.Accept(ctx, organizer.ID, a.ID)
	require.NoError(t, err)

	d := eveningDoubles()
	d.RecruitNum = 1
	_, err = env.matchings.Update(ctx, organizer.ID, m.ID, d)
	assert.ErrorIs(t, err, ErrRecruitNumBelowConfirmed)
	assert.Empty(t, env.pub.ofType(models.NotifyModifyMatching))
}

func TestDeleteRunsPolicyWithConfirmedApplies(t *testing.T) {
	var seen []models.Apply
	env := newTestEnv(t, func(cfg *MatchingServiceConfig) {
		cfg.DeletePolicy = DeletePolicyFunc(func(_ context.Context, _ repositories.Store, _ *models.Matching, confirmed []models.Apply) error {
			seen = confirmed
			return nil
		})
	})
	ctx := context.Background()
	organizer := env.user(t, "host")
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	m := env.matching(t, organizer, 4)
	a := env.apply(t, alice, m)
	env.apply(t, bob, m)
	_, err := env.applies.Accept(ctx, organizer.ID, a.ID)
	require.NoError(t, err)

	require.NoError(t, env.matchings.Delete(ctx, organizer.ID, m.ID))

	require.Len(t, seen, 2)
	for _, c := range seen {
		assert.Equal(t, models.ApplyAccepted, c.Status)
	}
	_, err = env.store.Matchings().FindByID(ctx, m.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	assert.Len(t, env.notificationsFor(t, alice, models.NotifyDeleteMatching), 1)
	assert.Len(t, env.notificationsFor(t, bob, models.NotifyDeleteMatching), 1)
	assert.Empty(t, env.notificationsFor(t, organizer, models.NotifyDeleteMatching))

	applies, err := env.store.Applies().ListByMatching(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, applies, 3, "applies are not removed with the matching")
}

func TestDeleteWeatherIssueSkipsPolicy(t *testing.T) {
	called := false
	env := newTestEnv(t, func(cfg *MatchingServiceConfig) {
		cfg.DeletePolicy = DeletePolicyFunc(func(context.Context, repositories.Store, *models.Matching, []models.Apply) error {
			called = true
			return errors.New("penalty")
		})
	})
	ctx := context.Background()
	organizer := env.user(t, "host")
	guest := env.user(t, "guest")
	m := env.matching(t, organizer, 2)
	a := env.apply(t, guest, m)
	_, err := env.applies.Accept(ctx, organizer.ID, a.ID)
	require.NoError(t, err)
	_, err = env.matchings.ChangeRecruitStatus(ctx, organizer.ID, m.ID, models.RecruitWeatherIssue)
	require.NoError(t, err)

	require.NoError(t, env.matchings.Delete(ctx, organizer.ID, m.ID))
	assert.False(t, called)
}

func TestDeletePolicyErrorAbortsDelete(t *testing.T) {
	env := newTestEnv(t, func(cfg *MatchingServiceConfig) {
		cfg.DeletePolicy = DeletePolicyFunc(func(context.Context, repositories.Store, *models.Matching, []models.Apply) error {
			return errors.New("penalty ledger unavailable")
		})
	})
	ctx := context.Background()
	organizer := env.user(t, "host")
	guest := env.user(t, "guest")
	m := env.matching(t, organizer, 4)
	env.apply(t, guest, m)

	err := env.matchings.Delete(ctx, organizer.ID, m.ID)
	require.Error(t, err)

	_, err = env.store.Matchings().FindByID(ctx, m.ID)
	assert.NoError(t, err)
	assert.Empty(t, env.notificationsFor(t, guest, models.NotifyDeleteMatching))
	assert.Empty(t, env.pub.ofType(models.NotifyDeleteMatching))
}

func TestDeleteByNonOrganizerIsRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.user(t, "host")
	guest := env.user(t, "guest")
	m := env.matching(t, organizer, 4)
	env.apply(t, guest, m)

	err := env.matchings.Delete(ctx, guest.ID, m.ID)
	assert.ErrorIs(t, err, ErrNoPermission)

	_, err = env.store.Matchings().FindByID(ctx, m.ID)
	assert.NoError(t, err)
	assert.Empty(t, env.pub.ofType(models.NotifyDeleteMatching))
}

func TestGetApplyContentsForOrganizerWithNoPending(t *testing.T) {
	env := newTestEnv(t)
	organizer := env.user(t, "host")
	m := env.matching(t, organizer, 4)

	contents, err := env.matchings.GetApplyContents(context.Background(), organizer.ID, m.ID)
	require.NoError(t, err)
	require.NotNil(t, contents.ApplyNum)
	require.NotNil(t, contents.AppliedMembers)
	assert.Zero(t, *contents.ApplyNum)
	assert.Empty(t, *contents.AppliedMembers)
	assert.Equal(t, 4, contents.RecruitNum)
	assert.Equal(t, 1, contents.ConfirmedNum)
	require.Len(t, contents.ConfirmedMembers, 1)
	assert.Equal(t, "host", contents.ConfirmedMembers[0].Nickname)

	body, err := json.Marshal(contents)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"apply_num":0`)
	assert.Contains(t, string(body), `"applied_members":[]`)
}

func TestGetApplyContentsPendingCountMatchesList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.user(t, "host")
	m := env.matching(t, organizer, 4)
	for _, name := range []string{"alice", "bob", "carol"} {
		env.apply(t, env.user(t, name), m)
	}

	contents, err := env.matchings.GetApplyContents(ctx, organizer.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), *contents.ApplyNum)
	assert.Len(t, *contents.AppliedMembers, 3)
	assert.Equal(t, "alice", (*contents.AppliedMembers)[0].Nickname)
}

func TestGetApplyContentsHidesPendingFromOthers(t *testing.T) {
	env := newTestEnv(t)
	organizer := env.user(t, "host")
	guest := env.user(t, "guest")
	m := env.matching(t, organizer, 4)
	env.apply(t, guest, m)

	contents, err := env.matchings.GetApplyContents(context.Background(), guest.ID, m.ID)
	require.NoError(t, err)
	assert.Nil(t, contents.ApplyNum)
	assert.Nil(t, contents.AppliedMembers)
	assert.Len(t, contents.ConfirmedMembers, 1)

	body, err := json.Marshal(contents)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "applied_members")
	assert.NotContains(t, string(body), "apply_num")
}

func TestGetListAndDetail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.user(t, "host")
	for i := 0; i < 3; i++ {
		env.matching(t, organizer, 4)
	}

	page, err := env.matchings.GetList(ctx, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Content, 2)
	assert.Equal(t, "host", page.Content[0].Organizer.Nickname)
	assert.Equal(t, "18:00", page.Content[0].StartTime)
	assert.Equal(t, "2025-02-28 23:59", page.Content[0].RecruitDueDate)

	detail, err := env.matchings.GetDetail(ctx, page.Content[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Evening Doubles", detail.Title)

	_, err = env.matchings.GetDetail(ctx, 404)
	assert.ErrorIs(t, err, ErrMatchingNotFound)
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.user(t, "host")
	d := eveningDoubles()
	d.Ntrp = models.NtrpBeginner
	_, err := env.matchings.Create(ctx, organizer.ID, d)
	require.NoError(t, err)
	d.Ntrp = models.NtrpPro
	d.Date = "2025-04-01"
	_, err = env.matchings.Create(ctx, organizer.ID, d)
	require.NoError(t, err)

	page, err := env.matchings.Search(ctx, MatchingSearch{Ntrps: []models.Ntrp{models.NtrpBeginner}}, 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, models.NtrpBeginner, page.Content[0].Ntrp)

	page, err = env.matchings.Search(ctx, MatchingSearch{DateFrom: "2025-03-15"}, 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "2025-04-01", page.Content[0].Date)

	_, err = env.matchings.Search(ctx, MatchingSearch{Ages: []models.AgeGroup{"TEENS"}}, 0, 10)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = env.matchings.Search(ctx, MatchingSearch{DateTo: "next week"}, 0, 10)
	assert.ErrorIs(t, err, ErrInvalidDateFormat)
}

func TestChangeRecruitStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.user(t, "host")
	guest := env.user(t, "guest")
	m := env.matching(t, organizer, 4)
	env.apply(t, guest, m)

	_, err := env.matchings.ChangeRecruitStatus(ctx, organizer.ID, m.ID, models.RecruitOpen)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	_, err = env.matchings.ChangeRecruitStatus(ctx, guest.ID, m.ID, models.RecruitClosed)
	assert.ErrorIs(t, err, ErrNoPermission)

	changed, err := env.matchings.ChangeRecruitStatus(ctx, organizer.ID, m.ID, models.RecruitClosed)
	require.NoError(t, err)
	assert.Equal(t, models.RecruitClosed, changed.RecruitStatus)
	assert.Len(t, env.notificationsFor(t, guest, models.NotifyCloseMatching), 1)

	_, err = env.matchings.ChangeRecruitStatus(ctx, organizer.ID, m.ID, models.RecruitClosed)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	_, err = env.matchings.ChangeRecruitStatus(ctx, organizer.ID, m.ID, models.RecruitWeatherIssue)
	require.NoError(t, err)
	assert.Len(t, env.notificationsFor(t, guest, models.NotifyWeatherIssue), 1)
}

func TestCloseExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.user(t, "host")
	guest := env.user(t, "guest")
	expired := env.matching(t, organizer, 4)
	env.apply(t, guest, expired)

	later := eveningDoubles()
	later.RecruitDueDate = "2025-03-31 12:00"
	upcoming, err := env.matchings.Create(ctx, organizer.ID, later)
	require.NoError(t, err)

	closed, err := env.matchings.CloseExpired(ctx, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	got, err := env.store.Matchings().FindByID(ctx, expired.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RecruitClosed, got.RecruitStatus)
	got, err = env.store.Matchings().FindByID(ctx, upcoming.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RecruitOpen, got.RecruitStatus)
	assert.Len(t, env.notificationsFor(t, guest, models.NotifyCloseMatching), 1)

	closed, err = env.matchings.CloseExpired(ctx, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, closed)
}
