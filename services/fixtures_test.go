package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/matching-server/models"
	"github.com/vnkhanh/matching-server/repositories"
	"github.com/vnkhanh/matching-server/repositories/memstore"
)

type recordingPublisher struct {
	mu   sync.Mutex
	sent []models.Notification
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, n models.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, n)
	return nil
}

func (p *recordingPublisher) ofType(typ models.NotificationType) []models.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []models.Notification
	for _, n := range p.sent {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

type testEnv struct {
	store     *memstore.Store
	pub       *recordingPublisher
	notifier  *NotificationService
	matchings *MatchingService
	applies   *ApplyService
	now       time.Time
}

func newTestEnv(t *testing.T, opts ...func(*MatchingServiceConfig)) *testEnv {
	t.Helper()
	env := &testEnv{now: time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return env.now }
	logger, _ := logtest.NewNullLogger()

	env.store = memstore.New().WithClock(clock)
	env.pub = &recordingPublisher{}
	env.notifier = NewNotificationService(NotificationServiceConfig{
		Store:     env.store,
		Publisher: env.pub,
		Now:       clock,
		Logger:    logger,
	})

	cfg := MatchingServiceConfig{
		Store:    env.store,
		Notifier: env.notifier,
		Location: time.UTC,
		Logger:   logger,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	env.matchings = NewMatchingService(cfg)
	env.applies = NewApplyService(ApplyServiceConfig{
		Store:    env.store,
		Notifier: env.notifier,
		Now:      clock,
		Logger:   logger,
	})
	return env
}

func (e *testEnv) user(t *testing.T, nickname string) models.SiteUser {
	t.Helper()
	u := models.SiteUser{Nickname: nickname, Email: nickname + "@example.com"}
	require.NoError(t, e.store.Users().Create(context.Background(), &u))
	return u
}

func eveningDoubles() MatchingDetails {
	return MatchingDetails{
		Title:          "Evening Doubles",
		Location:       "Olympic Park Court 3",
		Date:           "2025-03-01",
		StartTime:      "18:00",
		EndTime:        "20:00",
		RecruitDueDate: "2025-02-28 23:59",
		RecruitNum:     4,
		Cost:           1000,
		MatchingType:   models.MatchingDouble,
	}
}

func (e *testEnv) matching(t *testing.T, organizer models.SiteUser, recruitNum int) *models.Matching {
	t.Helper()
	d := eveningDoubles()
	d.RecruitNum = recruitNum
	m, err := e.matchings.Create(context.Background(), organizer.ID, d)
	require.NoError(t, err)
	return m
}

func (e *testEnv) apply(t *testing.T, u models.SiteUser, m *models.Matching) *models.Apply {
	t.Helper()
	a, err := e.applies.Apply(context.Background(), u.ID, m.ID)
	require.NoError(t, err)
	return a
}

func (e *testEnv) notificationsFor(t *testing.T, u models.SiteUser, typ models.NotificationType) []models.Notification {
	t.Helper()
	rows, err := e.store.Notifications().ListBySiteUser(context.Background(), u.ID, false)
	require.NoError(t, err)
	var out []models.Notification
	for _, n := range rows {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

// faultyStore wraps a Store and fails every apply insert made inside a
// transaction.
type faultyStore struct {
	repositories.Store
}

var errInjected = errors.New("injected failure")

func (s faultyStore) Transaction(ctx context.Context, fn func(tx repositories.Store) error) error {
	return s.Store.Transaction(ctx, func(tx repositories.Store) error {
		return fn(faultyTx{Store: tx})
	})
}

type faultyTx struct {
	repositories.Store
}

func (t faultyTx) Applies() repositories.ApplyRepository {
	return faultyApplies{ApplyRepository: t.Store.Applies()}
}

type faultyApplies struct {
	repositories.ApplyRepository
}

func (faultyApplies) Create(context.Context, *models.Apply) error {
	return errInjected
}
