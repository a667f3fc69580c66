// Package memstore is an in-memory repositories.Store. A transaction works on
// a copy of the state and swaps it in only when the callback succeeds, so
// failed units of work leave nothing behind.
package memstore

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/vnkhanh/matching-server/models"
	"github.com/vnkhanh/matching-server/repositories"
)

type state struct {
	users         map[uint]models.SiteUser
	matchings     map[uint]models.Matching
	applies       map[uint]models.Apply
	notifications map[uint]models.Notification
	exports       map[string]models.ExportJob

	userSeq         uint
	matchingSeq     uint
	applySeq        uint
	notificationSeq uint
}

func newState() *state {
	return &state{
		users:         map[uint]models.SiteUser{},
		matchings:     map[uint]models.Matching{},
		applies:       map[uint]models.Apply{},
		notifications: map[uint]models.Notification{},
		exports:       map[string]models.ExportJob{},
	}
}

func (s *state) clone() *state {
	c := *s
	c.users = maps.Clone(s.users)
	c.matchings = maps.Clone(s.matchings)
	c.applies = maps.Clone(s.applies)
	c.notifications = maps.Clone(s.notifications)
	c.exports = maps.Clone(s.exports)
	return &c
}

// Store serializes every operation behind one mutex. Stores handed to a
// Transaction callback carry no mutex: the root lock is already held.
type Store struct {
	mu    *sync.Mutex
	state *state
	now   func() time.Time
}

var _ repositories.Store = (*Store)(nil)

func New() *Store {
	return &Store{mu: &sync.Mutex{}, state: newState(), now: time.Now}
}

// WithClock replaces the timestamp source used for created/updated columns.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) lock() func() {
	if s.mu == nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) Users() repositories.SiteUserRepository { return &users{s: s} }
func (s *Store) Matchings() repositories.MatchingRepository { return &matchings{s: s} }
func (s *Store) Applies() repositories.ApplyRepository { return &applies{s: s} }
func (s *Store) Notifications() repositories.NotificationRepository { return &notifications{s: s} }
func (s *Store) Exports() repositories.ExportJobRepository { return &exports{s: s} }

func (s *Store) Transaction(ctx context.Context, fn func(tx repositories.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.lock()
	defer unlock()

	draft := s.state.clone()
	if err := fn(&Store{state: draft, now: s.now}); err != nil {
		return err
	}
	*s.state = *draft
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}
