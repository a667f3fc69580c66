package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vnkhanh/matching-server/metrics"
	"github.com/vnkhanh/matching-server/models"
	"github.com/vnkhanh/matching-server/repositories"
	"github.com/vnkhanh/matching-server/utils"
)

type ApplyServiceConfig struct {
	Store    repositories.Store
	Notifier *NotificationService
	Now      func() time.Time
	Logger   logrus.FieldLogger
}

// ApplyService drives the apply state machine:
// PENDING -> ACCEPTED | REJECTED, decided by the organizer.
type ApplyService struct {
	store    repositories.Store
	notifier *NotificationService
	now      func() time.Time
	log      logrus.FieldLogger
}

func NewApplyService(cfg ApplyServiceConfig) *ApplyService {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NewNotificationService(NotificationServiceConfig{Store: cfg.Store, Logger: cfg.Logger})
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &ApplyService{
		store:    cfg.Store,
		notifier: cfg.Notifier,
		now:      cfg.Now,
		log:      cfg.Logger,
	}
}

// Apply files a PENDING apply. A second apply for the same pair, including
// after a rejection, fails with ErrAlreadyApplied.
func (s *ApplyService) Apply(ctx context.Context, userID, matchingID uint) (*models.Apply, error) {
	ob := &Outbox{}
	var created *models.Apply
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		user, err := findUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		m, err := findMatching(ctx, tx, matchingID)
		if err != nil {
			return err
		}
		if !m.RecruitStatus.AcceptsApplies() || !s.now().Before(m.RecruitDueDate) {
			return ErrClosedMatching
		}

		a := &models.Apply{SiteUserID: user.ID, MatchingID: m.ID, Status: models.ApplyPending}
		if err := tx.Applies().Create(ctx, a); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return ErrAlreadyApplied
			}
			return fmt.Errorf("create apply: %w", err)
		}
		if err := s.notifier.CreateAndSend(ctx, tx, ob, m.SiteUserID, m, models.NotifyApply); err != nil {
			return err
		}
		created = a
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyApplied) {
			metrics.RecordApplyEvent("duplicate")
		}
		return nil, err
	}

	s.notifier.Flush(ctx, ob)
	metrics.RecordApplyEvent("applied")
	s.log.WithFields(logrus.Fields{"apply_id": created.ID, "matching_id": matchingID, "user_id": userID}).Info("apply created")
	return created, nil
}

func (s *ApplyService) Accept(ctx context.Context, organizerID, applyID uint) (*models.Apply, error) {
	return s.decide(ctx, organizerID, applyID, models.ApplyAccepted)
}

func (s *ApplyService) Reject(ctx context.Context, organizerID, applyID uint) (*models.Apply, error) {
	return s.decide(ctx, organizerID, applyID, models.ApplyRejected)
}

func (s *ApplyService) decide(ctx context.Context, organizerID, applyID uint, to models.ApplyStatus) (*models.Apply, error) {
	ob := &Outbox{}
	var decided *models.Apply
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		if _, err := findUser(ctx, tx, organizerID); err != nil {
			return err
		}
		a, err := findApply(ctx, tx, applyID)
		if err != nil {
			return err
		}
		m, err := findMatching(ctx, tx, a.MatchingID)
		if err != nil {
			return err
		}
		if !m.IsOrganizedBy(organizerID) {
			return ErrNoPermission
		}
		if a.IsOrganizer || a.SiteUserID == m.SiteUserID {
			return ErrOrganizerApplyImmutable
		}
		if !a.Status.CanTransitionTo(to) {
			return ErrApplyNotPending
		}

		if to == models.ApplyAccepted {
			if m.RecruitStatus.Terminated() {
				return ErrClosedMatching
			}
			updated, err := tx.Matchings().IncrementConfirmed(ctx, m.ID)
			if errors.Is(err, repositories.ErrCapacityReached) {
				return ErrMatchingFull
			}
			if err != nil {
				return fmt.Errorf("confirm participant: %w", err)
			}
			if !updated.HasCapacity() && updated.RecruitStatus.CanTransitionTo(models.RecruitFull) {
				if err := tx.Matchings().UpdateStatus(ctx, m.ID, models.RecruitFull); err != nil {
					return fmt.Errorf("mark matching full: %w", err)
				}
				updated.RecruitStatus = models.RecruitFull
			}
			m = updated
		}

		if err := tx.Applies().UpdateStatus(ctx, a.ID, models.ApplyPending, to); err != nil {
			if errors.Is(err, repositories.ErrConflict) {
				return ErrApplyNotPending
			}
			return fmt.Errorf("update apply: %w", err)
		}
		a.Status = to

		typ := models.NotifyAcceptApply
		if to == models.ApplyRejected {
			typ = models.NotifyRejectApply
		}
		if err := s.notifier.CreateAndSend(ctx, tx, ob, a.SiteUserID, m, typ); err != nil {
			return err
		}
		decided = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Flush(ctx, ob)
	metrics.RecordApplyEvent(string(to))
	s.log.WithFields(logrus.Fields{"apply_id": applyID, "status": to}).Info("apply decided")
	return decided, nil
}

// ListMine lists the caller's applies on matchings that still exist.
func (s *ApplyService) ListMine(ctx context.Context, userID uint) ([]MyApply, error) {
	if _, err := findUser(ctx, s.store, userID); err != nil {
		return nil, err
	}
	applies, err := s.store.Applies().ListBySiteUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(applies))
	for _, a := range applies {
		ids = append(ids, a.MatchingID)
	}
	matchings, err := s.store.Matchings().FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]MyApply, 0, len(applies))
	for _, a := range applies {
		m, ok := matchings[a.MatchingID]
		if !ok {
			continue
		}
		out = append(out, MyApply{
			ApplyID:       a.ID,
			MatchingID:    m.ID,
			Title:         m.Title,
			Date:          utils.FormatDate(m.Date),
			Status:        a.Status,
			RecruitStatus: m.RecruitStatus,
			AppliedAt:     a.CreatedAt,
		})
	}
	return out, nil
}
