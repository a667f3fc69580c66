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
)

type MatchingServiceConfig struct {
	Store        repositories.Store
	Notifier     *NotificationService
	DeletePolicy DeletePolicy
	// Location is the zone date and time fields are interpreted in.
	Location *time.Location
	Logger   logrus.FieldLogger
}

// MatchingService owns the matching lifecycle: every mutation runs in a
// single store transaction and notifications go out after commit.
type MatchingService struct {
	store    repositories.Store
	notifier *NotificationService
	policy   DeletePolicy
	loc      *time.Location
	log      logrus.FieldLogger
}

func NewMatchingService(cfg MatchingServiceConfig) *MatchingService {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NewNotificationService(NotificationServiceConfig{Store: cfg.Store, Logger: cfg.Logger})
	}
	if cfg.DeletePolicy == nil {
		cfg.DeletePolicy = NoPenalty{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &MatchingService{
		store:    cfg.Store,
		notifier: cfg.Notifier,
		policy:   cfg.DeletePolicy,
		loc:      cfg.Location,
		log:      cfg.Logger,
	}
}

// Create persists a new OPEN matching together with the organizer's
// ACCEPTED apply.
func (s *MatchingService) Create(ctx context.Context, organizerID uint, d MatchingDetails) (*models.Matching, error) {
	sc, err := d.validate(s.loc)
	if err != nil {
		return nil, err
	}

	var created *models.Matching
	err = s.store.Transaction(ctx, func(tx repositories.Store) error {
		organizer, err := findUser(ctx, tx, organizerID)
		if err != nil {
			return err
		}

		m := &models.Matching{
			SiteUserID:    organizer.ID,
			RecruitStatus: models.RecruitOpen,
			ConfirmedNum:  1,
		}
		d.applyTo(m, sc)
		if err := tx.Matchings().Create(ctx, m); err != nil {
			return fmt.Errorf("create matching: %w", err)
		}

		own := &models.Apply{
			SiteUserID:  organizer.ID,
			MatchingID:  m.ID,
			Status:      models.ApplyAccepted,
			IsOrganizer: true,
		}
		if err := tx.Applies().Create(ctx, own); err != nil {
			return fmt.Errorf("create organizer apply: %w", err)
		}
		created = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordMatchingEvent("created")
	s.log.WithFields(logrus.Fields{"matching_id": created.ID, "user_id": organizerID}).Info("matching created")
	return created, nil
}

// Update rewrites the editable fields. Recruit status and confirmed count are
// never touched; applicants other than the organizer are notified.
func (s *MatchingService) Update(ctx context.Context, organizerID, matchingID uint, d MatchingDetails) (*models.Matching, error) {
	sc, err := d.validate(s.loc)
	if err != nil {
		return nil, err
	}

	ob := &Outbox{}
	var updated *models.Matching
	err = s.store.Transaction(ctx, func(tx repositories.Store) error {
		m, err := findOwnedMatching(ctx, tx, organizerID, matchingID)
		if err != nil {
			return err
		}
		if d.RecruitNum < m.ConfirmedNum {
			return ErrRecruitNumBelowConfirmed
		}
		if err := s.notifyApplicants(ctx, tx, ob, m, models.NotifyModifyMatching); err != nil {
			return err
		}

		d.applyTo(m, sc)
		if err := tx.Matchings().UpdateDetails(ctx, m); err != nil {
			return fmt.Errorf("update matching: %w", err)
		}
		updated = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Flush(ctx, ob)
	metrics.RecordMatchingEvent("updated")
	s.log.WithFields(logrus.Fields{"matching_id": matchingID, "notified": ob.Len()}).Info("matching updated")
	return updated, nil
}

// Delete notifies applicants and soft-deletes the matching. WEATHER_ISSUE
// matchings skip the delete policy.
func (s *MatchingService) Delete(ctx context.Context, organizerID, matchingID uint) error {
	ob := &Outbox{}
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		m, err := findOwnedMatching(ctx, tx, organizerID, matchingID)
		if err != nil {
			return err
		}
		if err := s.notifyApplicants(ctx, tx, ob, m, models.NotifyDeleteMatching); err != nil {
			return err
		}

		if m.RecruitStatus != models.RecruitWeatherIssue && m.ConfirmedNum > 0 {
			confirmed, err := tx.Applies().ListByMatchingAndStatus(ctx, m.ID, models.ApplyAccepted)
			if err != nil {
				return fmt.Errorf("list confirmed applies: %w", err)
			}
			if err := s.policy.OnDelete(ctx, tx, m, confirmed); err != nil {
				return err
			}
		}

		if err := tx.Matchings().Delete(ctx, m.ID); err != nil {
			return fmt.Errorf("delete matching: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notifier.Flush(ctx, ob)
	metrics.RecordMatchingEvent("deleted")
	s.log.WithFields(logrus.Fields{"matching_id": matchingID, "user_id": organizerID}).Info("matching deleted")
	return nil
}

// GetList pages through matchings, newest first. page is zero-based.
func (s *MatchingService) GetList(ctx context.Context, page, size int) (*PageResult[MatchingPreview], error) {
	p := repositories.NewPage(page, size)
	rows, total, err := s.store.Matchings().List(ctx, p)
	if err != nil {
		return nil, err
	}
	return s.previews(ctx, rows, p, total)
}

func (s *MatchingService) Search(ctx context.Context, q MatchingSearch, page, size int) (*PageResult[MatchingPreview], error) {
	f, err := q.filter(s.loc)
	if err != nil {
		return nil, err
	}
	p := repositories.NewPage(page, size)
	rows, total, err := s.store.Matchings().Search(ctx, f, p)
	if err != nil {
		return nil, err
	}
	return s.previews(ctx, rows, p, total)
}

func (s *MatchingService) previews(ctx context.Context, rows []models.Matching, p repositories.Page, total int64) (*PageResult[MatchingPreview], error) {
	ids := make([]uint, 0, len(rows))
	for _, m := range rows {
		ids = append(ids, m.SiteUserID)
	}
	organizers, err := s.store.Users().FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	content := make([]MatchingPreview, 0, len(rows))
	for _, m := range rows {
		content = append(content, newPreview(m, organizers[m.SiteUserID], s.loc))
	}
	return newPageResult(content, p.Number, p.Size, total), nil
}

func (s *MatchingService) GetDetail(ctx context.Context, matchingID uint) (*MatchingDetail, error) {
	m, err := findMatching(ctx, s.store, matchingID)
	if err != nil {
		return nil, err
	}
	organizer, err := s.store.Users().FindByID(ctx, m.SiteUserID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}
	if organizer == nil {
		organizer = &models.SiteUser{ID: m.SiteUserID}
	}
	return &MatchingDetail{
		MatchingPreview: newPreview(*m, *organizer, s.loc),
		Content:         m.Content,
		UpdatedAt:       m.UpdatedAt,
	}, nil
}

// GetApplyContents reports confirmed members to everyone and pending
// applicants only to the organizer. No pending applicants is an empty list.
func (s *MatchingService) GetApplyContents(ctx context.Context, userID, matchingID uint) (*ApplyContents, error) {
	user, err := findUser(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	m, err := findMatching(ctx, s.store, matchingID)
	if err != nil {
		return nil, err
	}

	confirmed, err := s.store.Applies().ListMembers(ctx, m.ID, models.ApplyAccepted)
	if err != nil {
		return nil, fmt.Errorf("list confirmed members: %w", err)
	}
	if confirmed == nil {
		confirmed = []models.ApplyMember{}
	}
	out := &ApplyContents{
		RecruitNum:       m.RecruitNum,
		ConfirmedNum:     m.ConfirmedNum,
		ConfirmedMembers: confirmed,
	}

	if !m.IsOrganizedBy(user.ID) {
		return out, nil
	}

	pending, err := s.store.Applies().ListMembers(ctx, m.ID, models.ApplyPending)
	if err != nil {
		return nil, fmt.Errorf("%w: pending applicants: %w", ErrApplyNotFound, err)
	}
	if pending == nil {
		pending = []models.ApplyMember{}
	}
	n := int64(len(pending))
	out.ApplyNum = &n
	out.AppliedMembers = &pending
	return out, nil
}

// ChangeRecruitStatus lets the organizer close recruitment or flag a weather
// cancellation.
func (s *MatchingService) ChangeRecruitStatus(ctx context.Context, organizerID, matchingID uint, status models.RecruitStatus) (*models.Matching, error) {
	var notifyType models.NotificationType
	switch status {
	case models.RecruitClosed:
		notifyType = models.NotifyCloseMatching
	case models.RecruitWeatherIssue:
		notifyType = models.NotifyWeatherIssue
	default:
		return nil, fmt.Errorf("%w: organizers may only set CLOSED or WEATHER_ISSUE", ErrInvalidStatusTransition)
	}

	ob := &Outbox{}
	var changed *models.Matching
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		m, err := findOwnedMatching(ctx, tx, organizerID, matchingID)
		if err != nil {
			return err
		}
		if !m.RecruitStatus.CanTransitionTo(status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, m.RecruitStatus, status)
		}
		if err := tx.Matchings().UpdateStatus(ctx, m.ID, status); err != nil {
			return fmt.Errorf("update recruit status: %w", err)
		}
		m.RecruitStatus = status
		if err := s.notifyApplicants(ctx, tx, ob, m, notifyType); err != nil {
			return err
		}
		changed = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Flush(ctx, ob)
	metrics.RecordMatchingEvent(string(status))
	s.log.WithFields(logrus.Fields{"matching_id": matchingID, "status": status}).Info("recruit status changed")
	return changed, nil
}

// CloseExpired closes OPEN and FULL matchings whose due date is not after
// now. Each matching is closed in its own transaction; failures are joined.
func (s *MatchingService) CloseExpired(ctx context.Context, now time.Time) (int, error) {
	due, err := s.store.Matchings().FindRecruitingDueBefore(ctx, now)
	if err != nil {
		return 0, err
	}

	closed := 0
	var errs []error
	for _, candidate := range due {
		ob := &Outbox{}
		changed := false
		err := s.store.Transaction(ctx, func(tx repositories.Store) error {
			m, err := findMatching(ctx, tx, candidate.ID)
			if err != nil {
				return err
			}
			if !m.RecruitStatus.CanTransitionTo(models.RecruitClosed) || m.RecruitDueDate.After(now) {
				return nil
			}
			if err := tx.Matchings().UpdateStatus(ctx, m.ID, models.RecruitClosed); err != nil {
				return err
			}
			m.RecruitStatus = models.RecruitClosed
			changed = true
			return s.notifyApplicants(ctx, tx, ob, m, models.NotifyCloseMatching)
		})
		if err != nil {
			if errors.Is(err, ErrMatchingNotFound) {
				continue
			}
			errs = append(errs, fmt.Errorf("close matching %d: %w", candidate.ID, err))
			continue
		}
		if changed {
			closed++
			s.notifier.Flush(ctx, ob)
		}
	}
	return closed, errors.Join(errs...)
}

// notifyApplicants notifies every applicant except the organizer.
func (s *MatchingService) notifyApplicants(ctx context.Context, tx repositories.Store, ob *Outbox, m *models.Matching, typ models.NotificationType) error {
	applies, err := tx.Applies().ListByMatching(ctx, m.ID)
	if err != nil {
		return fmt.Errorf("list applicants: %w", err)
	}
	for _, a := range applies {
		if a.IsOrganizer || a.SiteUserID == m.SiteUserID {
			continue
		}
		if err := s.notifier.CreateAndSend(ctx, tx, ob, a.SiteUserID, m, typ); err != nil {
			return err
		}
	}
	return nil
}
