package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/vnkhanh/matching-server/metrics"
	"github.com/vnkhanh/matching-server/models"
	"github.com/vnkhanh/matching-server/repositories"
	"github.com/vnkhanh/matching-server/utils"
)

// Outbox collects notifications written inside a transaction. Flush them
// only after the transaction commits.
type Outbox struct {
	pending []models.Notification
}

func (o *Outbox) Len() int {
	return len(o.pending)
}

type NotificationServiceConfig struct {
	Store     repositories.Store
	Publisher Publisher
	Now       func() time.Time
	Logger    logrus.FieldLogger
}

type NotificationService struct {
	store     repositories.Store
	publisher Publisher
	now       func() time.Time
	log       logrus.FieldLogger
}

func NewNotificationService(cfg NotificationServiceConfig) *NotificationService {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Publisher == nil {
		cfg.Publisher = LogPublisher{Logger: cfg.Logger}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &NotificationService{
		store:     cfg.Store,
		publisher: cfg.Publisher,
		now:       cfg.Now,
		log:       cfg.Logger,
	}
}

type notificationPayload struct {
	MatchingID uint   `json:"matching_id"`
	Title      string `json:"title"`
	Date       string `json:"date"`
}

// CreateAndSend stores a notification for recipientID through tx and queues
// it on ob for publishing.
func (s *NotificationService) CreateAndSend(ctx context.Context, tx repositories.Store, ob *Outbox, recipientID uint, m *models.Matching, typ models.NotificationType) error {
	payload, err := json.Marshal(notificationPayload{
		MatchingID: m.ID,
		Title:      m.Title,
		Date:       utils.FormatDate(m.Date),
	})
	if err != nil {
		return fmt.Errorf("encode notification payload: %w", err)
	}

	n := models.Notification{
		SiteUserID: recipientID,
		MatchingID: m.ID,
		Type:       typ,
		Content:    notificationContent(typ, m.Title),
		Payload:    datatypes.JSON(payload),
	}
	if err := tx.Notifications().Create(ctx, &n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	ob.pending = append(ob.pending, n)
	return nil
}

// Flush publishes queued notifications. Delivery is fire-and-forget:
// failures are logged and counted, never returned.
func (s *NotificationService) Flush(ctx context.Context, ob *Outbox) {
	if ob == nil || len(ob.pending) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, n := range ob.pending {
		err := s.publisher.Publish(ctx, n)
		metrics.RecordNotification(string(n.Type), err == nil)
		if err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"notification_id": n.ID,
				"user_id":         n.SiteUserID,
			}).Warn("publish notification failed")
		}
	}
	ob.pending = nil
}

func (s *NotificationService) ListForUser(ctx context.Context, userID uint, unreadOnly bool) ([]models.Notification, error) {
	return s.store.Notifications().ListBySiteUser(ctx, userID, unreadOnly)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uint) error {
	err := s.store.Notifications().MarkRead(ctx, notificationID, userID, s.now())
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrNotificationNotFound
	}
	return err
}

func notificationContent(typ models.NotificationType, title string) string {
	switch typ {
	case models.NotifyModifyMatching:
		return fmt.Sprintf("Matching %q was modified.", title)
	case models.NotifyDeleteMatching:
		return fmt.Sprintf("Matching %q was deleted.", title)
	case models.NotifyApply:
		return fmt.Sprintf("New application for %q.", title)
	case models.NotifyAcceptApply:
		return fmt.Sprintf("Your application for %q was accepted.", title)
	case models.NotifyRejectApply:
		return fmt.Sprintf("Your application for %q was rejected.", title)
	case models.NotifyCloseMatching:
		return fmt.Sprintf("Recruitment for %q is closed.", title)
	case models.NotifyWeatherIssue:
		return fmt.Sprintf("Matching %q is cancelled due to weather.", title)
	}
	return title
}
