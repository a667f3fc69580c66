package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/vnkhanh/matching-server/models"
)

// Publisher delivers a stored notification to whoever listens for it.
type Publisher interface {
	Publish(ctx context.Context, n models.Notification) error
}

// RedisPublisher fans notifications out over Redis pub/sub, one channel per
// recipient.
type RedisPublisher struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisPublisher(client redis.UniversalClient, prefix string) *RedisPublisher {
	if prefix == "" {
		prefix = "notifications"
	}
	return &RedisPublisher{client: client, prefix: prefix}
}

func (p *RedisPublisher) Channel(userID uint) string {
	return fmt.Sprintf("%s:%d", p.prefix, userID)
}

func (p *RedisPublisher) Publish(ctx context.Context, n models.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	return p.client.Publish(ctx, p.Channel(n.SiteUserID), body).Err()
}

// LogPublisher only logs. Used when no Redis is configured.
type LogPublisher struct {
	Logger logrus.FieldLogger
}

func (p LogPublisher) Publish(_ context.Context, n models.Notification) error {
	p.Logger.WithFields(logrus.Fields{
		"notification_id": n.ID,
		"user_id":         n.SiteUserID,
		"matching_id":     n.MatchingID,
		"type":            n.Type,
	}).Info("notification dispatched")
	return nil
}
