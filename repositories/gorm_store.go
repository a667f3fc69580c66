package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// GormStore is the postgres-backed Store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Users() SiteUserRepository { return &gormUsers{db: s.db} }
func (s *GormStore) Matchings() MatchingRepository { return &gormMatchings{db: s.db} }
func (s *GormStore) Applies() ApplyRepository { return &gormApplies{db: s.db} }
func (s *GormStore) Notifications() NotificationRepository { return &gormNotifications{db: s.db} }
func (s *GormStore) Exports() ExportJobRepository { return &gormExports{db: s.db} }

// Transaction runs fn inside a database transaction. Nested calls become
// savepoints.
func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormStore(tx))
	})
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// translateError maps driver and gorm errors onto the package sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicate
	}
	return err
}
