// Package repositories holds the persistence layer: repository interfaces,
// the gorm/postgres Store and shared query types.
package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/vnkhanh/matching-server/models"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("duplicate record")
	ErrConflict        = errors.New("record changed concurrently")
	ErrCapacityReached = errors.New("matching capacity reached")
)

type SiteUserRepository interface {
	Create(ctx context.Context, u *models.SiteUser) error
	FindByID(ctx context.Context, id uint) (*models.SiteUser, error)
	FindByIDs(ctx context.Context, ids []uint) (map[uint]models.SiteUser, error)
	FindByEmail(ctx context.Context, email string) (*models.SiteUser, error)
	FindByGoogleSub(ctx context.Context, sub string) (*models.SiteUser, error)
}

type MatchingRepository interface {
	Create(ctx context.Context, m *models.Matching) error
	FindByID(ctx context.Context, id uint) (*models.Matching, error)
	FindByIDs(ctx context.Context, ids []uint) (map[uint]models.Matching, error)
	// UpdateDetails writes models.EditableColumns only.
	UpdateDetails(ctx context.Context, m *models.Matching) error
	UpdateStatus(ctx context.Context, id uint, status models.RecruitStatus) error
	// IncrementConfirmed bumps confirmed_num while it is below recruit_num and
	// returns the fresh row, or ErrCapacityReached.
	IncrementConfirmed(ctx context.Context, id uint) (*models.Matching, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, page Page) ([]models.Matching, int64, error)
	Search(ctx context.Context, filter MatchingFilter, page Page) ([]models.Matching, int64, error)
	FindRecruitingDueBefore(ctx context.Context, t time.Time) ([]models.Matching, error)
}

type ApplyRepository interface {
	// Create inserts or fails with ErrDuplicate when the (user, matching)
	// pair already exists.
	Create(ctx context.Context, a *models.Apply) error
	FindByID(ctx context.Context, id uint) (*models.Apply, error)
	FindBySiteUserAndMatching(ctx context.Context, userID, matchingID uint) (*models.Apply, error)
	ListByMatching(ctx context.Context, matchingID uint) ([]models.Apply, error)
	ListByMatchingAndStatus(ctx context.Context, matchingID uint, status models.ApplyStatus) ([]models.Apply, error)
	ListBySiteUser(ctx context.Context, userID uint) ([]models.Apply, error)
	ListMembers(ctx context.Context, matchingID uint, status models.ApplyStatus) ([]models.ApplyMember, error)
	// UpdateStatus moves an apply from one status to another, or returns
	// ErrConflict when the row is no longer in the expected status.
	UpdateStatus(ctx context.Context, id uint, from, to models.ApplyStatus) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListBySiteUser(ctx context.Context, userID uint, unreadOnly bool) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID uint, at time.Time) error
}

type ExportJobRepository interface {
	Create(ctx context.Context, job *models.ExportJob) error
	FindByJobID(ctx context.Context, jobID string) (*models.ExportJob, error)
	UpdateStatus(ctx context.Context, jobID, status string, filePath, errMsg *string) error
}

// Store is the unit of work. Repositories obtained from the Store passed to a
// Transaction callback share that transaction.
type Store interface {
	Users() SiteUserRepository
	Matchings() MatchingRepository
	Applies() ApplyRepository
	Notifications() NotificationRepository
	Exports() ExportJobRepository
	Transaction(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is a zero-based page request.
type Page struct {
	Number int
	Size   int
}

func NewPage(number, size int) Page {
	if number < 0 {
		number = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

func (p Page) Offset() int {
	return p.Number * p.Size
}
