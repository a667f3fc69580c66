package memstore

import (
	"cmp"
	"context"
	"slices"
	"time"

	"gorm.io/gorm"

	"github.com/vnkhanh/matching-server/models"
	"github.com/vnkhanh/matching-server/repositories"
)

type users struct{ s *Store }

func (r *users) Create(_ context.Context, u *models.SiteUser) error {
	defer r.s.lock()()
	st := r.s.state
	for _, existing := range st.users {
		if existing.Email == u.Email {
			return repositories.ErrDuplicate
		}
		if u.GoogleSub != nil && existing.GoogleSub != nil && *existing.GoogleSub == *u.GoogleSub {
			return repositories.ErrDuplicate
		}
	}
	st.userSeq++
	u.ID = st.userSeq
	u.CreatedAt = r.s.now()
	row := *u
	row.Matchings, row.Applies = nil, nil
	st.users[u.ID] = row
	return nil
}

func (r *users) FindByID(_ context.Context, id uint) (*models.SiteUser, error) {
	defer r.s.lock()()
	u, ok := r.s.state.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (r *users) FindByIDs(_ context.Context, ids []uint) (map[uint]models.SiteUser, error) {
	defer r.s.lock()()
	out := make(map[uint]models.SiteUser, len(ids))
	for _, id := range ids {
		if u, ok := r.s.state.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (r *users) FindByEmail(_ context.Context, email string) (*models.SiteUser, error) {
	defer r.s.lock()()
	for _, u := range r.s.state.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *users) FindByGoogleSub(_ context.Context, sub string) (*models.SiteUser, error) {
	defer r.s.lock()()
	for _, u := range r.s.state.users {
		if u.GoogleSub != nil && *u.GoogleSub == sub {
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

type matchings struct{ s *Store }

func (r *matchings) Create(_ context.Context, m *models.Matching) error {
	defer r.s.lock()()
	st := r.s.state
	st.matchingSeq++
	now := r.s.now()
	m.ID = st.matchingSeq
	m.CreateTime, m.UpdatedAt = now, now
	row := *m
	row.SiteUser, row.Applies = nil, nil
	st.matchings[m.ID] = row
	return nil
}

// live returns a non-deleted matching. Callers hold the lock.
func (r *matchings) live(id uint) (models.Matching, bool) {
	m, ok := r.s.state.matchings[id]
	if !ok || m.DeletedAt.Valid {
		return models.Matching{}, false
	}
	return m, true
}

func (r *matchings) FindByID(_ context.Context, id uint) (*models.Matching, error) {
	defer r.s.lock()()
	m, ok := r.live(id)
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &m, nil
}

func (r *matchings) FindByIDs(_ context.Context, ids []uint) (map[uint]models.Matching, error) {
	defer r.s.lock()()
	out := make(map[uint]models.Matching, len(ids))
	for _, id := range ids {
		if m, ok := r.live(id); ok {
			out[id] = m
		}
	}
	return out, nil
}

func (r *matchings) UpdateDetails(_ context.Context, m *models.Matching) error {
	defer r.s.lock()()
	row, ok := r.live(m.ID)
	if !ok {
		return repositories.ErrNotFound
	}
	row.Title = m.Title
	row.Content = m.Content
	row.Location = m.Location
	row.LocationImg = m.LocationImg
	row.Date = m.Date
	row.StartTime = m.StartTime
	row.EndTime = m.EndTime
	row.RecruitDueDate = m.RecruitDueDate
	row.RecruitNum = m.RecruitNum
	row.Cost = m.Cost
	row.IsReserved = m.IsReserved
	row.Ntrp = m.Ntrp
	row.Age = m.Age
	row.MatchingType = m.MatchingType
	row.UpdatedAt = r.s.now()
	r.s.state.matchings[m.ID] = row
	return nil
}

func (r *matchings) UpdateStatus(_ context.Context, id uint, status models.RecruitStatus) error {
	defer r.s.lock()()
	row, ok := r.live(id)
	if !ok {
		return repositories.ErrNotFound
	}
	row.RecruitStatus = status
	row.UpdatedAt = r.s.now()
	r.s.state.matchings[id] = row
	return nil
}

func (r *matchings) IncrementConfirmed(_ context.Context, id uint) (*models.Matching, error) {
	defer r.s.lock()()
	row, ok := r.live(id)
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if !row.HasCapacity() {
		return nil, repositories.ErrCapacityReached
	}
	row.ConfirmedNum++
	r.s.state.matchings[id] = row
	return &row, nil
}

func (r *matchings) Delete(_ context.Context, id uint) error {
	defer r.s.lock()()
	row, ok := r.live(id)
	if !ok {
		return repositories.ErrNotFound
	}
	row.DeletedAt = gorm.DeletedAt{Time: r.s.now(), Valid: true}
	r.s.state.matchings[id] = row
	return nil
}

func (r *matchings) List(ctx context.Context, page repositories.Page) ([]models.Matching, int64, error) {
	return r.Search(ctx, repositories.MatchingFilter{}, page)
}

func (r *matchings) Search(_ context.Context, filter repositories.MatchingFilter, page repositories.Page) ([]models.Matching, int64, error) {
	defer r.s.lock()()
	var rows []models.Matching
	for _, m := range r.s.state.matchings {
		if !m.DeletedAt.Valid && filter.Matches(m) {
			rows = append(rows, m)
		}
	}
	slices.SortFunc(rows, func(a, b models.Matching) int {
		if c := b.CreateTime.Compare(a.CreateTime); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	total := int64(len(rows))
	start := min(page.Offset(), len(rows))
	end := min(start+page.Size, len(rows))
	return append([]models.Matching{}, rows[start:end]...), total, nil
}

func (r *matchings) FindRecruitingDueBefore(_ context.Context, t time.Time) ([]models.Matching, error) {
	defer r.s.lock()()
	var rows []models.Matching
	for _, m := range r.s.state.matchings {
		if m.DeletedAt.Valid {
			continue
		}
		if (m.RecruitStatus == models.RecruitOpen || m.RecruitStatus == models.RecruitFull) && !m.RecruitDueDate.After(t) {
			rows = append(rows, m)
		}
	}
	slices.SortFunc(rows, func(a, b models.Matching) int {
		return a.RecruitDueDate.Compare(b.RecruitDueDate)
	})
	return rows, nil
}

type applies struct{ s *Store }

func (r *applies) Create(_ context.Context, a *models.Apply) error {
	defer r.s.lock()()
	st := r.s.state
	for _, existing := range st.applies {
		if existing.SiteUserID == a.SiteUserID && existing.MatchingID == a.MatchingID {
			return repositories.ErrDuplicate
		}
	}
	if a.Status == "" {
		a.Status = models.ApplyPending
	}
	st.applySeq++
	now := r.s.now()
	a.ID = st.applySeq
	a.CreatedAt, a.UpdatedAt = now, now
	st.applies[a.ID] = *a
	return nil
}

func (r *applies) FindByID(_ context.Context, id uint) (*models.Apply, error) {
	defer r.s.lock()()
	a, ok := r.s.state.applies[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &a, nil
}

func (r *applies) FindBySiteUserAndMatching(_ context.Context, userID, matchingID uint) (*models.Apply, error) {
	defer r.s.lock()()
	for _, a := range r.s.state.applies {
		if a.SiteUserID == userID && a.MatchingID == matchingID {
			return &a, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// where collects applies matching keep, ordered by id. Callers hold the lock.
func (r *applies) where(keep func(models.Apply) bool) []models.Apply {
	rows := []models.Apply{}
	for _, a := range r.s.state.applies {
		if keep(a) {
			rows = append(rows, a)
		}
	}
	slices.SortFunc(rows, func(a, b models.Apply) int { return cmp.Compare(a.ID, b.ID) })
	return rows
}

func (r *applies) ListByMatching(_ context.Context, matchingID uint) ([]models.Apply, error) {
	defer r.s.lock()()
	return r.where(func(a models.Apply) bool { return a.MatchingID == matchingID }), nil
}

func (r *applies) ListByMatchingAndStatus(_ context.Context, matchingID uint, status models.ApplyStatus) ([]models.Apply, error) {
	defer r.s.lock()()
	return r.where(func(a models.Apply) bool {
		return a.MatchingID == matchingID && a.Status == status
	}), nil
}

func (r *applies) ListBySiteUser(_ context.Context, userID uint) ([]models.Apply, error) {
	defer r.s.lock()()
	rows := r.where(func(a models.Apply) bool { return a.SiteUserID == userID })
	slices.Reverse(rows)
	return rows, nil
}

func (r *applies) ListMembers(_ context.Context, matchingID uint, status models.ApplyStatus) ([]models.ApplyMember, error) {
	defer r.s.lock()()
	members := []models.ApplyMember{}
	rows := r.where(func(a models.Apply) bool {
		return a.MatchingID == matchingID && a.Status == status
	})
	for _, a := range rows {
		u, ok := r.s.state.users[a.SiteUserID]
		if !ok {
			continue
		}
		members = append(members, models.ApplyMember{ApplyID: a.ID, SiteUserID: a.SiteUserID, Nickname: u.Nickname})
	}
	return members, nil
}

func (r *applies) UpdateStatus(_ context.Context, id uint, from, to models.ApplyStatus) error {
	defer r.s.lock()()
	a, ok := r.s.state.applies[id]
	if !ok || a.Status != from {
		return repositories.ErrConflict
	}
	a.Status = to
	a.UpdatedAt = r.s.now()
	r.s.state.applies[id] = a
	return nil
}

type notifications struct{ s *Store }

func (r *notifications) Create(_ context.Context, n *models.Notification) error {
	defer r.s.lock()()
	st := r.s.state
	st.notificationSeq++
	n.ID = st.notificationSeq
	n.CreatedAt = r.s.now()
	st.notifications[n.ID] = *n
	return nil
}

func (r *notifications) ListBySiteUser(_ context.Context, userID uint, unreadOnly bool) ([]models.Notification, error) {
	defer r.s.lock()()
	rows := []models.Notification{}
	for _, n := range r.s.state.notifications {
		if n.SiteUserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		rows = append(rows, n)
	}
	slices.SortFunc(rows, func(a, b models.Notification) int { return cmp.Compare(b.ID, a.ID) })
	return rows, nil
}

func (r *notifications) MarkRead(_ context.Context, id, userID uint, at time.Time) error {
	defer r.s.lock()()
	n, ok := r.s.state.notifications[id]
	if !ok || n.SiteUserID != userID {
		return repositories.ErrNotFound
	}
	n.IsRead = true
	n.ReadAt = &at
	r.s.state.notifications[id] = n
	return nil
}

type exports struct{ s *Store }

func (r *exports) Create(_ context.Context, job *models.ExportJob) error {
	defer r.s.lock()()
	if _, ok := r.s.state.exports[job.JobID]; ok {
		return repositories.ErrDuplicate
	}
	now := r.s.now()
	job.CreatedAt, job.UpdatedAt = now, now
	if job.Status == "" {
		job.Status = models.ExportQueued
	}
	r.s.state.exports[job.JobID] = *job
	return nil
}

func (r *exports) FindByJobID(_ context.Context, jobID string) (*models.ExportJob, error) {
	defer r.s.lock()()
	job, ok := r.s.state.exports[jobID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &job, nil
}

func (r *exports) UpdateStatus(_ context.Context, jobID, status string, filePath, errMsg *string) error {
	defer r.s.lock()()
	job, ok := r.s.state.exports[jobID]
	if !ok {
		return repositories.ErrNotFound
	}
	job.Status = status
	if filePath != nil {
		job.FilePath = filePath
	}
	if errMsg != nil {
		job.ErrorMsg = errMsg
	}
	job.UpdatedAt = r.s.now()
	r.s.state.exports[jobID] = job
	return nil
}
