package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/vnkhanh/matching-server/metrics"
	"github.com/vnkhanh/matching-server/models"
	"github.com/vnkhanh/matching-server/repositories"
	"github.com/vnkhanh/matching-server/utils"
)

type ExportServiceConfig struct {
	Store repositories.Store
	Dir   string
	// Run schedules a job. Defaults to a new goroutine.
	Run    func(task func())
	Logger logrus.FieldLogger
}

// ExportService writes applicant rosters to xlsx files in the background.
type ExportService struct {
	store repositories.Store
	dir   string
	run   func(task func())
	log   logrus.FieldLogger
}

func NewExportService(cfg ExportServiceConfig) *ExportService {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Dir == "" {
		cfg.Dir = "./exports"
	}
	if cfg.Run == nil {
		cfg.Run = func(task func()) { go task() }
	}
	return &ExportService{store: cfg.Store, dir: cfg.Dir, run: cfg.Run, log: cfg.Logger}
}

// Start queues a roster export. Only the organizer may export.
func (s *ExportService) Start(ctx context.Context, organizerID, matchingID uint) (*models.ExportJob, error) {
	if _, err := findOwnedMatching(ctx, s.store, organizerID, matchingID); err != nil {
		return nil, err
	}

	job := &models.ExportJob{
		JobID:       uuid.NewString(),
		MatchingID:  matchingID,
		RequestedBy: organizerID,
		Status:      models.ExportQueued,
	}
	if err := s.store.Exports().Create(ctx, job); err != nil {
		return nil, fmt.Errorf("create export job: %w", err)
	}

	jobID := job.JobID
	s.run(func() {
		if err := s.Process(context.Background(), jobID); err != nil {
			s.log.WithError(err).WithField("job_id", jobID).Error("roster export failed")
		}
	})
	return job, nil
}

// Get returns the job if it belongs to userID.
func (s *ExportService) Get(ctx context.Context, userID uint, jobID string) (*models.ExportJob, error) {
	job, err := s.store.Exports().FindByJobID(ctx, jobID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrExportNotFound
	}
	if err != nil {
		return nil, err
	}
	if job.RequestedBy != userID {
		return nil, ErrExportNotFound
	}
	return job, nil
}

func (s *ExportService) Process(ctx context.Context, jobID string) error {
	job, err := s.store.Exports().FindByJobID(ctx, jobID)
	if err != nil {
		return err
	}
	if err := s.store.Exports().UpdateStatus(ctx, jobID, models.ExportProcessing, nil, nil); err != nil {
		return err
	}

	path, err := s.writeRoster(ctx, job)
	if err != nil {
		msg := err.Error()
		metrics.RecordExport(models.ExportFailed)
		if uerr := s.store.Exports().UpdateStatus(ctx, jobID, models.ExportFailed, nil, &msg); uerr != nil {
			return errors.Join(err, uerr)
		}
		return err
	}

	metrics.RecordExport(models.ExportDone)
	return s.store.Exports().UpdateStatus(ctx, jobID, models.ExportDone, &path, nil)
}

var rosterHeader = []interface{}{"apply_id", "site_user_id", "nickname"}

func (s *ExportService) writeRoster(ctx context.Context, job *models.ExportJob) (string, error) {
	m, err := findMatching(ctx, s.store, job.MatchingID)
	if err != nil {
		return "", err
	}
	confirmed, err := s.store.Applies().ListMembers(ctx, m.ID, models.ApplyAccepted)
	if err != nil {
		return "", err
	}
	pending, err := s.store.Applies().ListMembers(ctx, m.ID, models.ApplyPending)
	if err != nil {
		return "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Matching"); err != nil {
		return "", err
	}
	summary := [][]interface{}{
		{"title", m.Title},
		{"location", m.Location},
		{"date", utils.FormatDate(m.Date)},
		{"time", utils.FormatClock(m.StartTime) + "-" + utils.FormatClock(m.EndTime)},
		{"recruit_num", m.RecruitNum},
		{"confirmed_num", m.ConfirmedNum},
		{"recruit_status", string(m.RecruitStatus)},
	}
	for i, row := range summary {
		if err := setRow(f, "Matching", i+1, row); err != nil {
			return "", err
		}
	}

	for sheet, members := range map[string][]models.ApplyMember{"Confirmed": confirmed, "Pending": pending} {
		if _, err := f.NewSheet(sheet); err != nil {
			return "", err
		}
		if err := setRow(f, sheet, 1, rosterHeader); err != nil {
			return "", err
		}
		for i, mem := range members {
			if err := setRow(f, sheet, i+2, []interface{}{mem.ApplyID, mem.SiteUserID, mem.Nickname}); err != nil {
				return "", err
			}
		}
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, fmt.Sprintf("roster_%d_%s.xlsx", m.ID, job.JobID))
	if err := f.SaveAs(path); err != nil {
		return "", err
	}
	return path, nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
