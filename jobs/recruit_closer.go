package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/vnkhanh/matching-server/metrics"
)

// ExpiredCloser closes matchings whose recruit due date has passed.
type ExpiredCloser interface {
	CloseExpired(ctx context.Context, now time.Time) (int, error)
}

type RecruitCloserConfig struct {
	Closer ExpiredCloser
	// Spec is a cron expression or descriptor such as "@every 1m".
	Spec    string
	Now     func() time.Time
	Timeout time.Duration
	Logger  logrus.FieldLogger
}

// RecruitCloser runs ExpiredCloser on a cron schedule. Overlapping runs are
// skipped.
type RecruitCloser struct {
	closer  ExpiredCloser
	spec    string
	now     func() time.Time
	timeout time.Duration
	log     logrus.FieldLogger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

func NewRecruitCloser(cfg RecruitCloserConfig) *RecruitCloser {
	if cfg.Spec == "" {
		cfg.Spec = "@every 1m"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	return &RecruitCloser{
		closer:  cfg.Closer,
		spec:    cfg.Spec,
		now:     cfg.Now,
		timeout: cfg.Timeout,
		log:     cfg.Logger.WithField("job", "recruit_closer"),
	}
}

// Start schedules the job. It is a no-op when already started.
func (j *RecruitCloser) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cron != nil {
		return nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(j.spec, func() {
		if _, err := j.RunOnce(context.Background()); err != nil {
			j.log.WithError(err).Warn("close expired matchings failed")
		}
	}); err != nil {
		return fmt.Errorf("schedule recruit closer %q: %w", j.spec, err)
	}
	c.Start()
	j.cron = c
	j.log.WithField("spec", j.spec).Info("recruit closer started")
	return nil
}

// Stop halts scheduling and waits for a running pass, bounded by ctx.
func (j *RecruitCloser) Stop(ctx context.Context) {
	j.mu.Lock()
	c := j.cron
	j.cron = nil
	j.mu.Unlock()
	if c == nil {
		return
	}

	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		j.log.Warn("recruit closer did not stop in time")
	}
}

// RunOnce performs a single pass and reports how many matchings it closed.
func (j *RecruitCloser) RunOnce(ctx context.Context) (int, error) {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return 0, nil
	}
	j.running = true
	j.mu.Unlock()
	defer func() {
		j.mu.Lock()
		j.running = false
		j.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	start := time.Now()
	closed, err := j.closer.CloseExpired(ctx, j.now())
	metrics.RecordCloserRun(closed, time.Since(start), err == nil)
	if closed > 0 {
		j.log.WithField("closed", closed).Info("closed expired matchings")
	}
	return closed, err
}
