package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
)

// Job is one scheduled task. Run must be re-entrant: the scheduler may
// fire it again before operators notice a slow run elsewhere.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) (string, error)
}

// Scheduler runs jobs on fixed tickers, serializing each job across
// instances with a named Redis lock. When the locker is nil (single
// instance, no Redis) jobs run unguarded.
type Scheduler struct {
	locker *redislock.Client
	log    *logrus.Logger
	jobs   []Job
}

func NewScheduler(locker *redislock.Client, log *logrus.Logger) *Scheduler {
	return &Scheduler{locker: locker, log: log}
}

// Register adds a job. Call before Start.
func (s *Scheduler) Register(job Job) { s.jobs = append(s.jobs, job) }

// Start launches one goroutine per job and returns. Jobs stop when ctx
// is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	for _, job := range s.jobs {
		go s.loop(ctx, job)
	}
	s.log.WithField("jobs", len(s.jobs)).Info("scheduler started")
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, job)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	if s.locker != nil {
		lock, err := s.locker.Obtain(ctx, fmt.Sprintf("jobs:%s", job.Name), job.Interval, nil)
		if err == redislock.ErrNotObtained {
			// Another instance holds this job's tick.
			return
		}
		if err != nil {
			s.log.WithError(err).WithField("job", job.Name).Warn("job lock error; proceeding without lock")
		} else {
			defer lock.Release(context.WithoutCancel(ctx))
		}
	}

	started := time.Now()
	summary, err := job.Run(ctx)
	entry := s.log.WithFields(logrus.Fields{
		"job":      job.Name,
		"duration": time.Since(started).Round(time.Millisecond).String(),
	})
	if err != nil {
		entry.WithError(err).Error("job failed")
		return
	}
	if summary != "" {
		entry.WithField("result", summary).Info("job complete")
	}
}
