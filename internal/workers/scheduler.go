package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/keyword-rotator/internal/queue"
	"github.com/benvon/keyword-rotator/internal/services/rotation"
	"go.uber.org/zap"
)

// scheduleRetryInterval is how long the scheduler waits after a failed enqueue
const scheduleRetryInterval = time.Minute

// Scheduler enqueues one rotation job per day at a fixed local hour
type Scheduler struct {
	jobQueue queue.JobQueue
	hour     int
	loc      *time.Location
	count    int
	now      func() time.Time
	logger   *zap.Logger
}

// NewScheduler creates a scheduler firing at hour (0-23) in loc
func NewScheduler(jobQueue queue.JobQueue, hour int, loc *time.Location, count int, logger *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		jobQueue: jobQueue,
		hour:     hour,
		loc:      loc,
		count:    count,
		now:      time.Now,
		logger:   logger,
	}
}

// NextRun returns the first fire time strictly after now
func (s *Scheduler) NextRun(now time.Time) time.Time {
	local := now.In(s.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.hour, 0, 0, 0, s.loc)
	if !next.After(local) {
		// time.Date normalizes Day+1 and keeps the wall clock hour across DST changes
		next = time.Date(local.Year(), local.Month(), local.Day()+1, s.hour, 0, 0, 0, s.loc)
	}
	return next
}

// EnqueueToday enqueues a rotation for the current day. Rotation without force is
// idempotent, so this is safe to run on every start.
func (s *Scheduler) EnqueueToday(ctx context.Context) error {
	job := queue.NewRotateJob(rotation.DateKey(s.now().In(s.loc)), s.count, false)
	if err := s.jobQueue.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("failed to enqueue rotation job: %w", err)
	}
	s.logger.Info("scheduled_rotation_job",
		zap.String("job_id", job.ID.String()),
		zap.String("date", job.Date),
	)
	return nil
}

// ScheduleNext enqueues the rotation job for the next fire time and returns that time.
// The job may not run before the fire time and expires a day after it.
func (s *Scheduler) ScheduleNext(ctx context.Context) (time.Time, error) {
	fire := s.NextRun(s.now())
	job := queue.NewRotateJob(rotation.DateKey(fire), s.count, false)
	job.NotBefore = &fire
	notAfter := fire.Add(24 * time.Hour)
	job.NotAfter = &notAfter

	if err := s.jobQueue.Enqueue(ctx, job); err != nil {
		return fire, fmt.Errorf("failed to enqueue rotation job: %w", err)
	}

	s.logger.Info("scheduled_rotation_job",
		zap.String("job_id", job.ID.String()),
		zap.String("date", job.Date),
		zap.Time("not_before", fire),
	)
	return fire, nil
}

// Start schedules rotation jobs until ctx is cancelled
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.EnqueueToday(ctx); err != nil {
		s.logger.Warn("failed_to_schedule_catch_up_rotation", zap.Error(err))
	}

	for {
		fire, err := s.ScheduleNext(ctx)
		wait := time.Until(fire)
		if err != nil {
			s.logger.Warn("failed_to_schedule_rotation", zap.Error(err))
			wait = scheduleRetryInterval
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
