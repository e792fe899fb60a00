package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/keyword-rotator/internal/metrics"
	"github.com/benvon/keyword-rotator/internal/models"
	"github.com/benvon/keyword-rotator/internal/queue"
	"github.com/benvon/keyword-rotator/internal/services/ai"
	"github.com/benvon/keyword-rotator/internal/services/rotation"
	"go.uber.org/zap"
)

// KeywordRotator is the part of the rotation service the worker drives
type KeywordRotator interface {
	Location() *time.Location
	RotateKeywords(ctx context.Context, opts rotation.RotateOptions) (*models.RotationResult, error)
	SeedPoolFromKeywordQueries(ctx context.Context, limit int) (*models.BackfillResult, error)
	SeedSuggestions(ctx context.Context, suggester rotation.Suggester, topic string, n int) (*models.SeedResult, error)
}

var _ KeywordRotator = (*rotation.Service)(nil)

// errPermanent marks job failures that retrying cannot fix
var errPermanent = errors.New("permanent job failure")

// RotationWorker processes keyword rotation jobs
type RotationWorker struct {
	rotator   KeywordRotator
	suggester rotation.Suggester // nil disables suggest_keywords jobs
	jobQueue  queue.JobQueue     // For re-enqueueing jobs with delays
	now       func() time.Time
	logger    *zap.Logger
}

// NewRotationWorker creates a new rotation worker
func NewRotationWorker(rotator KeywordRotator, suggester rotation.Suggester, jobQueue queue.JobQueue, logger *zap.Logger) *RotationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RotationWorker{
		rotator:   rotator,
		suggester: suggester,
		jobQueue:  jobQueue,
		now:       time.Now,
		logger:    logger,
	}
}

// ProcessRotateJob rotates the keywords of the job's day
func (w *RotationWorker) ProcessRotateJob(ctx context.Context, job *queue.Job) error {
	var date time.Time
	if job.Date != "" {
		parsed, err := rotation.ParseDate(job.Date, w.rotator.Location())
		if err != nil {
			return fmt.Errorf("%w: %w", errPermanent, err)
		}
		date = parsed
	}

	res, err := w.rotator.RotateKeywords(ctx, rotation.RotateOptions{
		Count: job.Count,
		Date:  date,
		Force: job.Force,
	})
	if err != nil {
		return err
	}

	fields := []zap.Field{
		zap.String("job_id", job.ID.String()),
		zap.String("date", res.Date),
		zap.Int("selected", len(res.Keywords)),
	}
	if res.Seeded != nil {
		fields = append(fields, zap.Int("seeded", *res.Seeded))
	}
	w.logger.Info("rotation_job_completed", fields...)
	return nil
}

// ProcessBackfillJob seeds the pool from recent keyword queries
func (w *RotationWorker) ProcessBackfillJob(ctx context.Context, job *queue.Job) error {
	res, err := w.rotator.SeedPoolFromKeywordQueries(ctx, job.Limit)
	if err != nil {
		return err
	}
	w.logger.Info("backfill_job_completed",
		zap.String("job_id", job.ID.String()),
		zap.Int("added", res.Added),
	)
	return nil
}

// ProcessSuggestJob seeds the pool with suggested keywords for the job's topic
func (w *RotationWorker) ProcessSuggestJob(ctx context.Context, job *queue.Job) error {
	if w.suggester == nil {
		return fmt.Errorf("%w: keyword suggestions are not configured", errPermanent)
	}
	res, err := w.rotator.SeedSuggestions(ctx, w.suggester, job.Topic, job.Limit)
	if err != nil {
		return err
	}
	w.logger.Info("suggest_job_completed",
		zap.String("job_id", job.ID.String()),
		zap.Int("added", res.Added),
	)
	return nil
}

// ProcessJob processes a job based on its type
func (w *RotationWorker) ProcessJob(ctx context.Context, msg queue.Delivery) error {
	job := msg.Job()

	if err := job.Validate(); err != nil {
		metrics.RecordJob(string(job.Type), "invalid")
		if dlqErr := msg.DeadLetter(); dlqErr != nil {
			w.logger.Warn("failed_to_dead_letter_invalid_job", zap.Error(dlqErr))
		}
		return fmt.Errorf("invalid job %s: %w", job.ID, err)
	}

	var err error
	switch job.Type {
	case queue.JobTypeRotateKeywords:
		err = w.ProcessRotateJob(ctx, job)
	case queue.JobTypeBackfillPool:
		err = w.ProcessBackfillJob(ctx, job)
	case queue.JobTypeSuggestKeywords:
		err = w.ProcessSuggestJob(ctx, job)
	}
	if err != nil {
		return w.handleJobError(ctx, msg, job, err)
	}

	metrics.RecordJob(string(job.Type), "ok")
	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack job: %w", ackErr)
	}
	return nil
}

// handleJobError re-enqueues a failed job with a backoff delay while it has retries left
// and dead-letters it otherwise
func (w *RotationWorker) handleJobError(ctx context.Context, msg queue.Delivery, job *queue.Job, err error) error {
	permanent := errors.Is(err, errPermanent) || errors.Is(err, rotation.ErrStoreNotInitialized)

	if !permanent && job.CanRetry() && w.jobQueue != nil {
		delay := ai.GetRetryDelay(err, job.RetryCount)
		notBefore := w.now().Add(delay)
		retry := *job
		retry.NotBefore = &notBefore
		retry.RetryCount = job.RetryCount + 1

		enqueueErr := w.jobQueue.Enqueue(ctx, &retry)
		if enqueueErr == nil {
			if ackErr := msg.Ack(); ackErr != nil {
				w.logger.Warn("failed_to_ack_retried_job", zap.Error(ackErr))
			}
			metrics.RecordJob(string(job.Type), "retry")
			w.logger.Warn("job_failed_will_retry",
				zap.String("job_id", job.ID.String()),
				zap.String("job_type", string(job.Type)),
				zap.Int("attempt", retry.RetryCount),
				zap.Int("max_retries", job.MaxRetries),
				zap.Duration("delay", delay),
				zap.Error(err),
			)
			return fmt.Errorf("job failed (will retry): %w", err)
		}
		w.logger.Warn("failed_to_re_enqueue_job",
			zap.String("job_id", job.ID.String()),
			zap.Error(enqueueErr),
		)
	}

	metrics.RecordJob(string(job.Type), "failed")
	w.logger.Error("job_failed_sending_to_dlq",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
		zap.Int("retry_count", job.RetryCount),
		zap.Bool("permanent", permanent),
		zap.Error(err),
	)
	if dlqErr := msg.DeadLetter(); dlqErr != nil {
		w.logger.Warn("failed_to_dead_letter_job", zap.Error(dlqErr))
	}
	return fmt.Errorf("job failed: %w", err)
}

// Run consumes messages until ctx is cancelled or the delivery channel closes
func (w *RotationWorker) Run(ctx context.Context, msgs <-chan *queue.Message, errs <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.logger.Error("queue_error", zap.Error(err))
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed")
			}
			if err := w.ProcessJob(ctx, msg); err != nil {
				w.logger.Debug("job_processing_error",
					zap.String("job_id", msg.Job().ID.String()),
					zap.Error(err),
				)
			}
		}
	}
}
