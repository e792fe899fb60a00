package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benvon/keyword-rotator/internal/models"
	"github.com/benvon/keyword-rotator/internal/queue"
	"github.com/benvon/keyword-rotator/internal/services/rotation"
)

func TestRotationWorker_ProcessJob(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		job         *queue.Job
		rotator     *mockRotator
		suggester   rotation.Suggester
		expectError bool
		wantAck     bool
		wantDLQ     bool
		wantRetries int
	}{
		{
			name: "rotate job with date",
			job:  queue.NewRotateJob("2025-03-10", 4, true),
			rotator: &mockRotator{
				rotateFunc: func(_ context.Context, opts rotation.RotateOptions) (*models.RotationResult, error) {
					want := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
					if !opts.Date.Equal(want) || opts.Count != 4 || !opts.Force {
						return nil, errors.New("unexpected rotate options")
					}
					return &models.RotationResult{Date: "2025-03-10", Keywords: []string{"a"}}, nil
				},
			},
			wantAck: true,
		},
		{
			name: "rotate job without date uses today",
			job:  queue.NewRotateJob("", 0, false),
			rotator: &mockRotator{
				rotateFunc: func(_ context.Context, opts rotation.RotateOptions) (*models.RotationResult, error) {
					if !opts.Date.IsZero() {
						return nil, errors.New("expected zero date")
					}
					return &models.RotationResult{Keywords: []string{}}, nil
				},
			},
			wantAck: true,
		},
		{
			name:    "backfill job",
			job:     queue.NewBackfillJob(75),
			rotator: &mockRotator{},
			wantAck: true,
		},
		{
			name:      "suggest job",
			job:       queue.NewSuggestJob("cooking", 5),
			rotator:   &mockRotator{},
			suggester: mockSuggester{},
			wantAck:   true,
		},
		{
			name:        "suggest job without suggester goes to DLQ",
			job:         queue.NewSuggestJob("cooking", 5),
			rotator:     &mockRotator{},
			expectError: true,
			wantDLQ:     true,
		},
		{
			name:        "invalid job goes to DLQ",
			job:         queue.NewJob(queue.JobType("unknown")),
			rotator:     &mockRotator{},
			expectError: true,
			wantDLQ:     true,
		},
		{
			name: "transient failure is re-enqueued",
			job:  queue.NewBackfillJob(10),
			rotator: &mockRotator{
				backfillFunc: func(context.Context, int) (*models.BackfillResult, error) {
					return nil, errors.New("connection reset")
				},
			},
			expectError: true,
			wantAck:     true,
			wantRetries: 1,
		},
		{
			name: "store not initialized is permanent",
			job:  queue.NewRotateJob("", 0, false),
			rotator: &mockRotator{
				rotateFunc: func(context.Context, rotation.RotateOptions) (*models.RotationResult, error) {
					return nil, rotation.ErrStoreNotInitialized
				},
			},
			expectError: true,
			wantDLQ:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			jobQueue := &mockJobQueue{}
			worker := NewRotationWorker(tt.rotator, tt.suggester, jobQueue, nil)
			msg := &mockMessage{job: tt.job}

			err := worker.ProcessJob(context.Background(), msg)
			if (err != nil) != tt.expectError {
				t.Fatalf("ProcessJob() error = %v, expectError %v", err, tt.expectError)
			}
			if msg.acked != tt.wantAck {
				t.Errorf("acked = %v, want %v", msg.acked, tt.wantAck)
			}
			if msg.deadLettered != tt.wantDLQ {
				t.Errorf("dead lettered = %v, want %v", msg.deadLettered, tt.wantDLQ)
			}
			if got := len(jobQueue.jobs()); got != tt.wantRetries {
				t.Errorf("re-enqueued %d jobs, want %d", got, tt.wantRetries)
			}
		})
	}
}

func TestRotationWorker_RetryDelayAndBudget(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)
	jobQueue := &mockJobQueue{}
	failing := &mockRotator{
		rotateFunc: func(context.Context, rotation.RotateOptions) (*models.RotationResult, error) {
			return nil, errors.New("database unavailable")
		},
	}
	worker := NewRotationWorker(failing, nil, jobQueue, nil)
	worker.now = func() time.Time { return now }

	job := queue.NewRotateJob("2025-03-10", 3, false)
	if err := worker.ProcessJob(context.Background(), &mockMessage{job: job}); err == nil {
		t.Fatal("expected error")
	}

	retried := jobQueue.jobs()
	if len(retried) != 1 {
		t.Fatalf("expected 1 re-enqueued job, got %d", len(retried))
	}
	retry := retried[0]
	if retry.ID != job.ID {
		t.Error("retry should keep the job ID")
	}
	if retry.RetryCount != 1 {
		t.Errorf("RetryCount = %d, want 1", retry.RetryCount)
	}
	if retry.NotBefore == nil || !retry.NotBefore.Equal(now.Add(5*time.Second)) {
		t.Errorf("NotBefore = %v, want %v", retry.NotBefore, now.Add(5*time.Second))
	}
	if job.RetryCount != 0 {
		t.Error("original job should not be mutated")
	}

	// Exhausted budget goes to the DLQ
	retry.RetryCount = retry.MaxRetries
	msg := &mockMessage{job: retry}
	if err := worker.ProcessJob(context.Background(), msg); err == nil {
		t.Fatal("expected error")
	}
	if !msg.deadLettered || msg.acked {
		t.Errorf("expected dead letter without ack, got acked=%v dead lettered=%v", msg.acked, msg.deadLettered)
	}
	if len(jobQueue.jobs()) != 1 {
		t.Error("exhausted job should not be re-enqueued")
	}
}

func TestRotationWorker_EnqueueFailureSendsToDLQ(t *testing.T) {
	t.Parallel()

	jobQueue := &mockJobQueue{
		enqueueFunc: func(context.Context, *queue.Job) error {
			return errors.New("broker down")
		},
	}
	failing := &mockRotator{
		backfillFunc: func(context.Context, int) (*models.BackfillResult, error) {
			return nil, errors.New("timeout")
		},
	}
	worker := NewRotationWorker(failing, nil, jobQueue, nil)
	msg := &mockMessage{job: queue.NewBackfillJob(0)}

	if err := worker.ProcessJob(context.Background(), msg); err == nil {
		t.Fatal("expected error")
	}
	if msg.acked || !msg.deadLettered {
		t.Errorf("expected dead letter, got acked=%v dead lettered=%v", msg.acked, msg.deadLettered)
	}
}

func TestRotationWorker_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	worker := NewRotationWorker(&mockRotator{}, nil, &mockJobQueue{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	msgs := make(chan *queue.Message)
	errs := make(chan error)
	if err := worker.Run(ctx, msgs, errs); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}
