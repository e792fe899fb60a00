package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benvon/keyword-rotator/internal/models"
	"github.com/benvon/keyword-rotator/internal/queue"
	"github.com/benvon/keyword-rotator/internal/services/rotation"
)

// mockJobQueue is a mock implementation of JobQueue
type mockJobQueue struct {
	mu          sync.Mutex
	enqueued    []*queue.Job
	enqueueFunc func(ctx context.Context, job *queue.Job) error
}

func (m *mockJobQueue) Enqueue(ctx context.Context, job *queue.Job) error {
	if m.enqueueFunc != nil {
		if err := m.enqueueFunc(ctx, job); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enqueued = append(m.enqueued, job)
	return nil
}

func (m *mockJobQueue) Consume(ctx context.Context, prefetchCount int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, errors.New("not implemented")
}

func (m *mockJobQueue) Close() error {
	return nil
}

func (m *mockJobQueue) HealthCheck(ctx context.Context) error {
	return nil
}

func (m *mockJobQueue) jobs() []*queue.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*queue.Job(nil), m.enqueued...)
}

// Ensure mock implements interface
var _ queue.JobQueue = (*mockJobQueue)(nil)

// mockMessage records how a delivery was settled
type mockMessage struct {
	job          *queue.Job
	acked        bool
	deadLettered bool
}

func (m *mockMessage) Ack() error {
	m.acked = true
	return nil
}

func (m *mockMessage) DeadLetter() error {
	m.deadLettered = true
	return nil
}

func (m *mockMessage) Job() *queue.Job {
	return m.job
}

var _ queue.Delivery = (*mockMessage)(nil)

// mockRotator is a mock implementation of KeywordRotator
type mockRotator struct {
	rotateFunc   func(ctx context.Context, opts rotation.RotateOptions) (*models.RotationResult, error)
	backfillFunc func(ctx context.Context, limit int) (*models.BackfillResult, error)
	suggestFunc  func(ctx context.Context, suggester rotation.Suggester, topic string, n int) (*models.SeedResult, error)
}

func (m *mockRotator) Location() *time.Location {
	return time.UTC
}

func (m *mockRotator) RotateKeywords(ctx context.Context, opts rotation.RotateOptions) (*models.RotationResult, error) {
	if m.rotateFunc != nil {
		return m.rotateFunc(ctx, opts)
	}
	return &models.RotationResult{Keywords: []string{}}, nil
}

func (m *mockRotator) SeedPoolFromKeywordQueries(ctx context.Context, limit int) (*models.BackfillResult, error) {
	if m.backfillFunc != nil {
		return m.backfillFunc(ctx, limit)
	}
	return &models.BackfillResult{Keywords: []string{}}, nil
}

func (m *mockRotator) SeedSuggestions(ctx context.Context, suggester rotation.Suggester, topic string, n int) (*models.SeedResult, error) {
	if m.suggestFunc != nil {
		return m.suggestFunc(ctx, suggester, topic, n)
	}
	return &models.SeedResult{Keywords: []string{}}, nil
}

var _ KeywordRotator = (*mockRotator)(nil)

type mockSuggester struct{}

func (mockSuggester) SuggestKeywords(context.Context, string, int, []string) ([]string, error) {
	return nil, nil
}
