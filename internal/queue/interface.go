package queue

import (
	"context"
	"time"
)

// Delivery is one consumed job awaiting settlement. Exactly one of Ack or DeadLetter
// must be called; retries are new jobs, not redeliveries.
type Delivery interface {
	Job() *Job
	Ack() error
	DeadLetter() error
}

// JobQueue carries rotation, back-fill and suggestion jobs between the server, the
// scheduler and the worker.
type JobQueue interface {
	Enqueue(ctx context.Context, job *Job) error

	// Consume streams decoded, ready-to-run jobs. Expired and undecodable messages are
	// dead-lettered before they reach the channel. Both channels close when ctx is done
	// or the broker connection drops.
	Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error)

	Close() error
	HealthCheck(ctx context.Context) error
}

// DLQPurger removes dead-lettered jobs older than a retention period
type DLQPurger interface {
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error)
}
