package queue

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeRotateKeywords selects the keywords of one day
	JobTypeRotateKeywords JobType = "rotate_keywords"
	// JobTypeBackfillPool seeds the pool from recent keyword queries
	JobTypeBackfillPool JobType = "backfill_pool"
	// JobTypeSuggestKeywords seeds the pool with AI suggested keywords for a topic
	JobTypeSuggestKeywords JobType = "suggest_keywords"
)

// DefaultMaxRetries is the retry budget given to new jobs
const DefaultMaxRetries = 3

// Job represents a job in the queue
type Job struct {
	ID   uuid.UUID `json:"id"`
	Type JobType   `json:"type"`

	// rotate_keywords
	Date  string `json:"date,omitempty"` // YYYY-MM-DD; empty = day the job runs
	Count int    `json:"count,omitempty"`
	Force bool   `json:"force,omitempty"`

	// backfill_pool and suggest_keywords
	Limit int    `json:"limit,omitempty"`
	Topic string `json:"topic,omitempty"`

	NotBefore  *time.Time `json:"not_before,omitempty"` // Earliest time to process job (nil = immediate)
	NotAfter   *time.Time `json:"not_after,omitempty"`  // Latest time to process job (nil = no expiration)
	CreatedAt  time.Time  `json:"created_at"`
	RetryCount int        `json:"retry_count"`
	MaxRetries int        `json:"max_retries"`
}

// NewJob creates a new job
func NewJob(jobType JobType) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		CreatedAt:  time.Now(),
		MaxRetries: DefaultMaxRetries,
	}
}

// NewRotateJob creates a rotation job for date (empty = the day it runs)
func NewRotateJob(date string, count int, force bool) *Job {
	job := NewJob(JobTypeRotateKeywords)
	job.Date = date
	job.Count = count
	job.Force = force
	return job
}

// NewBackfillJob creates a pool back-fill job
func NewBackfillJob(limit int) *Job {
	job := NewJob(JobTypeBackfillPool)
	job.Limit = limit
	return job
}

// NewSuggestJob creates an AI keyword suggestion job
func NewSuggestJob(topic string, count int) *Job {
	job := NewJob(JobTypeSuggestKeywords)
	job.Topic = topic
	job.Limit = count
	return job
}

// Validate checks that the job carries what its type needs
func (j *Job) Validate() error {
	switch j.Type {
	case JobTypeRotateKeywords:
		if j.Date != "" {
			if _, err := time.Parse("2006-01-02", j.Date); err != nil {
				return fmt.Errorf("invalid rotation date %q", j.Date)
			}
		}
	case JobTypeBackfillPool:
	case JobTypeSuggestKeywords:
		if strings.TrimSpace(j.Topic) == "" {
			return fmt.Errorf("suggest_keywords job requires a topic")
		}
	default:
		return fmt.Errorf("unknown job type %q", j.Type)
	}
	return nil
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	return j.ShouldProcessAt(time.Now())
}

// ShouldProcessAt checks the NotBefore and NotAfter window against now
func (j *Job) ShouldProcessAt(now time.Time) bool {
	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}
	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return false
	}
	return true
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}
	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
