package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeStreakRollup recomputes every habit streak for one user
	JobTypeStreakRollup JobType = "streak_rollup"
)

// DefaultMaxRetries is the retry budget given to new jobs.
const DefaultMaxRetries = 3

// Job represents a job in the queue
type Job struct {
	ID         uuid.UUID      `json:"id"`
	Type       JobType        `json:"type"`
	UserID     uuid.UUID      `json:"user_id"`
	AsOf       string         `json:"as_of,omitempty"`      // Client-local date key the rollup is computed for
	NotBefore  *time.Time     `json:"not_before,omitempty"` // Earliest time to process job (nil = immediate)
	NotAfter   *time.Time     `json:"not_after,omitempty"`  // Latest time to process job (nil = no expiration)
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	RetryCount int            `json:"retry_count"`
	MaxRetries int            `json:"max_retries"`
}

// NewJob creates a new job
func NewJob(jobType JobType, userID uuid.UUID) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		UserID:     userID,
		Metadata:   make(map[string]any),
		CreatedAt:  time.Now(),
		RetryCount: 0,
		MaxRetries: DefaultMaxRetries,
	}
}

// NewStreakRollupJob creates a rollup job for userID as of the given date key.
// A positive delay lets a burst of saves collapse into one late rollup.
func NewStreakRollupJob(userID uuid.UUID, asOf string, delay time.Duration) *Job {
	job := NewJob(JobTypeStreakRollup, userID)
	job.AsOf = asOf
	if delay > 0 {
		notBefore := job.CreatedAt.Add(delay)
		job.NotBefore = &notBefore
	}
	// A rollup nobody picked up within a day is stale
	notAfter := job.CreatedAt.Add(24 * time.Hour)
	job.NotAfter = &notAfter
	return job
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	now := time.Now()

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

// Retry returns a copy of the job scheduled no earlier than notBefore with its
// retry count bumped.
func (j *Job) Retry(notBefore time.Time) *Job {
	next := *j
	next.NotBefore = &notBefore
	next.IncrementRetry()
	return &next
}
